package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bookstore-orders/internal/repository"
    "github.com/iliyamo/bookstore-orders/internal/service"
)

// PublicHandler serves the guest-facing surface: the in-stock catalog
// and tracking lookup by order reference.  The reference is an opaque
// UUID handed out at checkout, so possession of it is treated as
// authorization to view the tracking timeline.
type PublicHandler struct {
    Books    *repository.BookRepo
    Orders   *repository.OrderRepo
    Tracking *service.TrackingService
}

func NewPublicHandler(books *repository.BookRepo, orders *repository.OrderRepo, tracking *service.TrackingService) *PublicHandler {
    if books == nil || orders == nil || tracking == nil {
        panic("nil dependency passed to NewPublicHandler")
    }
    return &PublicHandler{Books: books, Orders: orders, Tracking: tracking}
}

// ListBooks handles GET /v1/books.  Only titles with stock on hand are
// returned; ?q= filters by title or author substring.
func (h *PublicHandler) ListBooks(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    books, err := h.Books.List(ctx, strings.TrimSpace(c.QueryParam("q")), true)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"books": newBookViews(books)})
}

// GetBook handles GET /v1/books/:id.
func (h *PublicHandler) GetBook(c echo.Context) error {
    id, ok := idParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    b, err := h.Books.GetByID(ctx, id)
    if err != nil {
        if err == repository.ErrBookNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "book not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, newBookView(b))
}

// TrackByReference handles GET /v1/tracking?ref=.  It resolves the
// public order reference and returns the tracking timeline.
func (h *PublicHandler) TrackByReference(c echo.Context) error {
    ref := strings.TrimSpace(c.QueryParam("ref"))
    if ref == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "ref is required"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    o, err := h.Orders.GetByReference(ctx, ref)
    if err != nil {
        if err == repository.ErrOrderNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    t, err := h.Tracking.Get(ctx, o.ID)
    if err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusOK, t)
}
