package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bookstore-orders/internal/service"
)

// CartHandler exposes the customer's Redis-backed cart.  Every
// response returns the full cart plus priced totals so clients never
// need a second round trip after a mutation.
type CartHandler struct {
    Cart *service.CartService
}

func NewCartHandler(cart *service.CartService) *CartHandler {
    if cart == nil {
        panic("nil service passed to NewCartHandler")
    }
    return &CartHandler{Cart: cart}
}

type addItemReq struct {
    BookID   uint64 `json:"book_id"`
    Quantity int    `json:"quantity"`
}
type updateQtyReq struct {
    Quantity int `json:"quantity"`
}

func (h *CartHandler) respond(c echo.Context, code int, items interface{}, totals interface{}) error {
    return c.JSON(code, echo.Map{"items": items, "totals": totals})
}

// View handles GET /v1/cart.
func (h *CartHandler) View(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    items, totals, err := h.Cart.Items(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cart unavailable"})
    }
    return h.respond(c, http.StatusOK, items, totals)
}

// AddItem handles POST /v1/cart/items.  Adding a book already in the
// cart merges quantities; the combined amount is checked against
// stock.
func (h *CartHandler) AddItem(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req addItemReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.BookID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "book_id is required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    items, err := h.Cart.AddItem(ctx, uid, req.BookID, req.Quantity)
    if err != nil {
        return writeServiceError(c, err)
    }
    return h.respond(c, http.StatusOK, items, h.Cart.ComputeTotals(items))
}

// UpdateQuantity handles PUT /v1/cart/items/:bookId.
func (h *CartHandler) UpdateQuantity(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    bookID, ok := idParam(c, "bookId")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book id"})
    }
    var req updateQtyReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    items, err := h.Cart.UpdateQuantity(ctx, uid, bookID, req.Quantity)
    if err != nil {
        return writeServiceError(c, err)
    }
    return h.respond(c, http.StatusOK, items, h.Cart.ComputeTotals(items))
}

// RemoveItem handles DELETE /v1/cart/items/:bookId.  Removing a line
// that is not present succeeds.
func (h *CartHandler) RemoveItem(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    bookID, ok := idParam(c, "bookId")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    items, err := h.Cart.RemoveItem(ctx, uid, bookID)
    if err != nil {
        return writeServiceError(c, err)
    }
    return h.respond(c, http.StatusOK, items, h.Cart.ComputeTotals(items))
}

// Clear handles DELETE /v1/cart.
func (h *CartHandler) Clear(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Cart.Clear(ctx, uid); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cart unavailable"})
    }
    return c.NoContent(http.StatusNoContent)
}
