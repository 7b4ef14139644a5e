package handler

import (
    "context"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bookstore-orders/internal/model"
    "github.com/iliyamo/bookstore-orders/internal/repository"
)

// AdminHandler implements catalog management.  Routes are guarded by
// the ADMIN role; stock adjustments made here are absolute sets, not
// the conditional decrements the order engine uses.
type AdminHandler struct {
    Books *repository.BookRepo
}

func NewAdminHandler(books *repository.BookRepo) *AdminHandler {
    if books == nil {
        panic("nil repository passed to NewAdminHandler")
    }
    return &AdminHandler{Books: books}
}

type bookReq struct {
    Title         string  `json:"title"`
    Author        string  `json:"author"`
    Genre         string  `json:"genre"`
    ISBN          string  `json:"isbn"`
    Year          int     `json:"year"`
    UnitPrice     float64 `json:"unit_price"`
    StockQuantity int     `json:"stock_quantity"`
    Description   string  `json:"description"`
    ImageRef      string  `json:"image_ref"`
}

func (r *bookReq) validate() string {
    r.Title = strings.TrimSpace(r.Title)
    r.Author = strings.TrimSpace(r.Author)
    if r.Title == "" {
        return "title is required"
    }
    if r.Author == "" {
        return "author is required"
    }
    if r.UnitPrice < 0 {
        return "unit_price must not be negative"
    }
    if r.StockQuantity < 0 {
        return "stock_quantity must not be negative"
    }
    return ""
}

func (r *bookReq) toModel() model.Book {
    return model.Book{
        Title:         r.Title,
        Author:        r.Author,
        Genre:         r.Genre,
        ISBN:          r.ISBN,
        Year:          r.Year,
        UnitPrice:     r.UnitPrice,
        StockQuantity: r.StockQuantity,
        Description:   r.Description,
        ImageRef:      r.ImageRef,
    }
}

// CreateBook handles POST /v1/admin/books.
func (h *AdminHandler) CreateBook(c echo.Context) error {
    var req bookReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if msg := req.validate(); msg != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    b := req.toModel()
    id, err := h.Books.Create(ctx, &b)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create book failed"})
    }
    b.ID = id
    return c.JSON(http.StatusCreated, newBookView(b))
}

// UpdateBook handles PUT /v1/admin/books/:id.  The full record is
// replaced with the submitted fields.
func (h *AdminHandler) UpdateBook(c echo.Context) error {
    id, ok := idParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book id"})
    }
    var req bookReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if msg := req.validate(); msg != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    b := req.toModel()
    b.ID = id
    if err := h.Books.Update(ctx, &b); err != nil {
        if err == repository.ErrBookNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "book not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update book failed"})
    }
    fresh, err := h.Books.GetByID(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, newBookView(fresh))
}

// DeleteBook handles DELETE /v1/admin/books/:id.  Existing orders keep
// their snapshots; only the catalog entry disappears.
func (h *AdminHandler) DeleteBook(c echo.Context) error {
    id, ok := idParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Books.Delete(ctx, id); err != nil {
        if err == repository.ErrBookNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "book not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete book failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// ListBooks handles GET /v1/admin/books.  Unlike the public catalog,
// out-of-stock titles are included.
func (h *AdminHandler) ListBooks(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    books, err := h.Books.List(ctx, strings.TrimSpace(c.QueryParam("q")), false)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"books": newBookViews(books)})
}

// LowStock handles GET /v1/admin/books/low-stock.  ?threshold=
// overrides the default of 5 copies.
func (h *AdminHandler) LowStock(c echo.Context) error {
    threshold := 5
    if s := c.QueryParam("threshold"); s != "" {
        n, err := strconv.Atoi(s)
        if err != nil || n < 0 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid threshold"})
        }
        threshold = n
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    books, err := h.Books.LowStock(ctx, threshold)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"threshold": threshold, "books": newBookViews(books)})
}
