package handler // handler defines http handlers

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bookstore-orders/internal/model"
    "github.com/iliyamo/bookstore-orders/internal/repository"
    "github.com/iliyamo/bookstore-orders/internal/service"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64.
// JWT numeric claims decode as float64, so several representations are
// accepted.
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// idParam parses a positive numeric path parameter.
func idParam(c echo.Context, name string) (uint64, bool) {
    n, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || n == 0 {
        return 0, false
    }
    return n, true
}

// writeServiceError translates the typed service errors into HTTP
// responses.  Anything unrecognised is a storage or broker failure and
// maps to 500 without leaking internals.
func writeServiceError(c echo.Context, err error) error {
    var nf *service.NotFoundError
    var ins *service.InsufficientStockError
    var inv *service.InvalidArgumentError
    var ac *service.AlreadyCancelledError
    var we *service.WindowExpiredError
    switch {
    case errors.As(err, &nf):
        return c.JSON(http.StatusNotFound, echo.Map{"error": nf.Error()})
    case errors.As(err, &ins):
        return c.JSON(http.StatusBadRequest, echo.Map{
            "error":     ins.Error(),
            "book_id":   ins.BookID,
            "requested": ins.Requested,
            "available": ins.Available,
        })
    case errors.As(err, &inv):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": inv.Error()})
    case errors.As(err, &ac):
        return c.JSON(http.StatusConflict, echo.Map{"error": ac.Error()})
    case errors.As(err, &we):
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": we.Error()})
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// ----- shared response views -----

// bookView is the JSON shape of a catalog entry.
type bookView struct {
    ID            uint64    `json:"id"`
    Title         string    `json:"title"`
    Author        string    `json:"author"`
    Genre         string    `json:"genre"`
    ISBN          string    `json:"isbn"`
    Year          int       `json:"year"`
    UnitPrice     float64   `json:"unit_price"`
    StockQuantity int       `json:"stock_quantity"`
    Description   string    `json:"description"`
    ImageRef      string    `json:"image_ref"`
    CreatedAt     time.Time `json:"created_at"`
}

func newBookView(b model.Book) bookView {
    return bookView{
        ID:            b.ID,
        Title:         b.Title,
        Author:        b.Author,
        Genre:         b.Genre,
        ISBN:          b.ISBN,
        Year:          b.Year,
        UnitPrice:     b.UnitPrice,
        StockQuantity: b.StockQuantity,
        Description:   b.Description,
        ImageRef:      b.ImageRef,
        CreatedAt:     b.CreatedAt,
    }
}

func newBookViews(books []model.Book) []bookView {
    out := make([]bookView, 0, len(books))
    for _, b := range books {
        out = append(out, newBookView(b))
    }
    return out
}

// staffView is the JSON shape of a staff account.  The password hash
// never leaves the handler layer.
type staffView struct {
    ID           uint64    `json:"id"`
    Name         string    `json:"name"`
    Email        string    `json:"email"`
    Role         string    `json:"role"`
    Active       bool      `json:"active"`
    RegisteredAt time.Time `json:"registered_at"`
}

func newStaffView(s model.Staff) staffView {
    return staffView{
        ID:           s.ID,
        Name:         s.Name,
        Email:        s.Email,
        Role:         s.Role,
        Active:       s.Active,
        RegisteredAt: s.RegisteredAt,
    }
}

// customerView is the JSON shape of a customer account, hash omitted.
type customerView struct {
    ID           uint64    `json:"id"`
    Name         string    `json:"name"`
    Email        string    `json:"email"`
    Phone        string    `json:"phone"`
    Address      string    `json:"address"`
    Active       bool      `json:"active"`
    RegisteredAt time.Time `json:"registered_at"`
}

func newCustomerView(c model.Customer) customerView {
    return customerView{
        ID:           c.ID,
        Name:         c.Name,
        Email:        c.Email,
        Phone:        c.Phone,
        Address:      c.Address,
        Active:       c.Active,
        RegisteredAt: c.RegisteredAt,
    }
}

// cancellationView is the JSON shape of a cancellation ledger entry.
type cancellationView struct {
    OrderID         uint64    `json:"order_id"`
    CustomerID      uint64    `json:"customer_id"`
    CustomerName    string    `json:"customer_name"`
    OrderTotal      float64   `json:"order_total"`
    Reason          string    `json:"reason"`
    CancelledByID   uint64    `json:"cancelled_by_id"`
    CancelledByName string    `json:"cancelled_by_name"`
    CancelledAt     time.Time `json:"cancelled_at"`
    OrderCreatedAt  time.Time `json:"order_created_at"`
}

func newCancellationView(r model.CancellationRecord) cancellationView {
    return cancellationView{
        OrderID:         r.OrderID,
        CustomerID:      r.CustomerID,
        CustomerName:    r.CustomerName,
        OrderTotal:      r.OrderTotal,
        Reason:          r.Reason,
        CancelledByID:   r.CancelledByID,
        CancelledByName: r.CancelledByName,
        CancelledAt:     r.CancelledAt,
        OrderCreatedAt:  r.OrderCreatedAt,
    }
}

// orderListItem decorates an order with its cancellation facts for
// list and detail responses.  Cancelled reflects the ledger, not the
// status column; CanCancel is computed against the live clock.
type orderListItem struct {
    model.Order
    Cancelled bool `json:"cancelled"`
    CanCancel bool `json:"can_cancel"`
}

// annotateOrder consults the cancellation ledger for one order.
func annotateOrder(ctx context.Context, o model.Order, cancels *repository.CancellationRepo, svc *service.OrderService) (orderListItem, error) {
    cancelled, err := cancels.Exists(ctx, o.ID)
    if err != nil {
        return orderListItem{}, err
    }
    return orderListItem{
        Order:     o,
        Cancelled: cancelled,
        CanCancel: !cancelled && svc.CanCancel(o),
    }, nil
}

func annotateOrders(ctx context.Context, orders []model.Order, cancels *repository.CancellationRepo, svc *service.OrderService) ([]orderListItem, error) {
    out := make([]orderListItem, 0, len(orders))
    for _, o := range orders {
        item, err := annotateOrder(ctx, o, cancels, svc)
        if err != nil {
            return nil, err
        }
        out = append(out, item)
    }
    return out, nil
}
