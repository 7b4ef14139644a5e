package handler

import (
    "context"
    "database/sql"
    "log"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bookstore-orders/internal/model"
    "github.com/iliyamo/bookstore-orders/internal/repository"
    "github.com/iliyamo/bookstore-orders/internal/service"
)

// CustomerOrderHandler is the shopper's order surface: checkout from
// the cart, a one-line direct purchase, order history, cancellation
// and tracking.  Customers only ever see their own orders; a foreign
// order id returns 404 rather than 403 so ids are not probeable.
type CustomerOrderHandler struct {
    Engine    *service.OrderService
    Cart      *service.CartService
    Tracking  *service.TrackingService
    Orders    *repository.OrderRepo
    Cancels   *repository.CancellationRepo
    Customers *repository.CustomerRepo
}

func NewCustomerOrderHandler(engine *service.OrderService, cart *service.CartService, tracking *service.TrackingService,
    orders *repository.OrderRepo, cancels *repository.CancellationRepo, customers *repository.CustomerRepo) *CustomerOrderHandler {
    if engine == nil || cart == nil || tracking == nil || orders == nil || cancels == nil || customers == nil {
        panic("nil dependency passed to NewCustomerOrderHandler")
    }
    return &CustomerOrderHandler{Engine: engine, Cart: cart, Tracking: tracking, Orders: orders, Cancels: cancels, Customers: customers}
}

type purchaseReq struct {
    BookID   uint64 `json:"book_id"`
    Quantity int    `json:"quantity"`
}

// loadCustomer resolves the authenticated customer from context.
func (h *CustomerOrderHandler) loadCustomer(ctx context.Context, c echo.Context) (model.Customer, error) {
    uid, err := getUserID(c)
    if err != nil {
        return model.Customer{}, err
    }
    return h.Customers.GetByID(ctx, uid)
}

// ownOrder fetches an order and verifies it belongs to the caller.
func (h *CustomerOrderHandler) ownOrder(ctx context.Context, orderID, customerID uint64) (model.Order, error) {
    o, err := h.Orders.GetByID(ctx, orderID)
    if err != nil {
        return model.Order{}, err
    }
    if o.CustomerID != customerID {
        return model.Order{}, repository.ErrOrderNotFound
    }
    return o, nil
}

// Checkout handles POST /v1/checkout.  The whole cart becomes one
// online order; the cart is cleared only after the order is safely
// persisted.
func (h *CustomerOrderHandler) Checkout(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    cust, err := h.loadCustomer(ctx, c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    items, _, err := h.Cart.Items(ctx, cust.ID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cart unavailable"})
    }
    if len(items) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "cart is empty"})
    }

    order, err := h.Engine.CreateOrder(ctx, service.CreateOrderRequest{
        Customer: cust,
        Lines:    service.CheckoutLines(items),
        Channel:  model.ChannelOnline,
    })
    if err != nil {
        return writeServiceError(c, err)
    }
    if err := h.Cart.Clear(ctx, cust.ID); err != nil {
        // The order exists; a stale cart is a nuisance, not a failure.
        log.Printf("checkout: clear cart for customer %d failed: %v", cust.ID, err)
    }
    return c.JSON(http.StatusCreated, order)
}

// Purchase handles POST /v1/purchase: a single-title online order that
// bypasses the cart entirely.
func (h *CustomerOrderHandler) Purchase(c echo.Context) error {
    var req purchaseReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.BookID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "book_id is required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    cust, err := h.loadCustomer(ctx, c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    order, err := h.Engine.CreateOrder(ctx, service.CreateOrderRequest{
        Customer: cust,
        Lines:    []service.RequestedLine{{BookID: req.BookID, Quantity: req.Quantity}},
        Channel:  model.ChannelOnline,
    })
    if err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusCreated, order)
}

// MyOrders handles GET /v1/orders.
func (h *CustomerOrderHandler) MyOrders(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    orders, err := h.Orders.ListByCustomer(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    items, err := annotateOrders(ctx, orders, h.Cancels, h.Engine)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"orders": items})
}

// GetOrder handles GET /v1/orders/:id.
func (h *CustomerOrderHandler) GetOrder(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := idParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    o, err := h.ownOrder(ctx, id, uid)
    if err != nil {
        if err == repository.ErrOrderNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    item, err := annotateOrder(ctx, o, h.Cancels, h.Engine)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    resp := echo.Map{"order": item}
    if item.Cancelled {
        rec, found, err := h.Cancels.GetByOrderID(ctx, id)
        if err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
        }
        if found {
            resp["cancellation"] = newCancellationView(rec)
        }
    }
    return c.JSON(http.StatusOK, resp)
}

// CancelOrder handles POST /v1/orders/:id/cancel within the
// cancellation window.
func (h *CustomerOrderHandler) CancelOrder(c echo.Context) error {
    id, ok := idParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
    }
    var req cancelReq
    _ = c.Bind(&req)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    cust, err := h.loadCustomer(ctx, c)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
        }
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    if _, err := h.ownOrder(ctx, id, cust.ID); err != nil {
        if err == repository.ErrOrderNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }

    res, err := h.Engine.CancelOrder(ctx, id, cust.ID, cust.Name, strings.TrimSpace(req.Reason))
    if err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "cancellation":   newCancellationView(res.Record),
        "restored_lines": res.RestoredLines,
        "skipped_books":  res.SkippedBooks,
    })
}

// OrderTracking handles GET /v1/orders/:id/tracking.
func (h *CustomerOrderHandler) OrderTracking(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := idParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if _, err := h.ownOrder(ctx, id, uid); err != nil {
        if err == repository.ErrOrderNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    t, err := h.Tracking.Get(ctx, id)
    if err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusOK, t)
}
