package handler

import (
    "context"
    "database/sql"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bookstore-orders/internal/model"
    "github.com/iliyamo/bookstore-orders/internal/repository"
    "github.com/iliyamo/bookstore-orders/internal/service"
)

// StaffHandler covers the counter side of the store: entering
// in-person sales, registering walk-in customers, browsing all orders
// and cancelling on a customer's behalf.  Routes require the STAFF or
// ADMIN role.
type StaffHandler struct {
    Engine     *service.OrderService
    Orders     *repository.OrderRepo
    Cancels    *repository.CancellationRepo
    Customers  *repository.CustomerRepo
    Staff      *repository.StaffRepo
    BcryptCost int
}

func NewStaffHandler(engine *service.OrderService, orders *repository.OrderRepo, cancels *repository.CancellationRepo, customers *repository.CustomerRepo, staff *repository.StaffRepo, bcryptCost int) *StaffHandler {
    if engine == nil || orders == nil || cancels == nil || customers == nil || staff == nil {
        panic("nil dependency passed to NewStaffHandler")
    }
    return &StaffHandler{Engine: engine, Orders: orders, Cancels: cancels, Customers: customers, Staff: staff, BcryptCost: bcryptCost}
}

type saleLineReq struct {
    BookID   uint64 `json:"book_id"`
    Quantity int    `json:"quantity"`
}
type saleReq struct {
    CustomerID uint64        `json:"customer_id"`
    Lines      []saleLineReq `json:"lines"`
}
type cancelReq struct {
    Reason string `json:"reason"`
}
type customerCreateReq struct {
    Name     string `json:"name"`
    Email    string `json:"email"`
    Password string `json:"password"`
    Phone    string `json:"phone"`
    Address  string `json:"address"`
}

// validate normalizes in place and reports the first problem.  Walk-in
// customers get the same account shape as self-registered ones, so
// name, email and a password the customer can later log in with are
// all required.
func (r *customerCreateReq) validate() string {
    r.Name = strings.TrimSpace(r.Name)
    r.Email = strings.ToLower(strings.TrimSpace(r.Email))
    switch {
    case r.Name == "" || r.Email == "" || r.Password == "":
        return "name/email/password required"
    case len(r.Password) < 6:
        return "password must be at least 6 characters"
    }
    return ""
}

// loadStaff resolves the authenticated staff member from context.
func (h *StaffHandler) loadStaff(ctx context.Context, c echo.Context) (model.Staff, error) {
    uid, err := getUserID(c)
    if err != nil {
        return model.Staff{}, err
    }
    return h.Staff.GetByID(ctx, uid)
}

// CreateSale handles POST /v1/staff/orders.  The sale completes
// immediately: stock is decremented and the order lands in the
// completed status with the staff member recorded on it.
func (h *StaffHandler) CreateSale(c echo.Context) error {
    var req saleReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.CustomerID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "customer_id is required"})
    }
    if len(req.Lines) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "lines is required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    staff, err := h.loadStaff(ctx, c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    cust, err := h.Customers.GetByID(ctx, req.CustomerID)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "customer not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }

    lines := make([]service.RequestedLine, 0, len(req.Lines))
    for _, l := range req.Lines {
        lines = append(lines, service.RequestedLine{BookID: l.BookID, Quantity: l.Quantity})
    }
    order, err := h.Engine.CreateOrder(ctx, service.CreateOrderRequest{
        Customer: cust,
        Staff:    &staff,
        Lines:    lines,
        Channel:  model.ChannelInPerson,
    })
    if err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusCreated, order)
}

// ListOrders handles GET /v1/staff/orders with ?page= and ?per_page=
// pagination.  Each order carries its cancellation facts from the
// ledger.
func (h *StaffHandler) ListOrders(c echo.Context) error {
    page, perPage := 1, 20
    if s := c.QueryParam("page"); s != "" {
        if n, err := strconv.Atoi(s); err == nil && n > 0 {
            page = n
        }
    }
    if s := c.QueryParam("per_page"); s != "" {
        if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 100 {
            perPage = n
        }
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    orders, total, err := h.Orders.List(ctx, page, perPage)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    items, err := annotateOrders(ctx, orders, h.Cancels, h.Engine)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "orders":   items,
        "page":     page,
        "per_page": perPage,
        "total":    total,
    })
}

// GetOrder handles GET /v1/staff/orders/:id.  When the order is
// cancelled the ledger entry is included in the response.
func (h *StaffHandler) GetOrder(c echo.Context) error {
    id, ok := idParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    o, err := h.Orders.GetByID(ctx, id)
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

// CancelOrder handles POST /v1/staff/orders/:id/cancel.  Staff cancel
// on behalf of customers inside the same time window customers get.
func (h *StaffHandler) CancelOrder(c echo.Context) error {
    id, ok := idParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
    }
    var req cancelReq
    _ = c.Bind(&req)
    reason := strings.TrimSpace(req.Reason)
    if reason == "" {
        reason = "Cancelled at the counter"
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    staff, err := h.loadStaff(ctx, c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    res, err := h.Engine.CancelOrder(ctx, id, staff.ID, staff.Name, reason)
    if err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "cancellation":   newCancellationView(res.Record),
        "restored_lines": res.RestoredLines,
        "skipped_books":  res.SkippedBooks,
    })
}

// CreateCustomer handles POST /v1/staff/customers.  A walk-in buyer
// gets a full customer account so the counter sale has a customer_id
// to point at; the customer can log in online with it later.
func (h *StaffHandler) CreateCustomer(c echo.Context) error {
    var req customerCreateReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if msg := req.validate(); msg != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    id, err := h.Customers.Create(ctx, req.Name, req.Email, req.Password, req.Phone, req.Address, h.BcryptCost)
    if err != nil {
        if err == repository.ErrEmailExists {
            return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create account failed"})
    }
    cust, err := h.Customers.GetByID(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusCreated, newCustomerView(cust))
}

// ListCustomers handles GET /v1/staff/customers with an optional ?q=
// name or email filter, so the counter can look up the account for a
// returning customer.
func (h *StaffHandler) ListCustomers(c echo.Context) error {
    limit := 20
    if s := c.QueryParam("limit"); s != "" {
        if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 100 {
            limit = n
        }
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    accounts, err := h.Customers.Search(ctx, c.QueryParam("q"), limit)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    views := make([]customerView, 0, len(accounts))
    for _, cu := range accounts {
        views = append(views, newCustomerView(cu))
    }
    return c.JSON(http.StatusOK, echo.Map{"customers": views})
}
