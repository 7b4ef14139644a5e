package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bookstore-orders/internal/repository"
)

// StaffAccountHandler manages employee accounts under /v1/admin.  The
// bootstrap admin creates the first accounts here; after that any
// admin can.  Accounts are never deleted, only deactivated, so orders
// keep pointing at the staff member who entered them.
type StaffAccountHandler struct {
    Staff      *repository.StaffRepo
    BcryptCost int
}

func NewStaffAccountHandler(staff *repository.StaffRepo, bcryptCost int) *StaffAccountHandler {
    if staff == nil {
        panic("nil repository passed to NewStaffAccountHandler")
    }
    return &StaffAccountHandler{Staff: staff, BcryptCost: bcryptCost}
}

type staffCreateReq struct {
    Name     string `json:"name"`
    Email    string `json:"email"`
    Password string `json:"password"`
    Role     string `json:"role"`
}

// validate normalizes the request in place and reports the first
// problem.  Role defaults to STAFF; only ADMIN and STAFF exist on the
// staff side.
func (r *staffCreateReq) validate() string {
    r.Name = strings.TrimSpace(r.Name)
    r.Email = strings.ToLower(strings.TrimSpace(r.Email))
    r.Role = strings.ToUpper(strings.TrimSpace(r.Role))
    if r.Role == "" {
        r.Role = "STAFF"
    }
    switch {
    case r.Name == "" || r.Email == "" || r.Password == "":
        return "name/email/password required"
    case len(r.Password) < 6:
        return "password must be at least 6 characters"
    case r.Role != "ADMIN" && r.Role != "STAFF":
        return "role must be ADMIN or STAFF"
    }
    return ""
}

type staffActiveReq struct {
    Active bool `json:"active"`
}

// Create handles POST /v1/admin/staff.
func (h *StaffAccountHandler) Create(c echo.Context) error {
    var req staffCreateReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if msg := req.validate(); msg != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    id, err := h.Staff.Create(ctx, req.Name, req.Email, req.Password, req.Role, h.BcryptCost)
    if err != nil {
        if err == repository.ErrEmailExists {
            return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create account failed"})
    }
    st, err := h.Staff.GetByID(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusCreated, newStaffView(st))
}

// List handles GET /v1/admin/staff.
func (h *StaffAccountHandler) List(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    accounts, err := h.Staff.List(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    views := make([]staffView, 0, len(accounts))
    for _, s := range accounts {
        views = append(views, newStaffView(s))
    }
    return c.JSON(http.StatusOK, echo.Map{"staff": views})
}

// SetActive handles PUT /v1/admin/staff/:id/active.  Admins cannot
// deactivate themselves; locking every admin out would leave the
// account surface unmanageable.
func (h *StaffAccountHandler) SetActive(c echo.Context) error {
    id, ok := idParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid staff id"})
    }
    var req staffActiveReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if uid, err := getUserID(c); err == nil && uid == id && !req.Active {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot deactivate your own account"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Staff.SetActive(ctx, id, req.Active); err != nil {
        if err == repository.ErrStaffNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "staff account not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    st, err := h.Staff.GetByID(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, newStaffView(st))
}
