package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bookstore-orders/internal/model"
    "github.com/iliyamo/bookstore-orders/internal/repository"
    "github.com/iliyamo/bookstore-orders/internal/service"
)

// StaffTrackingHandler is the fulfilment board: the list of online
// orders still in flight, and the status updates staff push as they
// pack and ship.
type StaffTrackingHandler struct {
    Tracking *service.TrackingService
    Orders   *repository.OrderRepo
    Staff    *repository.StaffRepo
}

func NewStaffTrackingHandler(tracking *service.TrackingService, orders *repository.OrderRepo, staff *repository.StaffRepo) *StaffTrackingHandler {
    if tracking == nil || orders == nil || staff == nil {
        panic("nil dependency passed to NewStaffTrackingHandler")
    }
    return &StaffTrackingHandler{Tracking: tracking, Orders: orders, Staff: staff}
}

type advanceReq struct {
    Status  string `json:"status"`
    Comment string `json:"comment"`
}

// Board handles GET /v1/staff/tracking.  It lists every online order
// that has not reached a terminal status, with its tracking timeline.
func (h *StaffTrackingHandler) Board(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    orders, err := h.Orders.ListOpenOnline(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    type boardEntry struct {
        Order    model.Order          `json:"order"`
        Tracking model.TrackingRecord `json:"tracking"`
    }
    entries := make([]boardEntry, 0, len(orders))
    for _, o := range orders {
        t, err := h.Tracking.Get(ctx, o.ID)
        if err != nil {
            return writeServiceError(c, err)
        }
        entries = append(entries, boardEntry{Order: o, Tracking: t})
    }
    return c.JSON(http.StatusOK, echo.Map{"open_orders": entries})
}

// Advance handles POST /v1/staff/tracking/:id.  The body names the new
// status and an optional comment; the acting staff member is recorded
// as the comment author.
func (h *StaffTrackingHandler) Advance(c echo.Context) error {
    id, ok := idParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
    }
    var req advanceReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Status = strings.ToLower(strings.TrimSpace(req.Status))
    if req.Status == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    staff, err := h.Staff.GetByID(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    t, err := h.Tracking.AdvanceStatus(ctx, id, req.Status, strings.TrimSpace(req.Comment), staff.Name)
    if err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusOK, t)
}
