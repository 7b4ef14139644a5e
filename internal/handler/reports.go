package handler

import (
    "context"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bookstore-orders/internal/repository"
)

// ReportHandler serves the staff sales reports.
type ReportHandler struct {
    Reports *repository.ReportRepo
}

func NewReportHandler(reports *repository.ReportRepo) *ReportHandler {
    if reports == nil {
        panic("nil repository passed to NewReportHandler")
    }
    return &ReportHandler{Reports: reports}
}

// parseRangeParam accepts either a date ("2006-01-02") or a full
// RFC3339 timestamp.
func parseRangeParam(s string) (time.Time, bool) {
    if t, err := time.Parse("2006-01-02", s); err == nil {
        return t.UTC(), true
    }
    if t, err := time.Parse(time.RFC3339, s); err == nil {
        return t.UTC(), true
    }
    return time.Time{}, false
}

// Sales handles GET /v1/staff/reports/sales?from=&to=&limit=. The
// range defaults to the last 30 days; limit caps the best-sellers
// list.
func (h *ReportHandler) Sales(c echo.Context) error {
    now := time.Now().UTC()
    from := now.AddDate(0, 0, -30)
    to := now

    if s := c.QueryParam("from"); s != "" {
        t, ok := parseRangeParam(s)
        if !ok {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from"})
        }
        from = t
    }
    if s := c.QueryParam("to"); s != "" {
        t, ok := parseRangeParam(s)
        if !ok {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid to"})
        }
        to = t
    }
    if !from.Before(to) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must precede to"})
    }
    limit := 5
    if s := c.QueryParam("limit"); s != "" {
        n, err := strconv.Atoi(s)
        if err != nil || n <= 0 || n > 50 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
        }
        limit = n
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    summary, err := h.Reports.SalesBetween(ctx, from, to)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    top, err := h.Reports.TopTitlesBetween(ctx, from, to, limit)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "summary":    summary,
        "top_titles": top,
    })
}
