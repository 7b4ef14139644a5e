package repository

import (
    "context"
    "database/sql"
    "time"
)

// SalesSummary aggregates orders over a date range for the staff
// reports view.  The money columns are gross: every order placed in
// the range contributes, cancelled ones included.  CancelledCount sits
// alongside so the report can show how much of the gross was given
// back.
type SalesSummary struct {
    From           time.Time `json:"from"`
    To             time.Time `json:"to"`
    OrderCount     int       `json:"order_count"`
    Subtotal       float64   `json:"subtotal"`
    TaxAmount      float64   `json:"tax_amount"`
    Total          float64   `json:"total"`
    OnlineCount    int       `json:"online_count"`
    InPersonCount  int       `json:"in_person_count"`
    CancelledCount int       `json:"cancelled_count"`
}

// TopTitle is one row of the best-sellers report.
type TopTitle struct {
    BookID   uint64  `json:"book_id"`
    Title    string  `json:"title"`
    Quantity int     `json:"quantity"`
    Revenue  float64 `json:"revenue"`
}

// ReportRepo runs read-only projections over orders.  It never mutates
// core state.
type ReportRepo struct {
    db *sql.DB
}

// NewReportRepo returns a ReportRepo bound to the given database.
func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{db: db} }

// SalesBetween aggregates order totals placed in [from, to].
func (r *ReportRepo) SalesBetween(ctx context.Context, from, to time.Time) (SalesSummary, error) {
    s := SalesSummary{From: from, To: to}
    err := r.db.QueryRowContext(ctx,
        `SELECT COUNT(*),
                COALESCE(SUM(subtotal), 0),
                COALESCE(SUM(tax_amount), 0),
                COALESCE(SUM(total), 0),
                COALESCE(SUM(channel = 'online'), 0),
                COALESCE(SUM(channel = 'in_person'), 0),
                COALESCE(SUM(status = 'cancelled'), 0)
         FROM orders WHERE created_at BETWEEN ? AND ?`, from, to).
        Scan(&s.OrderCount, &s.Subtotal, &s.TaxAmount, &s.Total,
            &s.OnlineCount, &s.InPersonCount, &s.CancelledCount)
    return s, err
}

// TopTitlesBetween returns the best-selling titles in [from, to] by
// quantity, capped at limit rows.
func (r *ReportRepo) TopTitlesBetween(ctx context.Context, from, to time.Time, limit int) ([]TopTitle, error) {
    if limit <= 0 {
        limit = 10
    }
    rows, err := r.db.QueryContext(ctx,
        `SELECT l.book_id, l.title, SUM(l.quantity), SUM(l.line_subtotal)
         FROM order_lines l
         JOIN orders o ON o.id = l.order_id
         WHERE o.created_at BETWEEN ? AND ?
         GROUP BY l.book_id, l.title
         ORDER BY SUM(l.quantity) DESC
         LIMIT ?`, from, to, limit)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var top []TopTitle
    for rows.Next() {
        var t TopTitle
        if err := rows.Scan(&t.BookID, &t.Title, &t.Quantity, &t.Revenue); err != nil {
            return nil, err
        }
        top = append(top, t)
    }
    return top, rows.Err()
}
