package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/bookstore-orders/internal/model"
)

// TrackingRepo stores the per-order tracking record and its append-only
// comment trail.  Comments live in their own table and are returned in
// insertion order.
type TrackingRepo struct {
    db *sql.DB
}

// NewTrackingRepo returns a TrackingRepo bound to the given database.
func NewTrackingRepo(db *sql.DB) *TrackingRepo { return &TrackingRepo{db: db} }

// Create inserts a tracking record together with its seed comments.
func (r *TrackingRepo) Create(ctx context.Context, t *model.TrackingRecord) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if _, err := tx.ExecContext(ctx,
        `INSERT INTO order_tracking (order_id, customer_id, customer_name, status, created_at, last_updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
        t.OrderID, t.CustomerID, t.CustomerName, t.Status, t.CreatedAt, t.LastUpdatedAt); err != nil {
        return err
    }
    for _, c := range t.Comments {
        if _, err := tx.ExecContext(ctx,
            `INSERT INTO tracking_comments (order_id, created_at, message, author) VALUES (?, ?, ?, ?)`,
            t.OrderID, c.Timestamp, c.Message, c.Author); err != nil {
            return err
        }
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// GetByOrderID loads the tracking record and all its comments.
// Returns ErrTrackingNotFound when no record exists for the order.
func (r *TrackingRepo) GetByOrderID(ctx context.Context, orderID uint64) (model.TrackingRecord, error) {
    var t model.TrackingRecord
    err := r.db.QueryRowContext(ctx,
        `SELECT order_id, customer_id, customer_name, status, created_at, last_updated_at
         FROM order_tracking WHERE order_id=?`, orderID).
        Scan(&t.OrderID, &t.CustomerID, &t.CustomerName, &t.Status, &t.CreatedAt, &t.LastUpdatedAt)
    if err == sql.ErrNoRows {
        return t, ErrTrackingNotFound
    }
    if err != nil {
        return t, err
    }
    rows, err := r.db.QueryContext(ctx,
        `SELECT created_at, message, author FROM tracking_comments WHERE order_id=? ORDER BY id`, orderID)
    if err != nil {
        return t, err
    }
    defer rows.Close()
    for rows.Next() {
        var c model.TrackingComment
        if err := rows.Scan(&c.Timestamp, &c.Message, &c.Author); err != nil {
            return t, err
        }
        t.Comments = append(t.Comments, c)
    }
    return t, rows.Err()
}

// UpdateStatus overwrites the tracking status and bumps the
// last-updated timestamp.
func (r *TrackingRepo) UpdateStatus(ctx context.Context, orderID uint64, status string, updatedAt time.Time) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE order_tracking SET status=?, last_updated_at=? WHERE order_id=?`,
        status, updatedAt, orderID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        // A no-op update still matches the row; zero rows means the
        // record is genuinely absent.
        var exists int
        if qerr := r.db.QueryRowContext(ctx,
            `SELECT 1 FROM order_tracking WHERE order_id=?`, orderID).Scan(&exists); qerr == sql.ErrNoRows {
            return ErrTrackingNotFound
        } else if qerr != nil {
            return qerr
        }
    }
    return nil
}

// AppendComment adds one entry to the comment trail.
func (r *TrackingRepo) AppendComment(ctx context.Context, orderID uint64, c model.TrackingComment) error {
    _, err := r.db.ExecContext(ctx,
        `INSERT INTO tracking_comments (order_id, created_at, message, author) VALUES (?, ?, ?, ?)`,
        orderID, c.Timestamp, c.Message, c.Author)
    return err
}
