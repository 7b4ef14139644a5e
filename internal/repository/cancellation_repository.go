package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/iliyamo/bookstore-orders/internal/model"
)

// CancellationRepo stores the append-only cancellation ledger.  The
// order_id column carries a UNIQUE key, so Create doubles as the claim
// step of the cancellation protocol: when two callers race, MySQL
// rejects the second insert with a duplicate-key error and only the
// winner proceeds to restock.
type CancellationRepo struct {
    db *sql.DB
}

// NewCancellationRepo returns a CancellationRepo bound to the given database.
func NewCancellationRepo(db *sql.DB) *CancellationRepo { return &CancellationRepo{db: db} }

// Create inserts the cancellation record.  Returns ErrAlreadyCancelled
// when a record for the order already exists.
func (r *CancellationRepo) Create(ctx context.Context, c *model.CancellationRecord) error {
    _, err := r.db.ExecContext(ctx,
        `INSERT INTO cancellations (order_id, customer_id, customer_name, order_total, reason,
            cancelled_by_id, cancelled_by_name, cancelled_at, order_created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
        c.OrderID, c.CustomerID, c.CustomerName, c.OrderTotal, c.Reason,
        c.CancelledByID, c.CancelledByName, c.CancelledAt, c.OrderCreatedAt)
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return ErrAlreadyCancelled
        }
        return err
    }
    return nil
}

// GetByOrderID returns the cancellation record for an order.  Absence
// is an expected answer rather than a failure, so sql.ErrNoRows maps
// to found=false with a nil error.
func (r *CancellationRepo) GetByOrderID(ctx context.Context, orderID uint64) (model.CancellationRecord, bool, error) {
    var c model.CancellationRecord
    err := r.db.QueryRowContext(ctx,
        `SELECT order_id, customer_id, customer_name, order_total, reason,
            cancelled_by_id, cancelled_by_name, cancelled_at, order_created_at
         FROM cancellations WHERE order_id=?`, orderID).
        Scan(&c.OrderID, &c.CustomerID, &c.CustomerName, &c.OrderTotal, &c.Reason,
            &c.CancelledByID, &c.CancelledByName, &c.CancelledAt, &c.OrderCreatedAt)
    if err == sql.ErrNoRows {
        return c, false, nil
    }
    if err != nil {
        return c, false, err
    }
    return c, true, nil
}

// Exists reports whether the order has been cancelled.
func (r *CancellationRepo) Exists(ctx context.Context, orderID uint64) (bool, error) {
    _, found, err := r.GetByOrderID(ctx, orderID)
    return found, err
}
