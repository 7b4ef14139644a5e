package model

import "time"

// CancellationRecord is the append-only proof that an order was
// cancelled.  Exactly one exists per cancelled order: the row's
// existence, not the order status, is the source of truth for "is this
// order cancelled".  Rows are inserted once and never updated.
type CancellationRecord struct {
    OrderID         uint64    // cancellations.order_id (unique)
    CustomerID      uint64    // cancellations.customer_id
    CustomerName    string    // cancellations.customer_name
    OrderTotal      float64   // cancellations.order_total
    Reason          string    // cancellations.reason
    CancelledByID   uint64    // cancellations.cancelled_by_id
    CancelledByName string    // cancellations.cancelled_by_name
    CancelledAt     time.Time // cancellations.cancelled_at
    OrderCreatedAt  time.Time // cancellations.order_created_at
}
