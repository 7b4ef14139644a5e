package model

import "time"

// TrackingComment is one entry in an order's status history.  Comments
// are append-only and returned in insertion order.
type TrackingComment struct {
    Timestamp time.Time `json:"timestamp"`
    Message   string    `json:"message"`
    Author    string    `json:"author"`
}

// TrackingRecord follows an online order through fulfilment.  One
// record exists per online order; in-person sales are never tracked.
// The record is created eagerly when the order is placed, or lazily on
// first status update if it is somehow missing, seeded with the
// order's original creation time and a system "Order received"
// comment.
type TrackingRecord struct {
    OrderID       uint64            `json:"order_id"`
    CustomerID    uint64            `json:"customer_id"`
    CustomerName  string            `json:"customer_name"`
    Status        string            `json:"status"`
    CreatedAt     time.Time         `json:"created_at"`
    LastUpdatedAt time.Time         `json:"last_updated_at"`
    Comments      []TrackingComment `json:"comments"`
}
