// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderPlacedEvent is published when a sale is successfully created.
// It carries enough information for downstream consumers to log, notify
// or feed analytics without querying the primary database.
type OrderPlacedEvent struct {
    OrderID      uint64   `json:"order_id"`
    Reference    string   `json:"reference"`
    CustomerID   uint64   `json:"customer_id"`
    CustomerName string   `json:"customer_name"`
    Channel      string   `json:"channel"`
    Status       string   `json:"status"`
    Titles       []string `json:"titles"`
    Subtotal     float64  `json:"subtotal"`
    TaxAmount    float64  `json:"tax_amount"`
    Total        float64  `json:"total"`
    PlacedAt     string   `json:"placed_at"`
}

// OrderCancelledEvent is published when an order is cancelled inside
// the cancellation window.
type OrderCancelledEvent struct {
    OrderID         uint64  `json:"order_id"`
    Reference       string  `json:"reference"`
    CustomerID      uint64  `json:"customer_id"`
    CustomerName    string  `json:"customer_name"`
    OrderTotal      float64 `json:"order_total"`
    Reason          string  `json:"reason"`
    CancelledByName string  `json:"cancelled_by_name"`
    CancelledAt     string  `json:"cancelled_at"`
}
