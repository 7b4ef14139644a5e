// Package service implements the business rules of the store: the cart
// manager, the order engine and the tracking ledger.  Services operate
// over small storage interfaces so the rules can be exercised without a
// live database.  Expected failures are reported through the typed
// errors below, each carrying enough detail for the handler layer to
// name the offending entity in its response.
package service

import (
    "fmt"
    "strconv"
    "time"
)

// uintID renders a numeric identifier for error messages.
func uintID(id uint64) string { return strconv.FormatUint(id, 10) }

// NotFoundError reports that a referenced entity does not exist.
type NotFoundError struct {
    Entity string // "book", "order", "cart item"
    ID     string
}

func (e *NotFoundError) Error() string {
    return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// InsufficientStockError reports that a requested quantity exceeds the
// copies available for a specific book.
type InsufficientStockError struct {
    BookID    uint64
    Title     string
    Requested int
    Available int
}

func (e *InsufficientStockError) Error() string {
    return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
        e.Title, e.Requested, e.Available)
}

// InvalidArgumentError reports malformed or out-of-range input.
type InvalidArgumentError struct {
    Reason string
}

func (e *InvalidArgumentError) Error() string { return e.Reason }

// AlreadyCancelledError reports a second cancellation attempt on an
// order that already has a cancellation record.
type AlreadyCancelledError struct {
    OrderID uint64
}

func (e *AlreadyCancelledError) Error() string {
    return fmt.Sprintf("order %d is already cancelled", e.OrderID)
}

// WindowExpiredError reports a cancellation attempted at or past the
// end of the cancellation window.
type WindowExpiredError struct {
    OrderID uint64
    Window  time.Duration
}

func (e *WindowExpiredError) Error() string {
    return fmt.Sprintf("order %d can no longer be cancelled (window %s has passed)",
        e.OrderID, e.Window)
}
