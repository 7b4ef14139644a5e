package service

import (
    "context"
    "time"

    "github.com/iliyamo/bookstore-orders/internal/model"
)

// BookStore is the slice of the catalog the order subsystem needs: a
// point read plus the two stock mutators.  DecrementStock must be
// atomic and conditional: it either reserves the full quantity or
// reports repository.ErrInsufficientStock, so concurrent checkouts
// cannot take the same copies twice.
type BookStore interface {
    GetByID(ctx context.Context, id uint64) (model.Book, error)
    DecrementStock(ctx context.Context, id uint64, qty int) error
    IncrementStock(ctx context.Context, id uint64, qty int) error
}

// OrderStore persists orders.  Status is the only field UpdateStatus
// may change.
type OrderStore interface {
    Create(ctx context.Context, o *model.Order) error
    GetByID(ctx context.Context, id uint64) (model.Order, error)
    UpdateStatus(ctx context.Context, orderID uint64, status string) error
}

// CancellationStore is the append-only cancellation ledger.  Create is
// the atomic claim: when a record for the order already exists it
// returns repository.ErrAlreadyCancelled and the caller must not
// restock.
type CancellationStore interface {
    Create(ctx context.Context, c *model.CancellationRecord) error
    Exists(ctx context.Context, orderID uint64) (bool, error)
}

// TrackingStore persists tracking records and their comment trails.
type TrackingStore interface {
    Create(ctx context.Context, t *model.TrackingRecord) error
    GetByOrderID(ctx context.Context, orderID uint64) (model.TrackingRecord, error)
    UpdateStatus(ctx context.Context, orderID uint64, status string, updatedAt time.Time) error
    AppendComment(ctx context.Context, orderID uint64, c model.TrackingComment) error
}

// CartStore holds per-customer cart state for the lifetime of the
// session.  Update must run fn as a critical section over the stored
// cart: fn receives the current items, returns the replacement, and
// no other write to the same cart may interleave between the two.  An
// error from fn aborts the update and is returned unchanged.
type CartStore interface {
    Load(ctx context.Context, customerID uint64) ([]model.CartItem, error)
    Update(ctx context.Context, customerID uint64, fn func(items []model.CartItem) ([]model.CartItem, error)) error
    Clear(ctx context.Context, customerID uint64) error
}

// EventPublisher pushes order lifecycle events to the message broker.
// Publishing is best-effort: the engine logs failures and continues,
// since the sale itself has already committed.
type EventPublisher interface {
    OrderPlaced(ctx context.Context, o model.Order) error
    OrderCancelled(ctx context.Context, o model.Order, rec model.CancellationRecord) error
}
