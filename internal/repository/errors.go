// Package repository defines the sentinel errors shared across the
// individual repositories. Higher layers use these to distinguish
// failure scenarios without inspecting driver errors: for example the
// order engine maps ErrInsufficientStock to a user-facing message
// naming the short book, and ErrAlreadyCancelled to a 409 response.
package repository

import "errors"

// ErrBookNotFound is returned when a referenced book does not exist
// (or no longer exists). Callers decide whether this is fatal: order
// creation aborts, cancellation restock skips the line.
var ErrBookNotFound = errors.New("book not found")

// ErrOrderNotFound is returned when no order matches the requested
// identifier or reference.
var ErrOrderNotFound = errors.New("order not found")

// ErrInsufficientStock is returned by the conditional stock decrement
// when the book exists but holds fewer copies than requested.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrAlreadyCancelled is returned when a cancellation record already
// exists for the order. The unique key on cancellations.order_id makes
// the insert an atomic claim, so exactly one caller ever succeeds.
var ErrAlreadyCancelled = errors.New("order already cancelled")

// ErrEmailExists is returned when registering an account with an email
// that is already taken.
var ErrEmailExists = errors.New("email already exists")

// ErrStaffNotFound is returned when a staff account operation names an
// id with no matching row.
var ErrStaffNotFound = errors.New("staff account not found")

// ErrTrackingNotFound is returned when no tracking record exists for
// an order. The tracking service treats this as a cue to create one
// lazily rather than as a failure.
var ErrTrackingNotFound = errors.New("tracking record not found")
