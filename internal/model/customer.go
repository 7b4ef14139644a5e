package model

import "time"

// Customer is a registered shopper.  The password hash is stored with
// bcrypt and never leaves the repository layer.
type Customer struct {
    ID           uint64    // customers.id
    Name         string    // customers.name
    Email        string    // customers.email
    PasswordHash string    // customers.password_hash
    Phone        string    // customers.phone
    Address      string    // customers.address
    Active       bool      // customers.active
    RegisteredAt time.Time // customers.registered_at
}

// Staff is an employee account.  Role is either ADMIN or STAFF; the
// distinction only matters for catalog mutation, which is admin-only.
type Staff struct {
    ID           uint64    // staff.id
    Name         string    // staff.name
    Email        string    // staff.email
    PasswordHash string    // staff.password_hash
    Role         string    // staff.role (ADMIN | STAFF)
    Active       bool      // staff.active
    RegisteredAt time.Time // staff.registered_at
}
