package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/bookstore-orders/internal/model"
)

// OrderRepo persists orders and their embedded lines.  An order row
// plus its order_lines rows are written in a single transaction so a
// sale is never visible half-inserted.  Everything except status is
// immutable once written.
type OrderRepo struct {
    db *sql.DB
}

// NewOrderRepo returns an OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderColumns = `id, reference, customer_id, customer_name, customer_email, customer_phone,
    staff_id, staff_name, subtotal, tax_amount, total, channel, status, created_at`

// Create inserts the order and its lines.  The generated ID is
// populated on the passed order.  CreatedAt is supplied by the caller
// so the cancellation window is measured against the engine's clock.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
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

    res, err := tx.ExecContext(ctx,
        `INSERT INTO orders (reference, customer_id, customer_name, customer_email, customer_phone,
            staff_id, staff_name, subtotal, tax_amount, total, channel, status, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
        o.Reference, o.CustomerID, o.CustomerName, o.CustomerEmail, o.CustomerPhone,
        o.StaffID, o.StaffName, o.Subtotal, o.TaxAmount, o.Total, o.Channel, o.Status, o.CreatedAt)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    o.ID = uint64(id)

    stmt, err := tx.PrepareContext(ctx,
        `INSERT INTO order_lines (order_id, book_id, title, author, genre, isbn, quantity, unit_price, line_subtotal)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
    if err != nil {
        return err
    }
    defer stmt.Close()
    for _, l := range o.Lines {
        if _, err := stmt.ExecContext(ctx,
            o.ID, l.BookID, l.Title, l.Author, l.Genre, l.ISBN, l.Quantity, l.UnitPrice, l.LineSubtotal); err != nil {
            return err
        }
    }

    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

func (r *OrderRepo) loadLines(ctx context.Context, orderID uint64) ([]model.OrderLine, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT book_id, title, author, genre, isbn, quantity, unit_price, line_subtotal
         FROM order_lines WHERE order_id=? ORDER BY id`, orderID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var lines []model.OrderLine
    for rows.Next() {
        var l model.OrderLine
        if err := rows.Scan(&l.BookID, &l.Title, &l.Author, &l.Genre, &l.ISBN,
            &l.Quantity, &l.UnitPrice, &l.LineSubtotal); err != nil {
            return nil, err
        }
        lines = append(lines, l)
    }
    return lines, rows.Err()
}

func (r *OrderRepo) scanOrder(ctx context.Context, row *sql.Row) (model.Order, error) {
    var o model.Order
    var staffID sql.NullInt64
    err := row.Scan(&o.ID, &o.Reference, &o.CustomerID, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
        &staffID, &o.StaffName, &o.Subtotal, &o.TaxAmount, &o.Total, &o.Channel, &o.Status, &o.CreatedAt)
    if err == sql.ErrNoRows {
        return o, ErrOrderNotFound
    }
    if err != nil {
        return o, err
    }
    if staffID.Valid {
        v := uint64(staffID.Int64)
        o.StaffID = &v
    }
    o.Lines, err = r.loadLines(ctx, o.ID)
    return o, err
}

// GetByID fetches a single order with its lines.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (model.Order, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=?`, id)
    return r.scanOrder(ctx, row)
}

// GetByReference fetches an order by its public reference string.
func (r *OrderRepo) GetByReference(ctx context.Context, ref string) (model.Order, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE reference=?`, ref)
    return r.scanOrder(ctx, row)
}

// List returns a page of orders, newest first, along with the total
// number of orders for pagination.
func (r *OrderRepo) List(ctx context.Context, page, perPage int) ([]model.Order, int, error) {
    if page < 1 {
        page = 1
    }
    var total int
    if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&total); err != nil {
        return nil, 0, err
    }
    offset := (page - 1) * perPage
    return r.queryOrders(ctx,
        `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
        total, perPage, offset)
}

// ListByCustomer returns all orders placed by one customer, newest first.
func (r *OrderRepo) ListByCustomer(ctx context.Context, customerID uint64) ([]model.Order, error) {
    orders, _, err := r.queryOrders(ctx,
        `SELECT `+orderColumns+` FROM orders WHERE customer_id=? ORDER BY created_at DESC, id DESC`,
        0, customerID)
    return orders, err
}

// ListOpenOnline returns online orders still moving through fulfilment
// (pending, processing or shipped), newest first.  Used by the staff
// tracking board.
func (r *OrderRepo) ListOpenOnline(ctx context.Context) ([]model.Order, error) {
    orders, _, err := r.queryOrders(ctx,
        `SELECT `+orderColumns+` FROM orders
         WHERE channel=? AND status IN (?, ?, ?)
         ORDER BY created_at DESC, id DESC`,
        0, model.ChannelOnline, model.StatusPending, model.StatusProcessing, model.StatusShipped)
    return orders, err
}

func (r *OrderRepo) queryOrders(ctx context.Context, query string, total int, args ...interface{}) ([]model.Order, int, error) {
    rows, err := r.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()
    var orders []model.Order
    for rows.Next() {
        var o model.Order
        var staffID sql.NullInt64
        if err := rows.Scan(&o.ID, &o.Reference, &o.CustomerID, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
            &staffID, &o.StaffName, &o.Subtotal, &o.TaxAmount, &o.Total, &o.Channel, &o.Status, &o.CreatedAt); err != nil {
            return nil, 0, err
        }
        if staffID.Valid {
            v := uint64(staffID.Int64)
            o.StaffID = &v
        }
        orders = append(orders, o)
    }
    if err := rows.Err(); err != nil {
        return nil, 0, err
    }
    // Lines are loaded after the order cursor is drained to keep a
    // single connection busy at a time.
    for i := range orders {
        lines, err := r.loadLines(ctx, orders[i].ID)
        if err != nil {
            return nil, 0, err
        }
        orders[i].Lines = lines
    }
    return orders, total, nil
}

// UpdateStatus overwrites the status of an order.  Status is the only
// mutable order field.
func (r *OrderRepo) UpdateStatus(ctx context.Context, orderID uint64, status string) error {
    res, err := r.db.ExecContext(ctx, `UPDATE orders SET status=? WHERE id=?`, status, orderID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        if _, gerr := r.GetByID(ctx, orderID); gerr != nil {
            return gerr
        }
    }
    return nil
}
