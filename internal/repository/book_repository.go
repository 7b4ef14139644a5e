package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/iliyamo/bookstore-orders/internal/model"
)

// BookRepo provides catalog persistence plus the two stock mutators the
// order engine depends on.  DecrementStock is a conditional update: the
// row is only touched when enough copies remain, which makes it safe to
// call concurrently without a surrounding transaction.
type BookRepo struct {
    db *sql.DB
}

// NewBookRepo returns a BookRepo bound to the given database.
func NewBookRepo(db *sql.DB) *BookRepo { return &BookRepo{db: db} }

const bookColumns = `id, title, author, genre, isbn, year, unit_price, stock_quantity, description, image_ref, created_at`

func scanBook(row *sql.Row) (model.Book, error) {
    var b model.Book
    err := row.Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &b.ISBN, &b.Year,
        &b.UnitPrice, &b.StockQuantity, &b.Description, &b.ImageRef, &b.CreatedAt)
    if err == sql.ErrNoRows {
        return b, ErrBookNotFound
    }
    return b, err
}

// Create inserts a book and returns its generated ID.
func (r *BookRepo) Create(ctx context.Context, b *model.Book) (uint64, error) {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO books (title, author, genre, isbn, year, unit_price, stock_quantity, description, image_ref)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
        b.Title, b.Author, b.Genre, b.ISBN, b.Year, b.UnitPrice, b.StockQuantity, b.Description, b.ImageRef)
    if err != nil {
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    b.ID = uint64(id)
    return b.ID, nil
}

// Update overwrites the editable catalog fields of a book.  Stock is
// included because admins correct inventory counts through the same
// form; the order engine never calls Update.
func (r *BookRepo) Update(ctx context.Context, b *model.Book) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE books SET title=?, author=?, genre=?, isbn=?, year=?, unit_price=?, stock_quantity=?, description=?, image_ref=?
         WHERE id=?`,
        b.Title, b.Author, b.Genre, b.ISBN, b.Year, b.UnitPrice, b.StockQuantity, b.Description, b.ImageRef, b.ID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        // The update may also report zero rows when nothing changed;
        // confirm existence before reporting not found.
        if _, gerr := r.GetByID(ctx, b.ID); gerr != nil {
            return gerr
        }
    }
    return nil
}

// Delete removes a book from the catalog.  Orders keep their own
// snapshots, so historical records are unaffected.
func (r *BookRepo) Delete(ctx context.Context, id uint64) error {
    res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id=?`, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrBookNotFound
    }
    return nil
}

// GetByID fetches a single book.
func (r *BookRepo) GetByID(ctx context.Context, id uint64) (model.Book, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id=?`, id)
    return scanBook(row)
}

// List returns catalog entries, newest first.  When q is non-empty a
// case-insensitive substring match is applied over title, author,
// genre and isbn.  inStockOnly hides sold-out titles for the public
// catalog view.
func (r *BookRepo) List(ctx context.Context, q string, inStockOnly bool) ([]model.Book, error) {
    query := `SELECT ` + bookColumns + ` FROM books`
    var conds []string
    var args []interface{}
    if q != "" {
        like := "%" + q + "%"
        conds = append(conds, `(title LIKE ? OR author LIKE ? OR genre LIKE ? OR isbn LIKE ?)`)
        args = append(args, like, like, like, like)
    }
    if inStockOnly {
        conds = append(conds, `stock_quantity > 0`)
    }
    if len(conds) > 0 {
        query += ` WHERE ` + strings.Join(conds, " AND ")
    }
    query += ` ORDER BY created_at DESC, id DESC`
    rows, err := r.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var books []model.Book
    for rows.Next() {
        var b model.Book
        if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &b.ISBN, &b.Year,
            &b.UnitPrice, &b.StockQuantity, &b.Description, &b.ImageRef, &b.CreatedAt); err != nil {
            return nil, err
        }
        books = append(books, b)
    }
    return books, rows.Err()
}

// LowStock lists books whose stock has fallen below the threshold.
func (r *BookRepo) LowStock(ctx context.Context, threshold int) ([]model.Book, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+bookColumns+` FROM books WHERE stock_quantity < ? ORDER BY stock_quantity ASC`, threshold)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var books []model.Book
    for rows.Next() {
        var b model.Book
        if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &b.ISBN, &b.Year,
            &b.UnitPrice, &b.StockQuantity, &b.Description, &b.ImageRef, &b.CreatedAt); err != nil {
            return nil, err
        }
        books = append(books, b)
    }
    return books, rows.Err()
}

// DecrementStock atomically removes qty copies from a book's stock.
// The conditional WHERE clause means the statement either reserves the
// full quantity or does nothing: zero affected rows with an existing
// book signals insufficient stock, and a vanished book is reported as
// not found.
func (r *BookRepo) DecrementStock(ctx context.Context, id uint64, qty int) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE books SET stock_quantity = stock_quantity - ? WHERE id = ? AND stock_quantity >= ?`,
        qty, id, qty)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n > 0 {
        return nil
    }
    if _, gerr := r.GetByID(ctx, id); gerr != nil {
        return gerr
    }
    return ErrInsufficientStock
}

// IncrementStock returns qty copies to a book's stock.  Used by the
// cancellation restock pass and by the compensating rollback when a
// multi-line checkout fails partway.
func (r *BookRepo) IncrementStock(ctx context.Context, id uint64, qty int) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE books SET stock_quantity = stock_quantity + ? WHERE id = ?`, qty, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrBookNotFound
    }
    return nil
}
