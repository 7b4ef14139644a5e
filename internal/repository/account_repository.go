package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/bookstore-orders/internal/model"
	"github.com/iliyamo/bookstore-orders/internal/utils"
)

// CustomerRepo persists shopper accounts.
type CustomerRepo struct{ DB *sql.DB }

func NewCustomerRepo(db *sql.DB) *CustomerRepo { return &CustomerRepo{DB: db} }

// Create inserts a customer and returns its ID. The password is hashed
// here so a plaintext value never crosses the repository boundary.
func (r *CustomerRepo) Create(ctx context.Context, name, email, password, phone, address string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO customers (name, email, password_hash, phone, address) VALUES (?,?,?,?,?)",
		name, email, hash, phone, address)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a customer by normalized email.
func (r *CustomerRepo) GetByEmail(ctx context.Context, email string) (model.Customer, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var c model.Customer
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,email,password_hash,phone,address,active,registered_at FROM customers WHERE email=? LIMIT 1",
		email).Scan(&c.ID, &c.Name, &c.Email, &c.PasswordHash, &c.Phone, &c.Address, &c.Active, &c.RegisteredAt)
	return c, err
}

// Search lists customers whose name or email contains q, newest
// first. An empty q lists everyone up to limit; the staff counter uses
// this to find the account for a walk-in sale.
func (r *CustomerRepo) Search(ctx context.Context, q string, limit int) ([]model.Customer, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	like := "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id,name,email,password_hash,phone,address,active,registered_at
		 FROM customers WHERE LOWER(name) LIKE ? OR email LIKE ?
		 ORDER BY id DESC LIMIT ?`, like, like, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Customer
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.PasswordHash, &c.Phone, &c.Address, &c.Active, &c.RegisteredAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetByID fetches a customer by id.
func (r *CustomerRepo) GetByID(ctx context.Context, id uint64) (model.Customer, error) {
	var c model.Customer
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,email,password_hash,phone,address,active,registered_at FROM customers WHERE id=? LIMIT 1",
		id).Scan(&c.ID, &c.Name, &c.Email, &c.PasswordHash, &c.Phone, &c.Address, &c.Active, &c.RegisteredAt)
	return c, err
}

// StaffRepo persists employee accounts.
type StaffRepo struct{ DB *sql.DB }

func NewStaffRepo(db *sql.DB) *StaffRepo { return &StaffRepo{DB: db} }

// GetByEmail fetches a staff member by normalized email.
func (r *StaffRepo) GetByEmail(ctx context.Context, email string) (model.Staff, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var s model.Staff
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,email,password_hash,role,active,registered_at FROM staff WHERE email=? LIMIT 1",
		email).Scan(&s.ID, &s.Name, &s.Email, &s.PasswordHash, &s.Role, &s.Active, &s.RegisteredAt)
	return s, err
}

// GetByID fetches a staff member by id.
func (r *StaffRepo) GetByID(ctx context.Context, id uint64) (model.Staff, error) {
	var s model.Staff
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,email,password_hash,role,active,registered_at FROM staff WHERE id=? LIMIT 1",
		id).Scan(&s.ID, &s.Name, &s.Email, &s.PasswordHash, &s.Role, &s.Active, &s.RegisteredAt)
	return s, err
}

// Create inserts a staff account with the given role and returns its
// ID. The password is hashed here, as with customers.
func (r *StaffRepo) Create(ctx context.Context, name, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO staff (name, email, password_hash, role) VALUES (?,?,?,?)",
		name, email, hash, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// List returns all staff accounts, newest first.
func (r *StaffRepo) List(ctx context.Context) ([]model.Staff, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,name,email,password_hash,role,active,registered_at FROM staff ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Staff
	for rows.Next() {
		var s model.Staff
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.PasswordHash, &s.Role, &s.Active, &s.RegisteredAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SetActive flips a staff account's active flag. Deactivation is how
// accounts are retired: login rejects inactive staff, so the row and
// its order history stay intact.
func (r *StaffRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE staff SET active=? WHERE id=?", active, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// MySQL reports 0 affected rows for a no-change update too, so
		// confirm the row is truly absent before failing.
		var exists int
		if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM staff WHERE id=?", id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrStaffNotFound
		}
	}
	return nil
}

// EnsureAdmin creates a default administrator account when the staff
// table is empty, mirroring first-run bootstrap. The provided password
// is hashed with the configured cost.
func (r *StaffRepo) EnsureAdmin(ctx context.Context, name, email, password string, cost int) error {
	var n int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM staff").Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO staff (name, email, password_hash, role) VALUES (?,?,?,'ADMIN')",
		name, strings.ToLower(strings.TrimSpace(email)), hash)
	return err
}
