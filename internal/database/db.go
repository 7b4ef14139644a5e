package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates the application tables when they do not exist yet.
// The UNIQUE key on cancellations.order_id is load-bearing: inserting a
// cancellation row is the atomic claim that prevents double-cancellation.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS books (
			id BIGINT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
			title VARCHAR(255) NOT NULL,
			author VARCHAR(255) NOT NULL,
			genre VARCHAR(100) NOT NULL DEFAULT '',
			isbn VARCHAR(32) NOT NULL DEFAULT '',
			year INT NOT NULL DEFAULT 0,
			unit_price DOUBLE NOT NULL,
			stock_quantity INT NOT NULL DEFAULT 0,
			description TEXT,
			image_ref VARCHAR(512) NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CHECK (stock_quantity >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS customers (
			id BIGINT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			phone VARCHAR(64) NOT NULL DEFAULT '',
			address VARCHAR(512) NOT NULL DEFAULT '',
			active TINYINT(1) NOT NULL DEFAULT 1,
			registered_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS staff (
			id BIGINT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(16) NOT NULL DEFAULT 'STAFF',
			active TINYINT(1) NOT NULL DEFAULT 1,
			registered_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id BIGINT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
			reference CHAR(36) NOT NULL UNIQUE,
			customer_id BIGINT UNSIGNED NOT NULL,
			customer_name VARCHAR(255) NOT NULL,
			customer_email VARCHAR(255) NOT NULL DEFAULT '',
			customer_phone VARCHAR(64) NOT NULL DEFAULT '',
			staff_id BIGINT UNSIGNED NULL,
			staff_name VARCHAR(255) NOT NULL DEFAULT '',
			subtotal DOUBLE NOT NULL,
			tax_amount DOUBLE NOT NULL,
			total DOUBLE NOT NULL,
			channel VARCHAR(16) NOT NULL,
			status VARCHAR(16) NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			KEY idx_orders_customer (customer_id),
			KEY idx_orders_created (created_at)
		)`,
		`CREATE TABLE IF NOT EXISTS order_lines (
			id BIGINT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
			order_id BIGINT UNSIGNED NOT NULL,
			book_id BIGINT UNSIGNED NOT NULL,
			title VARCHAR(255) NOT NULL,
			author VARCHAR(255) NOT NULL DEFAULT '',
			genre VARCHAR(100) NOT NULL DEFAULT '',
			isbn VARCHAR(32) NOT NULL DEFAULT '',
			quantity INT NOT NULL,
			unit_price DOUBLE NOT NULL,
			line_subtotal DOUBLE NOT NULL,
			KEY idx_lines_order (order_id)
		)`,
		`CREATE TABLE IF NOT EXISTS cancellations (
			id BIGINT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
			order_id BIGINT UNSIGNED NOT NULL UNIQUE,
			customer_id BIGINT UNSIGNED NOT NULL,
			customer_name VARCHAR(255) NOT NULL DEFAULT '',
			order_total DOUBLE NOT NULL,
			reason VARCHAR(512) NOT NULL DEFAULT '',
			cancelled_by_id BIGINT UNSIGNED NOT NULL,
			cancelled_by_name VARCHAR(255) NOT NULL DEFAULT '',
			cancelled_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			order_created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS order_tracking (
			order_id BIGINT UNSIGNED PRIMARY KEY,
			customer_id BIGINT UNSIGNED NOT NULL,
			customer_name VARCHAR(255) NOT NULL DEFAULT '',
			status VARCHAR(16) NOT NULL,
			created_at DATETIME NOT NULL,
			last_updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tracking_comments (
			id BIGINT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
			order_id BIGINT UNSIGNED NOT NULL,
			created_at DATETIME NOT NULL,
			message VARCHAR(1024) NOT NULL,
			author VARCHAR(255) NOT NULL,
			KEY idx_comments_order (order_id)
		)`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
