package migrations

import (
	"database/sql"
	"time"
)

// AutoMigrateOrders creates the orders table if it does not exist.
func AutoMigrateOrders(retries int, db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS orders (
			id INT AUTO_INCREMENT PRIMARY KEY,
			order_number VARCHAR(32) NOT NULL UNIQUE,
			customer_name VARCHAR(255) NOT NULL,
			order_type VARCHAR(20) NOT NULL,
			payment_method VARCHAR(20) NOT NULL,
			status VARCHAR(32) NOT NULL,
			total_amount DOUBLE NOT NULL,
			idempotent_key VARCHAR(255) UNIQUE,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);
	`
	return execWithRetries(db, query, retries)
}

// AutoMigrateOrderItems creates the order_items table if it does not exist.
func AutoMigrateOrderItems(retries int, db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS order_items (
			id INT AUTO_INCREMENT PRIMARY KEY,
			order_id INT NOT NULL,
			name VARCHAR(255) NOT NULL,
			size VARCHAR(10) NOT NULL DEFAULT '',
			quantity INT NOT NULL,
			unit_price DOUBLE NOT NULL,
			line_total DOUBLE NOT NULL,
			FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
		);
	`
	return execWithRetries(db, query, retries)
}

// AutoMigrateProducts creates the products table if it does not exist.
func AutoMigrateProducts(retries int, db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS products (
			id INT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			category VARCHAR(50) NOT NULL,
			price DOUBLE NOT NULL,
			size_options TEXT,
			stock INT NOT NULL,
			image VARCHAR(512) NOT NULL DEFAULT ''
		);
	`
	return execWithRetries(db, query, retries)
}

func execWithRetries(db *sql.DB, query string, retries int) error {
	_, err := db.Exec(query)
	if err != nil {
		for i := 0; i < retries; i++ {
			time.Sleep(1 * time.Second)
			_, err = db.Exec(query)
			if err == nil {
				break
			}
		}
	}
	return err
}
