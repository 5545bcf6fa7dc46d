package testutil

import (
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/go-sql-driver/mysql"
)

// SetupTestDB opens the integration test database. Tests are skipped
// when a local MySQL with a 'stockroom_test' schema is not available.
func SetupTestDB(t *testing.T) *sql.DB {
	dsn := "root:@tcp(localhost:3306)/stockroom_test?parseTime=true"
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("test database not available: %v", err)
	}

	return db
}

func CleanupTestDB(t *testing.T, db *sql.DB) {
	if db == nil {
		return
	}

	tables := []string{"stock_movements", "reservations", "stock_lines", "products"}
	for _, table := range tables {
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}

	db.Close()
}

func SetupTestTables(t *testing.T, db *sql.DB) {
	createProductsTable := `
	CREATE TABLE IF NOT EXISTS products (
		id INT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		sku VARCHAR(64) NOT NULL UNIQUE,
		name VARCHAR(255) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'ACTIVE',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`

	createStockLinesTable := `
	CREATE TABLE IF NOT EXISTS stock_lines (
		id INT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		product_sku VARCHAR(64) NOT NULL,
		variant_sku VARCHAR(64) NOT NULL DEFAULT '',
		quantity_available INT NOT NULL DEFAULT 0,
		quantity_reserved INT NOT NULL DEFAULT 0,
		reorder_point INT NOT NULL DEFAULT 0,
		minimum_stock_level INT NOT NULL DEFAULT 0,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_line (product_sku, variant_sku)
	)`

	createReservationsTable := `
	CREATE TABLE IF NOT EXISTS reservations (
		id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		reservation_id CHAR(36) NOT NULL UNIQUE,
		product_sku VARCHAR(64) NOT NULL,
		variant_sku VARCHAR(64) NOT NULL DEFAULT '',
		quantity INT NOT NULL,
		user_id VARCHAR(64) NOT NULL,
		source VARCHAR(20) NOT NULL,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		reserved_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		INDEX idx_active_expiry (is_active, expires_at),
		INDEX idx_line (product_sku, variant_sku)
	)`

	createStockMovementsTable := `
	CREATE TABLE IF NOT EXISTS stock_movements (
		id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		product_sku VARCHAR(64) NOT NULL,
		variant_sku VARCHAR(64) NOT NULL DEFAULT '',
		movement_type VARCHAR(20) NOT NULL,
		quantity_change INT NOT NULL,
		reason VARCHAR(255) NOT NULL DEFAULT '',
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		INDEX idx_line_created (product_sku, variant_sku, created_at)
	)`

	tables := []struct {
		name  string
		query string
	}{
		{"products", createProductsTable},
		{"stock_lines", createStockLinesTable},
		{"reservations", createReservationsTable},
		{"stock_movements", createStockMovementsTable},
	}

	for _, tbl := range tables {
		if _, err := db.Exec(tbl.query); err != nil {
			t.Logf("failed to create table %s: %v", tbl.name, err)
		}
	}
}
