package repository

import (
	"context"
	"database/sql"
	"fmt"

	"stockroom/internal/domain"
	"stockroom/internal/errors"
)

type MySQLProductRepository struct {
	db *sql.DB
}

func NewMySQLProductRepository(db *sql.DB) *MySQLProductRepository {
	return &MySQLProductRepository{db: db}
}

func (r *MySQLProductRepository) FindBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	query := `
		SELECT id, sku, name, status, created_at, updated_at
		FROM products
		WHERE sku = ?
	`

	var p domain.Product
	err := r.db.QueryRowContext(ctx, query, sku).Scan(
		&p.ID, &p.SKU, &p.Name, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("product with sku %s not found", sku))
	}
	if err != nil {
		return nil, fmt.Errorf("querying product by sku: %w", err)
	}

	return &p, nil
}
