package repository

import (
	"context"
	"database/sql"
	"fmt"

	"stockroom/internal/domain"
)

// MySQLMovementRepository is append-only. There are deliberately no
// update or delete statements here.
type MySQLMovementRepository struct {
	db *sql.DB
}

func NewMySQLMovementRepository(db *sql.DB) *MySQLMovementRepository {
	return &MySQLMovementRepository{db: db}
}

func (r *MySQLMovementRepository) Insert(ctx context.Context, tx *sql.Tx, m domain.StockMovement) (uint, error) {
	query := `
		INSERT INTO stock_movements
			(product_sku, variant_sku, movement_type, quantity_change, reason)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := tx.ExecContext(ctx, query,
		m.Ref.ProductSKU, m.Ref.VariantSKU,
		string(m.MovementType), m.QuantityChange, m.Reason,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting stock movement: %w", err)
	}

	lastInsertID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}

	return uint(lastInsertID), nil
}

// FindByRef returns movements for one stock line, newest first.
func (r *MySQLMovementRepository) FindByRef(ctx context.Context, ref domain.LineRef, limit int) ([]domain.StockMovement, error) {
	query := `
		SELECT id, product_sku, variant_sku, movement_type, quantity_change, reason, created_at
		FROM stock_movements
		WHERE product_sku = ? AND variant_sku = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, ref.ProductSKU, ref.VariantSKU, limit)
	if err != nil {
		return nil, fmt.Errorf("querying stock movements: %w", err)
	}
	defer rows.Close()

	var movements []domain.StockMovement
	for rows.Next() {
		var m domain.StockMovement
		err := rows.Scan(
			&m.ID, &m.Ref.ProductSKU, &m.Ref.VariantSKU,
			&m.MovementType, &m.QuantityChange, &m.Reason, &m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning stock movement row: %w", err)
		}
		movements = append(movements, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stock movement rows: %w", err)
	}

	return movements, nil
}
