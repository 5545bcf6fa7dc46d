package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"stockroom/internal/domain"
	"stockroom/internal/errors"
)

type MySQLStockLineRepository struct {
	db *sql.DB
}

func NewMySQLStockLineRepository(db *sql.DB) *MySQLStockLineRepository {
	return &MySQLStockLineRepository{db: db}
}

const stockLineColumns = `id, product_sku, variant_sku, quantity_available, quantity_reserved,
	       reorder_point, minimum_stock_level, updated_at`

func scanStockLine(row interface {
	Scan(dest ...interface{}) error
}) (*domain.StockLine, error) {
	var line domain.StockLine
	err := row.Scan(
		&line.ID, &line.Ref.ProductSKU, &line.Ref.VariantSKU,
		&line.QuantityAvailable, &line.QuantityReserved,
		&line.ReorderPoint, &line.MinimumStockLevel, &line.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *MySQLStockLineRepository) FindByRef(ctx context.Context, ref domain.LineRef) (*domain.StockLine, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM stock_lines
		WHERE product_sku = ? AND variant_sku = ?`, stockLineColumns)

	line, err := scanStockLine(r.db.QueryRowContext(ctx, query, ref.ProductSKU, ref.VariantSKU))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("stock line %s not found", ref))
	}
	if err != nil {
		return nil, fmt.Errorf("querying stock line: %w", err)
	}

	return line, nil
}

// FindByRefForUpdate locks the row for the remainder of the
// transaction. This lock is what serializes concurrent reservations on
// the same line.
func (r *MySQLStockLineRepository) FindByRefForUpdate(ctx context.Context, tx *sql.Tx, ref domain.LineRef) (*domain.StockLine, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM stock_lines
		WHERE product_sku = ? AND variant_sku = ?
		FOR UPDATE`, stockLineColumns)

	line, err := scanStockLine(tx.QueryRowContext(ctx, query, ref.ProductSKU, ref.VariantSKU))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("stock line %s not found", ref))
	}
	if err != nil {
		return nil, fmt.Errorf("querying stock line for update: %w", err)
	}

	return line, nil
}

func (r *MySQLStockLineRepository) FindByRefs(ctx context.Context, refs []domain.LineRef) ([]domain.StockLine, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	conditions := make([]string, len(refs))
	args := make([]interface{}, 0, len(refs)*2)
	for i, ref := range refs {
		conditions[i] = "(product_sku = ? AND variant_sku = ?)"
		args = append(args, ref.ProductSKU, ref.VariantSKU)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM stock_lines
		WHERE %s`, stockLineColumns, strings.Join(conditions, " OR "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying stock lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.StockLine
	for rows.Next() {
		line, err := scanStockLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning stock line row: %w", err)
		}
		lines = append(lines, *line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stock line rows: %w", err)
	}

	return lines, nil
}

// FindBelowReorderPoint lists lines needing replenishment, most
// depleted first.
func (r *MySQLStockLineRepository) FindBelowReorderPoint(ctx context.Context, limit int) ([]domain.StockLine, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM stock_lines
		WHERE quantity_available <= reorder_point
		ORDER BY quantity_available ASC
		LIMIT ?`, stockLineColumns)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying low stock lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.StockLine
	for rows.Next() {
		line, err := scanStockLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning stock line row: %w", err)
		}
		lines = append(lines, *line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stock line rows: %w", err)
	}

	return lines, nil
}

func (r *MySQLStockLineRepository) Insert(ctx context.Context, tx *sql.Tx, line domain.StockLine) (int, error) {
	query := `
		INSERT INTO stock_lines
			(product_sku, variant_sku, quantity_available, quantity_reserved,
			 reorder_point, minimum_stock_level)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := tx.ExecContext(ctx, query,
		line.Ref.ProductSKU, line.Ref.VariantSKU,
		line.QuantityAvailable, line.QuantityReserved,
		line.ReorderPoint, line.MinimumStockLevel,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting stock line: %w", err)
	}

	lastInsertID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}

	return int(lastInsertID), nil
}

func (r *MySQLStockLineRepository) UpdateQuantities(ctx context.Context, tx *sql.Tx, id int, available, reserved int) error {
	query := `UPDATE stock_lines SET quantity_available = ?, quantity_reserved = ? WHERE id = ?`

	result, err := tx.ExecContext(ctx, query, available, reserved, id)
	if err != nil {
		return fmt.Errorf("updating stock line quantities: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("stock line with id %d not found", id))
	}

	return nil
}
