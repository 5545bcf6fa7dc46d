package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stockroom/internal/domain"
	"stockroom/internal/errors"
)

type MySQLReservationRepository struct {
	db *sql.DB
}

func NewMySQLReservationRepository(db *sql.DB) *MySQLReservationRepository {
	return &MySQLReservationRepository{db: db}
}

func (r *MySQLReservationRepository) Insert(ctx context.Context, tx *sql.Tx, res domain.Reservation) (uint, error) {
	query := `
		INSERT INTO reservations
			(reservation_id, product_sku, variant_sku, quantity, user_id, source,
			 is_active, reserved_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := tx.ExecContext(ctx, query,
		res.ReservationID, res.Ref.ProductSKU, res.Ref.VariantSKU,
		res.Quantity, res.UserID, string(res.Source),
		res.IsActive, res.ReservedAt, res.ExpiresAt,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting reservation: %w", err)
	}

	lastInsertID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}

	return uint(lastInsertID), nil
}

// FindActiveByReservationIDForUpdate locks the reservation row so the
// deactivation and the ledger release commit together exactly once.
func (r *MySQLReservationRepository) FindActiveByReservationIDForUpdate(ctx context.Context, tx *sql.Tx, reservationID string) (*domain.Reservation, error) {
	query := `
		SELECT id, reservation_id, product_sku, variant_sku, quantity, user_id,
		       source, is_active, reserved_at, expires_at
		FROM reservations
		WHERE reservation_id = ? AND is_active = 1
		FOR UPDATE
	`

	var res domain.Reservation
	err := tx.QueryRowContext(ctx, query, reservationID).Scan(
		&res.ID, &res.ReservationID, &res.Ref.ProductSKU, &res.Ref.VariantSKU,
		&res.Quantity, &res.UserID, &res.Source, &res.IsActive,
		&res.ReservedAt, &res.ExpiresAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("active reservation %s not found", reservationID))
	}
	if err != nil {
		return nil, fmt.Errorf("querying reservation for update: %w", err)
	}

	return &res, nil
}

// UpdateQuantity shrinks an active reservation's hold after a partial
// release.
func (r *MySQLReservationRepository) UpdateQuantity(ctx context.Context, tx *sql.Tx, id uint, quantity int) error {
	query := `UPDATE reservations SET quantity = ? WHERE id = ? AND is_active = 1`

	result, err := tx.ExecContext(ctx, query, quantity, id)
	if err != nil {
		return fmt.Errorf("updating reservation quantity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("active reservation with id %d not found", id))
	}

	return nil
}

func (r *MySQLReservationRepository) Deactivate(ctx context.Context, tx *sql.Tx, id uint) error {
	query := `UPDATE reservations SET is_active = 0 WHERE id = ? AND is_active = 1`

	result, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivating reservation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("active reservation with id %d not found", id))
	}

	return nil
}

// FindExpired returns active reservations whose expiry has passed,
// oldest first, capped at limit.
func (r *MySQLReservationRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]domain.Reservation, error) {
	query := `
		SELECT id, reservation_id, product_sku, variant_sku, quantity, user_id,
		       source, is_active, reserved_at, expires_at
		FROM reservations
		WHERE is_active = 1 AND expires_at < ?
		ORDER BY expires_at ASC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("querying expired reservations: %w", err)
	}
	defer rows.Close()

	var reservations []domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		err := rows.Scan(
			&res.ID, &res.ReservationID, &res.Ref.ProductSKU, &res.Ref.VariantSKU,
			&res.Quantity, &res.UserID, &res.Source, &res.IsActive,
			&res.ReservedAt, &res.ExpiresAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning reservation row: %w", err)
		}
		reservations = append(reservations, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reservation rows: %w", err)
	}

	return reservations, nil
}
