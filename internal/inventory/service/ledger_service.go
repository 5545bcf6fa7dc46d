package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"stockroom/internal/domain"
	apperrors "stockroom/internal/errors"
)

type StockLineRepository interface {
	FindByRef(ctx context.Context, ref domain.LineRef) (*domain.StockLine, error)
	FindByRefForUpdate(ctx context.Context, tx *sql.Tx, ref domain.LineRef) (*domain.StockLine, error)
	Insert(ctx context.Context, tx *sql.Tx, line domain.StockLine) (int, error)
	UpdateQuantities(ctx context.Context, tx *sql.Tx, id int, available, reserved int) error
}

type MovementRepository interface {
	Insert(ctx context.Context, tx *sql.Tx, m domain.StockMovement) (uint, error)
}

// LedgerService holds the authoritative available/reserved counters and
// appends one movement per mutation. Mutating methods run inside a
// caller-owned transaction; the row lock taken by FindByRefForUpdate is
// what makes check-then-mutate atomic per stock line.
type LedgerService struct {
	stockLines StockLineRepository
	movements  MovementRepository
	logger     *zap.Logger
}

func NewLedgerService(stockLines StockLineRepository, movements MovementRepository, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		stockLines: stockLines,
		movements:  movements,
		logger:     logger,
	}
}

// AvailableQuantity returns 0 for lines that do not exist; absence
// means zero stock, not an error.
func (s *LedgerService) AvailableQuantity(ctx context.Context, ref domain.LineRef) (int, error) {
	line, err := s.stockLines.FindByRef(ctx, ref)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			return 0, nil
		}
		return 0, err
	}
	return line.QuantityAvailable, nil
}

func (s *LedgerService) IsStockAvailable(ctx context.Context, ref domain.LineRef, requested int) (bool, error) {
	if requested <= 0 {
		return true, nil
	}
	available, err := s.AvailableQuantity(ctx, ref)
	if err != nil {
		return false, err
	}
	return requested <= available, nil
}

// ReserveOnLedger atomically moves quantity from available to reserved.
// It returns false with no side effect when the line is missing or the
// available pool is short; remaining is the post-mutation availability.
func (s *LedgerService) ReserveOnLedger(ctx context.Context, tx *sql.Tx, ref domain.LineRef, quantity int, userID string) (ok bool, remaining int, err error) {
	line, err := s.stockLines.FindByRefForUpdate(ctx, tx, ref)
	if err != nil {
		if _, notFound := apperrors.IsNotFoundError(err); notFound {
			return false, 0, nil
		}
		return false, 0, err
	}

	if !line.CanReserve(quantity) {
		return false, line.QuantityAvailable, nil
	}

	newAvailable := line.QuantityAvailable - quantity
	newReserved := line.QuantityReserved + quantity
	if err := s.stockLines.UpdateQuantities(ctx, tx, line.ID, newAvailable, newReserved); err != nil {
		return false, 0, err
	}

	_, err = s.movements.Insert(ctx, tx, domain.StockMovement{
		Ref:            ref,
		MovementType:   domain.MovementReserved,
		QuantityChange: quantity,
		Reason:         fmt.Sprintf("Stock reserved for user %s", userID),
	})
	if err != nil {
		return false, 0, err
	}

	return true, newAvailable, nil
}

// ReleaseOnLedger moves quantity from reserved back to available.
// Reserved is floored at 0 so a double release cannot drive it
// negative. A missing line is a silent no-op; release runs in cleanup
// flows where the line may already be gone.
func (s *LedgerService) ReleaseOnLedger(ctx context.Context, tx *sql.Tx, ref domain.LineRef, quantity int, reason string) error {
	if quantity <= 0 {
		return nil
	}

	line, err := s.stockLines.FindByRefForUpdate(ctx, tx, ref)
	if err != nil {
		if _, notFound := apperrors.IsNotFoundError(err); notFound {
			s.logger.Warn("release on missing stock line ignored", zap.String("ref", ref.String()))
			return nil
		}
		return err
	}

	newReserved := line.QuantityReserved - quantity
	if newReserved < 0 {
		s.logger.Warn("release exceeds tracked reserved quantity",
			zap.String("ref", ref.String()),
			zap.Int("reserved", line.QuantityReserved),
			zap.Int("released", quantity))
		newReserved = 0
	}
	newAvailable := line.QuantityAvailable + quantity

	if err := s.stockLines.UpdateQuantities(ctx, tx, line.ID, newAvailable, newReserved); err != nil {
		return err
	}

	_, err = s.movements.Insert(ctx, tx, domain.StockMovement{
		Ref:            ref,
		MovementType:   domain.MovementReleased,
		QuantityChange: quantity,
		Reason:         reason,
	})
	return err
}

// AdjustStock sets the available quantity to an absolute value, floored
// at 0, and logs the delta as INCOMING (positive) or ADJUSTED. The
// stock line is created lazily on first adjustment. Callers must verify
// the product exists before invoking this.
func (s *LedgerService) AdjustStock(ctx context.Context, tx *sql.Tx, ref domain.LineRef, newQuantity int, reason string) (int, error) {
	if newQuantity < 0 {
		newQuantity = 0
	}

	line, err := s.stockLines.FindByRefForUpdate(ctx, tx, ref)
	if err != nil {
		if _, notFound := apperrors.IsNotFoundError(err); !notFound {
			return 0, err
		}
		id, insertErr := s.stockLines.Insert(ctx, tx, domain.StockLine{Ref: ref})
		if insertErr != nil {
			if !isDuplicateKeyError(insertErr) {
				return 0, insertErr
			}
			// A concurrent first adjustment created the line between
			// our locking read and the insert; lock its row instead.
			line, err = s.stockLines.FindByRefForUpdate(ctx, tx, ref)
			if err != nil {
				return 0, err
			}
		} else {
			line = &domain.StockLine{ID: id, Ref: ref}
		}
	}

	delta := newQuantity - line.QuantityAvailable
	if delta == 0 {
		return newQuantity, nil
	}

	if err := s.stockLines.UpdateQuantities(ctx, tx, line.ID, newQuantity, line.QuantityReserved); err != nil {
		return 0, err
	}

	movementType := domain.MovementAdjusted
	if delta > 0 {
		movementType = domain.MovementIncoming
	}

	_, err = s.movements.Insert(ctx, tx, domain.StockMovement{
		Ref:            ref,
		MovementType:   movementType,
		QuantityChange: delta,
		Reason:         reason,
	})
	if err != nil {
		return 0, err
	}

	return newQuantity, nil
}

func isDuplicateKeyError(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
