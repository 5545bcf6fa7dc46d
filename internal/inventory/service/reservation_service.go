package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stockroom/internal/domain"
	"stockroom/internal/dto"
	apperrors "stockroom/internal/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TransactionManager interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

type ProductRepository interface {
	FindBySKU(ctx context.Context, sku string) (*domain.Product, error)
}

type ReservationRepository interface {
	Insert(ctx context.Context, tx *sql.Tx, res domain.Reservation) (uint, error)
	FindActiveByReservationIDForUpdate(ctx context.Context, tx *sql.Tx, reservationID string) (*domain.Reservation, error)
	UpdateQuantity(ctx context.Context, tx *sql.Tx, id uint, quantity int) error
	Deactivate(ctx context.Context, tx *sql.Tx, id uint) error
	FindExpired(ctx context.Context, now time.Time, limit int) ([]domain.Reservation, error)
}

type Ledger interface {
	ReserveOnLedger(ctx context.Context, tx *sql.Tx, ref domain.LineRef, quantity int, userID string) (bool, int, error)
	ReleaseOnLedger(ctx context.Context, tx *sql.Tx, ref domain.LineRef, quantity int, reason string) error
}

// AvailabilityCache invalidation hooks, satisfied by the Redis cache.
// A nil cache disables them.
type AvailabilityCache interface {
	Invalidate(ctx context.Context, ref domain.LineRef)
}

// ReservationService owns the reservation lifecycle. It is the only
// writer of reservation rows and of ledger deltas tied to them. Every
// write runs in one transaction: the ledger mutation, the reservation
// row, and the movement either all commit or none do.
type ReservationService struct {
	db             TransactionManager
	products       ProductRepository
	reservations   ReservationRepository
	ledger         Ledger
	cache          AvailabilityCache
	logger         *zap.Logger
	txTimeout      time.Duration
	defaultTTL     time.Duration
	maxTTL         time.Duration
	sweepBatchSize int
}

func NewReservationService(
	db TransactionManager,
	products ProductRepository,
	reservations ReservationRepository,
	ledger Ledger,
	cache AvailabilityCache,
	logger *zap.Logger,
	txTimeout time.Duration,
	defaultTTLMinutes int,
	maxTTLMinutes int,
	sweepBatchSize int,
) *ReservationService {
	return &ReservationService{
		db:             db,
		products:       products,
		reservations:   reservations,
		ledger:         ledger,
		cache:          cache,
		logger:         logger,
		txTimeout:      txTimeout,
		defaultTTL:     time.Duration(defaultTTLMinutes) * time.Minute,
		maxTTL:         time.Duration(maxTTLMinutes) * time.Minute,
		sweepBatchSize: sweepBatchSize,
	}
}

// Reserve creates a time-boxed hold. Business failures (unknown
// product, insufficient stock) come back as failure results, never
// errors. Infrastructure errors are returned as errors so the use
// case above can retry deadlocks; the transaction rollback guarantees
// no partial mutation survives them.
func (s *ReservationService) Reserve(ctx context.Context, cmd dto.ReserveCommand) (*dto.ReserveResult, error) {
	ref := domain.NewLineRef(cmd.ProductSKU, cmd.VariantSKU)

	product, err := s.products.FindBySKU(ctx, cmd.ProductSKU)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			return &dto.ReserveResult{Success: false, FailureReason: dto.FailureProductNotFound}, nil
		}
		return nil, err
	}

	if !product.IsSellable() {
		return &dto.ReserveResult{Success: false, FailureReason: dto.FailureProductInactive}, nil
	}

	ttl := time.Duration(cmd.TTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	if ttl > s.maxTTL {
		ttl = s.maxTTL
	}

	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(txCtx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return nil, err
	}
	// MySQL ignores the rollback once the transaction has committed.
	defer tx.Rollback()

	ok, remaining, err := s.ledger.ReserveOnLedger(txCtx, tx, ref, cmd.Quantity, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Warn("insufficient stock for reservation",
			zap.String("ref", ref.String()),
			zap.Int("requested", cmd.Quantity),
			zap.String("userId", cmd.UserID))
		return &dto.ReserveResult{Success: false, FailureReason: dto.FailureInsufficientStock}, nil
	}

	now := time.Now().UTC()
	reservation := domain.Reservation{
		ReservationID: uuid.New().String(),
		Ref:           ref,
		Quantity:      cmd.Quantity,
		UserID:        cmd.UserID,
		Source:        domain.ReservationSource(cmd.Source),
		IsActive:      true,
		ReservedAt:    now,
		ExpiresAt:     now.Add(ttl),
	}

	if _, err := s.reservations.Insert(txCtx, tx, reservation); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.invalidate(ctx, ref)

	s.logger.Info("reservation created",
		zap.String("reservationId", reservation.ReservationID),
		zap.String("ref", ref.String()),
		zap.Int("quantity", cmd.Quantity),
		zap.String("userId", cmd.UserID),
		zap.Time("expiresAt", reservation.ExpiresAt))

	return &dto.ReserveResult{
		Success:            true,
		ReservationID:      reservation.ReservationID,
		RemainingAvailable: remaining,
		ExpiresAt:          reservation.ExpiresAt,
	}, nil
}

// Release deactivates a reservation and returns its quantity to the
// available pool. Unknown or already-released reservations are safe
// no-ops; release runs in cancellation flows and must never fail the
// caller for business reasons.
func (s *ReservationService) Release(ctx context.Context, cmd dto.ReleaseCommand) error {
	reason := cmd.Reason
	if reason == "" {
		reason = fmt.Sprintf("Stock released for reservation %s", cmd.ReservationID)
	}

	released, err := s.releaseOne(ctx, cmd.ReservationID, cmd.QuantityToRelease, reason)
	if err != nil {
		return err
	}
	if released {
		s.logger.Info("reservation released",
			zap.String("reservationId", cmd.ReservationID),
			zap.String("userId", cmd.UserID))
	}
	return nil
}

// ExpireReservations sweeps active reservations whose expiry has
// passed and releases each one. This sweep is the only place expiry is
// enforced; an expired-but-unswept reservation still counts as
// reserved. Returns the number processed.
func (s *ReservationService) ExpireReservations(ctx context.Context, now time.Time) (int, error) {
	processed := 0

	for {
		expired, err := s.reservations.FindExpired(ctx, now, s.sweepBatchSize)
		if err != nil {
			return processed, err
		}
		if len(expired) == 0 {
			return processed, nil
		}

		releasedInBatch := 0
		for _, res := range expired {
			if ctx.Err() != nil {
				return processed, ctx.Err()
			}

			reason := fmt.Sprintf("Reservation %s expired", res.ReservationID)
			released, err := s.releaseOne(ctx, res.ReservationID, 0, reason)
			if err != nil {
				// One bad reservation must not poison the sweep.
				s.logger.Error("failed to expire reservation",
					zap.String("reservationId", res.ReservationID),
					zap.Error(err))
				continue
			}
			if released {
				releasedInBatch++
				processed++
			}
		}

		// Without progress the next fetch would return the same rows;
		// leave them for the next sweep instead of spinning.
		if len(expired) < s.sweepBatchSize || releasedInBatch == 0 {
			return processed, nil
		}
	}
}

// releaseOne releases a single reservation in its own transaction.
// quantity 0 means the reservation's full quantity; anything above the
// held quantity is clamped to it. A partial release keeps the
// reservation active holding the remainder, so the rest can still be
// released or swept at expiry. Returns false when there was nothing to
// release.
func (s *ReservationService) releaseOne(ctx context.Context, reservationID string, quantity int, reason string) (bool, error) {
	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(txCtx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := s.reservations.FindActiveByReservationIDForUpdate(txCtx, tx, reservationID)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			return false, nil
		}
		return false, err
	}

	if quantity <= 0 || quantity > res.Quantity {
		quantity = res.Quantity
	}

	if err := s.ledger.ReleaseOnLedger(txCtx, tx, res.Ref, quantity, reason); err != nil {
		return false, err
	}

	if remainder := res.Quantity - quantity; remainder > 0 {
		if err := s.reservations.UpdateQuantity(txCtx, tx, res.ID, remainder); err != nil {
			return false, err
		}
	} else if err := s.reservations.Deactivate(txCtx, tx, res.ID); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	s.invalidate(ctx, res.Ref)
	return true, nil
}

func (s *ReservationService) invalidate(ctx context.Context, ref domain.LineRef) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, ref)
	}
}
