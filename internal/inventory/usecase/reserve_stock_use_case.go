package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"stockroom/internal/domain"
	"stockroom/internal/dto"
	apperrors "stockroom/internal/errors"
)

type ReservationService interface {
	Reserve(ctx context.Context, cmd dto.ReserveCommand) (*dto.ReserveResult, error)
}

// ReserveStockUseCase validates reservation input before it touches
// the ledger and retries the transaction on InnoDB deadlocks.
type ReserveStockUseCase struct {
	reservationSvc   ReservationService
	logger           *zap.Logger
	maxRetryAttempts int
}

func NewReserveStockUseCase(reservationSvc ReservationService, logger *zap.Logger, maxRetryAttempts int) *ReserveStockUseCase {
	return &ReserveStockUseCase{
		reservationSvc:   reservationSvc,
		logger:           logger,
		maxRetryAttempts: maxRetryAttempts,
	}
}

func (uc *ReserveStockUseCase) Reserve(ctx context.Context, cmd dto.ReserveCommand) (*dto.ReserveResult, error) {
	uc.logger.Info("reserve started",
		zap.String("productSku", cmd.ProductSKU),
		zap.String("variantSku", cmd.VariantSKU),
		zap.Int("quantity", cmd.Quantity),
		zap.String("userId", cmd.UserID),
		zap.String("source", cmd.Source))

	if err := validateReserveCommand(cmd); err != nil {
		return nil, err
	}

	return uc.reserveWithRetry(ctx, cmd)
}

func validateReserveCommand(cmd dto.ReserveCommand) error {
	var details []apperrors.ValidationDetail

	if cmd.ProductSKU == "" {
		details = append(details, apperrors.ValidationDetail{
			Field:   "productSku",
			Message: "productSku is required",
		})
	}

	if cmd.Quantity <= 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "quantity",
			Message: "quantity must be a positive integer",
		})
	}

	if cmd.UserID == "" {
		details = append(details, apperrors.ValidationDetail{
			Field:   "userId",
			Message: "userId is required",
		})
	}

	if !domain.IsValidSource(domain.ReservationSource(cmd.Source)) {
		details = append(details, apperrors.ValidationDetail{
			Field:   "source",
			Message: "source must be one of cart, checkout, order, admin",
		})
	}

	if cmd.TTLMinutes < 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "ttlMinutes",
			Message: "ttlMinutes must not be negative",
		})
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}

	return nil
}

func (uc *ReserveStockUseCase) reserveWithRetry(ctx context.Context, cmd dto.ReserveCommand) (*dto.ReserveResult, error) {
	maxAttempts := uc.maxRetryAttempts
	// Backoff intervals: attempt 1 (0ms), attempt 2 (100ms), attempt 3 (200ms), etc.
	backoffs := []time.Duration{0, 100 * time.Millisecond, 200 * time.Millisecond}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := uc.reservationSvc.Reserve(ctx, cmd)
		if err == nil {
			return result, nil
		}

		if isDeadlockError(err) {
			if attempt < maxAttempts {
				base := backoffs[len(backoffs)-1]
				if attempt-1 < len(backoffs) {
					base = backoffs[attempt-1]
				}
				// Jitter: ±20% of the backoff base.
				jitter := time.Duration(float64(base) * (rand.Float64()*0.4 - 0.2))
				time.Sleep(base + jitter)
				uc.logger.Warn("deadlock detected, retrying",
					zap.Int("attempt", attempt),
					zap.Int("maxAttempts", maxAttempts),
					zap.String("productSku", cmd.ProductSKU))
				continue
			}
			break
		}

		return uc.failureResult(cmd, err)
	}

	return uc.failureResult(cmd, apperrors.NewDeadlockError("max retries exceeded"))
}

// failureResult converts an unexpected error into a failure result.
// Errors never reach the caller from the reserve path; cart flows get a
// failure reason to show instead.
func (uc *ReserveStockUseCase) failureResult(cmd dto.ReserveCommand, err error) (*dto.ReserveResult, error) {
	uc.logger.Error("reservation failed", zap.String("productSku", cmd.ProductSKU), zap.Error(err))

	reason := fmt.Sprintf("internal error: %v", err)
	if _, ok := apperrors.IsDeadlockError(err); ok {
		reason = "internal error: too many concurrent updates, please retry"
	}

	return &dto.ReserveResult{
		Success:       false,
		FailureReason: reason,
	}, nil
}

func isDeadlockError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1213 || mysqlErr.Number == 1205
	}
	return false
}
