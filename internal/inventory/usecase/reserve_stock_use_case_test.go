package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stockroom/internal/dto"
	apperrors "stockroom/internal/errors"
)

type mockReservationService struct {
	ReserveFunc func(ctx context.Context, cmd dto.ReserveCommand) (*dto.ReserveResult, error)
}

func (m *mockReservationService) Reserve(ctx context.Context, cmd dto.ReserveCommand) (*dto.ReserveResult, error) {
	return m.ReserveFunc(ctx, cmd)
}

func createDeadlockError() error {
	return &mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"}
}

func validCommand() dto.ReserveCommand {
	return dto.ReserveCommand{
		ProductSKU: "SKU-1",
		Quantity:   5,
		UserID:     "user-1",
		Source:     "cart",
	}
}

func TestReserve_ValidationFailures(t *testing.T) {
	calls := 0
	svc := &mockReservationService{
		ReserveFunc: func(ctx context.Context, cmd dto.ReserveCommand) (*dto.ReserveResult, error) {
			calls++
			return nil, nil
		},
	}
	uc := NewReserveStockUseCase(svc, zap.NewNop(), 3)

	cases := []struct {
		name   string
		mutate func(*dto.ReserveCommand)
		field  string
	}{
		{"missing product sku", func(c *dto.ReserveCommand) { c.ProductSKU = "" }, "productSku"},
		{"zero quantity", func(c *dto.ReserveCommand) { c.Quantity = 0 }, "quantity"},
		{"negative quantity", func(c *dto.ReserveCommand) { c.Quantity = -3 }, "quantity"},
		{"missing user id", func(c *dto.ReserveCommand) { c.UserID = "" }, "userId"},
		{"invalid source", func(c *dto.ReserveCommand) { c.Source = "warehouse" }, "source"},
		{"negative ttl", func(c *dto.ReserveCommand) { c.TTLMinutes = -1 }, "ttlMinutes"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd := validCommand()
			tc.mutate(&cmd)

			result, err := uc.Reserve(context.Background(), cmd)

			assert.Nil(t, result)
			validationErr, ok := apperrors.IsValidationError(err)
			require.True(t, ok, "expected a validation error, got %v", err)

			found := false
			for _, detail := range validationErr.Details {
				if detail.Field == tc.field {
					found = true
				}
			}
			assert.True(t, found, "expected a detail for field %s", tc.field)
		})
	}

	assert.Equal(t, 0, calls, "service must not be called for invalid input")
}

func TestReserve_SuccessPassesResultThrough(t *testing.T) {
	expires := time.Now().UTC().Add(30 * time.Minute)
	svc := &mockReservationService{
		ReserveFunc: func(ctx context.Context, cmd dto.ReserveCommand) (*dto.ReserveResult, error) {
			return &dto.ReserveResult{
				Success:            true,
				ReservationID:      "res-1",
				RemainingAvailable: 7,
				ExpiresAt:          expires,
			}, nil
		},
	}
	uc := NewReserveStockUseCase(svc, zap.NewNop(), 3)

	result, err := uc.Reserve(context.Background(), validCommand())

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "res-1", result.ReservationID)
	assert.Equal(t, 7, result.RemainingAvailable)
}

func TestReserve_RetriesDeadlockThenSucceeds(t *testing.T) {
	attempts := 0
	svc := &mockReservationService{
		ReserveFunc: func(ctx context.Context, cmd dto.ReserveCommand) (*dto.ReserveResult, error) {
			attempts++
			if attempts < 3 {
				return nil, createDeadlockError()
			}
			return &dto.ReserveResult{Success: true, ReservationID: "res-1"}, nil
		},
	}
	uc := NewReserveStockUseCase(svc, zap.NewNop(), 3)

	result, err := uc.Reserve(context.Background(), validCommand())

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, attempts)
}

func TestReserve_RetriesExhaustedYieldsFailureResult(t *testing.T) {
	attempts := 0
	svc := &mockReservationService{
		ReserveFunc: func(ctx context.Context, cmd dto.ReserveCommand) (*dto.ReserveResult, error) {
			attempts++
			return nil, createDeadlockError()
		},
	}
	uc := NewReserveStockUseCase(svc, zap.NewNop(), 3)

	result, err := uc.Reserve(context.Background(), validCommand())

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "internal error: too many concurrent updates, please retry", result.FailureReason)
	assert.Equal(t, 3, attempts)
}

func TestReserve_LockWaitTimeoutAlsoRetries(t *testing.T) {
	attempts := 0
	svc := &mockReservationService{
		ReserveFunc: func(ctx context.Context, cmd dto.ReserveCommand) (*dto.ReserveResult, error) {
			attempts++
			if attempts == 1 {
				return nil, &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"}
			}
			return &dto.ReserveResult{Success: true}, nil
		},
	}
	uc := NewReserveStockUseCase(svc, zap.NewNop(), 3)

	result, err := uc.Reserve(context.Background(), validCommand())

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, attempts)
}

func TestReserve_DeadlockErrorMapsToConcurrencyFailureReason(t *testing.T) {
	svc := &mockReservationService{
		ReserveFunc: func(ctx context.Context, cmd dto.ReserveCommand) (*dto.ReserveResult, error) {
			return nil, apperrors.NewDeadlockError("max retries exceeded")
		},
	}
	uc := NewReserveStockUseCase(svc, zap.NewNop(), 3)

	result, err := uc.Reserve(context.Background(), validCommand())

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "internal error: too many concurrent updates, please retry", result.FailureReason)
}

func TestReserve_NonDeadlockErrorYieldsFailureResultWithoutRetry(t *testing.T) {
	attempts := 0
	svc := &mockReservationService{
		ReserveFunc: func(ctx context.Context, cmd dto.ReserveCommand) (*dto.ReserveResult, error) {
			attempts++
			return nil, errors.New("connection refused")
		},
	}
	uc := NewReserveStockUseCase(svc, zap.NewNop(), 3)

	result, err := uc.Reserve(context.Background(), validCommand())

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "internal error: connection refused", result.FailureReason)
	assert.Equal(t, 1, attempts, "non-deadlock errors must not be retried")
}

func TestReserve_BusinessFailureResultIsNotRetried(t *testing.T) {
	attempts := 0
	svc := &mockReservationService{
		ReserveFunc: func(ctx context.Context, cmd dto.ReserveCommand) (*dto.ReserveResult, error) {
			attempts++
			return &dto.ReserveResult{Success: false, FailureReason: dto.FailureInsufficientStock}, nil
		},
	}
	uc := NewReserveStockUseCase(svc, zap.NewNop(), 3)

	result, err := uc.Reserve(context.Background(), validCommand())

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, dto.FailureInsufficientStock, result.FailureReason)
	assert.Equal(t, 1, attempts)
}
