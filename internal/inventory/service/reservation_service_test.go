package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stockroom/internal/domain"
	"stockroom/internal/dto"
	apperrors "stockroom/internal/errors"
)

// Mock implementations

type mockTransactionManager struct {
	BeginTxFunc func(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

func (m *mockTransactionManager) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return m.BeginTxFunc(ctx, opts)
}

type mockProductRepository struct {
	FindBySKUFunc func(ctx context.Context, sku string) (*domain.Product, error)
}

func (m *mockProductRepository) FindBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	return m.FindBySKUFunc(ctx, sku)
}

type mockReservationRepository struct {
	InsertFunc                             func(ctx context.Context, tx *sql.Tx, res domain.Reservation) (uint, error)
	FindActiveByReservationIDForUpdateFunc func(ctx context.Context, tx *sql.Tx, reservationID string) (*domain.Reservation, error)
	UpdateQuantityFunc                     func(ctx context.Context, tx *sql.Tx, id uint, quantity int) error
	DeactivateFunc                         func(ctx context.Context, tx *sql.Tx, id uint) error
	FindExpiredFunc                        func(ctx context.Context, now time.Time, limit int) ([]domain.Reservation, error)
}

func (m *mockReservationRepository) Insert(ctx context.Context, tx *sql.Tx, res domain.Reservation) (uint, error) {
	return m.InsertFunc(ctx, tx, res)
}

func (m *mockReservationRepository) FindActiveByReservationIDForUpdate(ctx context.Context, tx *sql.Tx, reservationID string) (*domain.Reservation, error) {
	return m.FindActiveByReservationIDForUpdateFunc(ctx, tx, reservationID)
}

func (m *mockReservationRepository) UpdateQuantity(ctx context.Context, tx *sql.Tx, id uint, quantity int) error {
	return m.UpdateQuantityFunc(ctx, tx, id, quantity)
}

func (m *mockReservationRepository) Deactivate(ctx context.Context, tx *sql.Tx, id uint) error {
	return m.DeactivateFunc(ctx, tx, id)
}

func (m *mockReservationRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]domain.Reservation, error) {
	return m.FindExpiredFunc(ctx, now, limit)
}

type mockLedger struct {
	ReserveOnLedgerFunc func(ctx context.Context, tx *sql.Tx, ref domain.LineRef, quantity int, userID string) (bool, int, error)
	ReleaseOnLedgerFunc func(ctx context.Context, tx *sql.Tx, ref domain.LineRef, quantity int, reason string) error
}

func (m *mockLedger) ReserveOnLedger(ctx context.Context, tx *sql.Tx, ref domain.LineRef, quantity int, userID string) (bool, int, error) {
	return m.ReserveOnLedgerFunc(ctx, tx, ref, quantity, userID)
}

func (m *mockLedger) ReleaseOnLedger(ctx context.Context, tx *sql.Tx, ref domain.LineRef, quantity int, reason string) error {
	return m.ReleaseOnLedgerFunc(ctx, tx, ref, quantity, reason)
}

func newTestReservationService(
	t *testing.T,
	txMgr TransactionManager,
	products ProductRepository,
	reservations ReservationRepository,
	ledger Ledger,
) *ReservationService {
	t.Helper()
	return NewReservationService(
		txMgr,
		products,
		reservations,
		ledger,
		nil, // no cache
		zap.NewNop(),
		5*time.Second,
		30,   // default TTL minutes
		1440, // max TTL minutes
		500,  // sweep batch size
	)
}

// failingTxManager trips the test if a transaction is opened.
func failingTxManager(t *testing.T) TransactionManager {
	t.Helper()
	return &mockTransactionManager{
		BeginTxFunc: func(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
			t.Fatal("transaction should not be started")
			return nil, nil
		},
	}
}

func TestReserve_ProductNotFound(t *testing.T) {
	products := &mockProductRepository{
		FindBySKUFunc: func(ctx context.Context, sku string) (*domain.Product, error) {
			return nil, apperrors.NewNotFoundError("product with sku MISSING not found")
		},
	}

	svc := newTestReservationService(t, failingTxManager(t), products, &mockReservationRepository{}, &mockLedger{})

	result, err := svc.Reserve(context.Background(), dto.ReserveCommand{
		ProductSKU: "MISSING",
		Quantity:   5,
		UserID:     "user-a",
		Source:     "cart",
	})

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, dto.FailureProductNotFound, result.FailureReason)
	assert.Empty(t, result.ReservationID)
}

func TestReserve_InactiveProduct(t *testing.T) {
	products := &mockProductRepository{
		FindBySKUFunc: func(ctx context.Context, sku string) (*domain.Product, error) {
			return &domain.Product{ID: 1, SKU: sku, Status: domain.ProductStatusDiscontinued}, nil
		},
	}

	svc := newTestReservationService(t, failingTxManager(t), products, &mockReservationRepository{}, &mockLedger{})

	result, err := svc.Reserve(context.Background(), dto.ReserveCommand{
		ProductSKU: "OLD-SKU",
		Quantity:   1,
		UserID:     "user-a",
		Source:     "cart",
	})

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, dto.FailureProductInactive, result.FailureReason)
}

func TestExpireReservations_NothingExpired(t *testing.T) {
	reservations := &mockReservationRepository{
		FindExpiredFunc: func(ctx context.Context, now time.Time, limit int) ([]domain.Reservation, error) {
			return nil, nil
		},
	}

	svc := newTestReservationService(t, failingTxManager(t), &mockProductRepository{}, reservations, &mockLedger{})

	processed, err := svc.ExpireReservations(context.Background(), time.Now().UTC())

	require.NoError(t, err)
	assert.Equal(t, 0, processed)
}
