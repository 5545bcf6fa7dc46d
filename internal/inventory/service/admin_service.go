package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stockroom/internal/domain"
	"stockroom/internal/dto"

	"go.uber.org/zap"
)

type LedgerAdjuster interface {
	AdjustStock(ctx context.Context, tx *sql.Tx, ref domain.LineRef, newQuantity int, reason string) (int, error)
}

// StockAdminService covers the operator paths: receiving stock and
// corrections. Unlike reservation flows these are rare and
// operator-driven, so an unknown product is surfaced as an error
// instead of being swallowed.
type StockAdminService struct {
	db        TransactionManager
	products  ProductRepository
	ledger    LedgerAdjuster
	cache     AvailabilityCache
	logger    *zap.Logger
	txTimeout time.Duration
}

func NewStockAdminService(
	db TransactionManager,
	products ProductRepository,
	ledger LedgerAdjuster,
	cache AvailabilityCache,
	logger *zap.Logger,
	txTimeout time.Duration,
) *StockAdminService {
	return &StockAdminService{
		db:        db,
		products:  products,
		ledger:    ledger,
		cache:     cache,
		logger:    logger,
		txTimeout: txTimeout,
	}
}

// AdjustStock sets the line's available quantity to an absolute value
// and returns the resulting availability. Fails with NotFoundError for
// an unknown product.
func (s *StockAdminService) AdjustStock(ctx context.Context, cmd dto.AdjustCommand) (int, error) {
	if _, err := s.products.FindBySKU(ctx, cmd.ProductSKU); err != nil {
		return 0, err
	}

	ref := domain.NewLineRef(cmd.ProductSKU, cmd.VariantSKU)

	reason := cmd.Reason
	if cmd.Actor != "" {
		reason = fmt.Sprintf("%s (by %s)", cmd.Reason, cmd.Actor)
	}

	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(txCtx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	available, err := s.ledger.AdjustStock(txCtx, tx, ref, cmd.NewQuantity, reason)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, ref)
	}

	s.logger.Info("stock adjusted",
		zap.String("ref", ref.String()),
		zap.Int("newQuantity", cmd.NewQuantity),
		zap.String("reason", reason))

	return available, nil
}
