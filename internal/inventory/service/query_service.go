package service

import (
	"context"
	"fmt"

	"stockroom/internal/domain"
	"stockroom/internal/dto"
	apperrors "stockroom/internal/errors"

	"go.uber.org/zap"
)

type StockLineReader interface {
	FindByRef(ctx context.Context, ref domain.LineRef) (*domain.StockLine, error)
	FindByRefs(ctx context.Context, refs []domain.LineRef) ([]domain.StockLine, error)
	FindBelowReorderPoint(ctx context.Context, limit int) ([]domain.StockLine, error)
}

type MovementReader interface {
	FindByRef(ctx context.Context, ref domain.LineRef, limit int) ([]domain.StockMovement, error)
}

// StockLineCache is the read side of the availability cache.
type StockLineCache interface {
	Get(ctx context.Context, ref domain.LineRef) (*dto.StockLineView, bool)
	Set(ctx context.Context, ref domain.LineRef, view *dto.StockLineView)
}

// QueryService is the read-side facade over the ledger: availability
// checks, low-stock detection and bulk lookups for cart/order flows.
type QueryService struct {
	stockLines StockLineReader
	products   ProductRepository
	movements  MovementReader
	cache      StockLineCache
	logger     *zap.Logger
}

func NewQueryService(
	stockLines StockLineReader,
	products ProductRepository,
	movements MovementReader,
	cache StockLineCache,
	logger *zap.Logger,
) *QueryService {
	return &QueryService{
		stockLines: stockLines,
		products:   products,
		movements:  movements,
		cache:      cache,
		logger:     logger,
	}
}

// GetStockLine returns a zeroed view for lines that do not exist;
// absence means zero stock.
func (s *QueryService) GetStockLine(ctx context.Context, ref domain.LineRef) (*dto.StockLineView, error) {
	if s.cache != nil {
		if view, ok := s.cache.Get(ctx, ref); ok {
			return view, nil
		}
	}

	line, err := s.stockLines.FindByRef(ctx, ref)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			return &dto.StockLineView{ProductSKU: ref.ProductSKU, VariantSKU: ref.VariantSKU}, nil
		}
		return nil, err
	}

	view := stockLineView(*line)
	if s.cache != nil {
		s.cache.Set(ctx, ref, view)
	}
	return view, nil
}

// BulkCheck resolves every item; unresolvable items yield a zeroed
// out-of-stock status instead of an error, and the output always has
// the same length and order as the input.
func (s *QueryService) BulkCheck(ctx context.Context, items []dto.BulkCheckItem) ([]dto.StockStatus, error) {
	refs := make([]domain.LineRef, len(items))
	for i, item := range items {
		refs[i] = domain.NewLineRef(item.SKU, item.VariantSKU)
	}

	lines, err := s.stockLines.FindByRefs(ctx, refs)
	if err != nil {
		return nil, err
	}

	byRef := make(map[domain.LineRef]domain.StockLine, len(lines))
	for _, line := range lines {
		byRef[line.Ref] = line
	}

	statuses := make([]dto.StockStatus, len(items))
	for i, item := range items {
		status := dto.StockStatus{
			SKU:               item.SKU,
			VariantSKU:        item.VariantSKU,
			RequestedQuantity: item.RequestedQuantity,
		}
		if line, ok := byRef[refs[i]]; ok {
			status.QuantityAvailable = line.QuantityAvailable
			status.IsInStock = line.IsInStock()
			status.IsLowStock = line.IsLowStock()
			status.IsBelowMinimum = line.IsBelowMinimum()
		}
		statuses[i] = status
	}

	return statuses, nil
}

// ValidateForQuantity composes product existence, active status and
// availability into one result for cart/order flows.
func (s *QueryService) ValidateForQuantity(ctx context.Context, sku, variantSKU string, quantity int) (*dto.StockValidation, error) {
	product, err := s.products.FindBySKU(ctx, sku)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			return &dto.StockValidation{ErrorMessage: dto.FailureProductNotFound}, nil
		}
		return nil, err
	}

	if !product.IsSellable() {
		return &dto.StockValidation{Exists: true, ErrorMessage: dto.FailureProductInactive}, nil
	}

	view, err := s.GetStockLine(ctx, domain.NewLineRef(sku, variantSKU))
	if err != nil {
		return nil, err
	}

	validation := &dto.StockValidation{
		Exists:            true,
		Active:            true,
		AvailableQuantity: view.Available,
		Available:         quantity <= 0 || quantity <= view.Available,
	}
	if !validation.Available {
		validation.ErrorMessage = fmt.Sprintf("Only %d units available", view.Available)
	}

	return validation, nil
}

// Movements returns the audit trail for one line, newest first.
func (s *QueryService) Movements(ctx context.Context, ref domain.LineRef, limit int) ([]dto.MovementView, error) {
	movements, err := s.movements.FindByRef(ctx, ref, limit)
	if err != nil {
		return nil, err
	}

	views := make([]dto.MovementView, len(movements))
	for i, m := range movements {
		views[i] = dto.MovementView{
			MovementType:   string(m.MovementType),
			QuantityChange: m.QuantityChange,
			Reason:         m.Reason,
			CreatedAt:      m.CreatedAt,
		}
	}
	return views, nil
}

// LowStock lists lines at or below their reorder point.
func (s *QueryService) LowStock(ctx context.Context, limit int) ([]dto.StockLineView, error) {
	lines, err := s.stockLines.FindBelowReorderPoint(ctx, limit)
	if err != nil {
		return nil, err
	}

	views := make([]dto.StockLineView, len(lines))
	for i, line := range lines {
		views[i] = *stockLineView(line)
	}
	return views, nil
}

func stockLineView(line domain.StockLine) *dto.StockLineView {
	return &dto.StockLineView{
		ProductSKU:        line.Ref.ProductSKU,
		VariantSKU:        line.Ref.VariantSKU,
		Available:         line.QuantityAvailable,
		Reserved:          line.QuantityReserved,
		ReorderPoint:      line.ReorderPoint,
		MinimumStockLevel: line.MinimumStockLevel,
		LastUpdated:       line.LastUpdated,
	}
}
