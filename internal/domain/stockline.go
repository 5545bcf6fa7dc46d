package domain

import "time"

// LineRef identifies a stock line. VariantSKU is empty for products
// tracked without variants.
type LineRef struct {
	ProductSKU string
	VariantSKU string
}

func NewLineRef(productSKU, variantSKU string) LineRef {
	return LineRef{ProductSKU: productSKU, VariantSKU: variantSKU}
}

func (r LineRef) String() string {
	if r.VariantSKU == "" {
		return r.ProductSKU
	}
	return r.ProductSKU + "/" + r.VariantSKU
}

type StockLine struct {
	ID                int
	Ref               LineRef
	QuantityAvailable int
	QuantityReserved  int
	ReorderPoint      int
	MinimumStockLevel int
	LastUpdated       time.Time
}

// CanReserve reports whether quantity units can be taken from the
// available pool. Zero and negative quantities are trivially satisfiable.
func (s StockLine) CanReserve(quantity int) bool {
	if quantity <= 0 {
		return true
	}
	return quantity <= s.QuantityAvailable
}

func (s StockLine) OnHand() int {
	return s.QuantityAvailable + s.QuantityReserved
}

func (s StockLine) IsInStock() bool {
	return s.QuantityAvailable > 0
}

func (s StockLine) IsLowStock() bool {
	return s.QuantityAvailable <= s.ReorderPoint
}

func (s StockLine) IsBelowMinimum() bool {
	return s.QuantityAvailable < s.MinimumStockLevel
}
