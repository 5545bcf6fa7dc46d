package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineRef_String(t *testing.T) {
	assert.Equal(t, "SKU-1", NewLineRef("SKU-1", "").String())
	assert.Equal(t, "SKU-1/VAR-2", NewLineRef("SKU-1", "VAR-2").String())
}

func TestStockLine_CanReserve(t *testing.T) {
	line := StockLine{QuantityAvailable: 10}

	assert.True(t, line.CanReserve(10))
	assert.True(t, line.CanReserve(1))
	assert.False(t, line.CanReserve(11))
}

func TestStockLine_CanReserve_NonPositiveQuantities(t *testing.T) {
	line := StockLine{QuantityAvailable: 0}

	// Zero and negative requests are trivially satisfiable.
	assert.True(t, line.CanReserve(0))
	assert.True(t, line.CanReserve(-5))
	assert.False(t, line.CanReserve(1))
}

func TestStockLine_OnHand(t *testing.T) {
	line := StockLine{QuantityAvailable: 30, QuantityReserved: 20}

	assert.Equal(t, 50, line.OnHand())
}

func TestStockLine_StockFlags(t *testing.T) {
	line := StockLine{
		QuantityAvailable: 5,
		ReorderPoint:      5,
		MinimumStockLevel: 3,
	}

	assert.True(t, line.IsInStock())
	assert.True(t, line.IsLowStock())
	assert.False(t, line.IsBelowMinimum())

	line.QuantityAvailable = 2
	assert.True(t, line.IsBelowMinimum())

	line.QuantityAvailable = 0
	assert.False(t, line.IsInStock())
}
