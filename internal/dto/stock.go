package dto

import "time"

type StockLineView struct {
	ProductSKU        string    `json:"productSku"`
	VariantSKU        string    `json:"variantSku,omitempty"`
	Available         int       `json:"available"`
	Reserved          int       `json:"reserved"`
	ReorderPoint      int       `json:"reorderPoint"`
	MinimumStockLevel int       `json:"minimumStockLevel"`
	LastUpdated       time.Time `json:"lastUpdated"`
}

type BulkCheckItem struct {
	SKU               string `json:"sku"`
	VariantSKU        string `json:"variantSku,omitempty"`
	RequestedQuantity int    `json:"requestedQuantity"`
}

type StockStatus struct {
	SKU               string `json:"sku"`
	VariantSKU        string `json:"variantSku,omitempty"`
	RequestedQuantity int    `json:"requestedQuantity"`
	QuantityAvailable int    `json:"quantityAvailable"`
	IsInStock         bool   `json:"isInStock"`
	IsLowStock        bool   `json:"isLowStock"`
	IsBelowMinimum    bool   `json:"isBelowMinimum"`
}

type StockValidation struct {
	Exists            bool   `json:"exists"`
	Active            bool   `json:"active"`
	Available         bool   `json:"available"`
	AvailableQuantity int    `json:"availableQuantity"`
	ErrorMessage      string `json:"errorMessage,omitempty"`
}

type AdjustCommand struct {
	ProductSKU  string
	VariantSKU  string
	NewQuantity int
	Reason      string
	Actor       string
}

type MovementView struct {
	MovementType   string    `json:"movementType"`
	QuantityChange int       `json:"quantityChange"`
	Reason         string    `json:"reason"`
	CreatedAt      time.Time `json:"createdAt"`
}
