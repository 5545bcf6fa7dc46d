package dto

import "time"

// Failure reasons carried on ReserveResult. Business failures are
// results, not errors, so cart flows can branch on them cheaply.
const (
	FailureProductNotFound   = "Product not found"
	FailureProductInactive   = "Product is not active"
	FailureInsufficientStock = "Unable to reserve stock"
)

type ReserveCommand struct {
	ProductSKU string
	VariantSKU string
	Quantity   int
	UserID     string
	Source     string
	TTLMinutes int // 0 means the configured default
}

type ReserveResult struct {
	Success            bool
	ReservationID      string
	RemainingAvailable int
	ExpiresAt          time.Time
	FailureReason      string
}

type ReleaseCommand struct {
	ReservationID     string
	QuantityToRelease int // 0 means the reservation's full quantity
	UserID            string
	Reason            string
}
