package controller

import (
	"time"

	"stockroom/internal/dto"
)

type reserveRequest struct {
	ProductSKU string `json:"productSku"`
	VariantSKU string `json:"variantSku"`
	Quantity   int    `json:"quantity"`
	UserID     string `json:"userId"`
	Source     string `json:"source"`
	TTLMinutes int    `json:"ttlMinutes"`
}

type reserveResponse struct {
	TraceID            string     `json:"traceId"`
	Success            bool       `json:"success"`
	ReservationID      string     `json:"reservationId,omitempty"`
	RemainingAvailable int        `json:"remainingAvailable"`
	ExpiresAt          *time.Time `json:"expiresAt,omitempty"`
	FailureReason      string     `json:"failureReason,omitempty"`
	Timestamp          time.Time  `json:"timestamp"`
}

type releaseRequest struct {
	ReservationID     string `json:"reservationId"`
	QuantityToRelease int    `json:"quantityToRelease"`
	UserID            string `json:"userId"`
	Reason            string `json:"reason"`
}

type adjustRequest struct {
	ProductSKU  string `json:"productSku"`
	VariantSKU  string `json:"variantSku"`
	NewQuantity int    `json:"newQuantity"`
	Reason      string `json:"reason"`
	Actor       string `json:"actor"`
}

type adjustResponse struct {
	TraceID   string    `json:"traceId"`
	Available int       `json:"available"`
	Timestamp time.Time `json:"timestamp"`
}

type bulkCheckRequest struct {
	Items []dto.BulkCheckItem `json:"items"`
}

type bulkCheckResponse struct {
	Items []dto.StockStatus `json:"items"`
}

type movementsResponse struct {
	Movements []dto.MovementView `json:"movements"`
}

type lowStockResponse struct {
	Lines []dto.StockLineView `json:"lines"`
}

type expireResponse struct {
	Processed int `json:"processed"`
}
