package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"stockroom/internal/domain"
	"stockroom/internal/dto"
	apperrors "stockroom/internal/errors"
)

const (
	maxBulkCheckItems   = 100
	defaultMovementsCap = 50
	maxMovementsCap     = 500
)

type ReserveUseCase interface {
	Reserve(ctx context.Context, cmd dto.ReserveCommand) (*dto.ReserveResult, error)
}

type ReservationReleaser interface {
	Release(ctx context.Context, cmd dto.ReleaseCommand) error
	ExpireReservations(ctx context.Context, now time.Time) (int, error)
}

type StockAdmin interface {
	AdjustStock(ctx context.Context, cmd dto.AdjustCommand) (int, error)
}

type StockQueries interface {
	GetStockLine(ctx context.Context, ref domain.LineRef) (*dto.StockLineView, error)
	BulkCheck(ctx context.Context, items []dto.BulkCheckItem) ([]dto.StockStatus, error)
	ValidateForQuantity(ctx context.Context, sku, variantSKU string, quantity int) (*dto.StockValidation, error)
	Movements(ctx context.Context, ref domain.LineRef, limit int) ([]dto.MovementView, error)
	LowStock(ctx context.Context, limit int) ([]dto.StockLineView, error)
}

type StockController struct {
	reserveUC ReserveUseCase
	releaser  ReservationReleaser
	admin     StockAdmin
	queries   StockQueries
	logger    *zap.Logger
}

func NewStockController(
	reserveUC ReserveUseCase,
	releaser ReservationReleaser,
	admin StockAdmin,
	queries StockQueries,
	logger *zap.Logger,
) *StockController {
	return &StockController{
		reserveUC: reserveUC,
		releaser:  releaser,
		admin:     admin,
		queries:   queries,
		logger:    logger,
	}
}

func (c *StockController) GetStockLine(w http.ResponseWriter, r *http.Request) {
	ref := refFromRequest(r)

	view, err := c.queries.GetStockLine(r.Context(), ref)
	if err != nil {
		c.writeInternalError(w, "get stock line failed", err)
		return
	}

	c.writeJSON(w, http.StatusOK, view)
}

func (c *StockController) GetMovements(w http.ResponseWriter, r *http.Request) {
	ref := refFromRequest(r)

	limit := defaultMovementsCap
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxMovementsCap {
			c.writeValidationError(w, "invalid limit", apperrors.ValidationDetail{
				Field:   "limit",
				Message: "limit must be between 1 and 500",
			})
			return
		}
		limit = parsed
	}

	movements, err := c.queries.Movements(r.Context(), ref, limit)
	if err != nil {
		c.writeInternalError(w, "get movements failed", err)
		return
	}

	c.writeJSON(w, http.StatusOK, movementsResponse{Movements: movements})
}

func (c *StockController) ValidateStock(w http.ResponseWriter, r *http.Request) {
	ref := refFromRequest(r)

	quantity, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if err != nil {
		c.writeValidationError(w, "invalid quantity", apperrors.ValidationDetail{
			Field:   "quantity",
			Message: "quantity must be an integer",
		})
		return
	}

	validation, err := c.queries.ValidateForQuantity(r.Context(), ref.ProductSKU, ref.VariantSKU, quantity)
	if err != nil {
		c.writeInternalError(w, "validate stock failed", err)
		return
	}

	c.writeJSON(w, http.StatusOK, validation)
}

func (c *StockController) LowStock(w http.ResponseWriter, r *http.Request) {
	limit := defaultMovementsCap
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxMovementsCap {
			c.writeValidationError(w, "invalid limit", apperrors.ValidationDetail{
				Field:   "limit",
				Message: "limit must be between 1 and 500",
			})
			return
		}
		limit = parsed
	}

	lines, err := c.queries.LowStock(r.Context(), limit)
	if err != nil {
		c.writeInternalError(w, "low stock lookup failed", err)
		return
	}

	c.writeJSON(w, http.StatusOK, lowStockResponse{Lines: lines})
}

func (c *StockController) Reserve(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req reserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeValidationError(w, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	result, err := c.reserveUC.Reserve(r.Context(), dto.ReserveCommand{
		ProductSKU: req.ProductSKU,
		VariantSKU: req.VariantSKU,
		Quantity:   req.Quantity,
		UserID:     req.UserID,
		Source:     req.Source,
		TTLMinutes: req.TTLMinutes,
	})
	if err != nil {
		if ve, ok := apperrors.IsValidationError(err); ok {
			c.writeValidationError(w, ve.Message, ve.Details...)
			return
		}
		logger.Error("unexpected error", zap.Error(err))
		c.writeInternalError(w, "reserve failed", err)
		return
	}

	response := reserveResponse{
		TraceID:            traceID,
		Success:            result.Success,
		ReservationID:      result.ReservationID,
		RemainingAvailable: result.RemainingAvailable,
		FailureReason:      result.FailureReason,
		Timestamp:          time.Now().UTC(),
	}
	if result.Success {
		expiresAt := result.ExpiresAt
		response.ExpiresAt = &expiresAt
	}

	statusCode := http.StatusOK
	if !result.Success {
		statusCode = http.StatusUnprocessableEntity
	}

	c.writeJSON(w, statusCode, response)
}

// Release always answers 204. Unknown reservations are no-ops and even
// infrastructure errors are only logged; callers release during
// cleanup flows and have nothing useful to do with a failure.
func (c *StockController) Release(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req releaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeValidationError(w, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	if req.ReservationID == "" {
		c.writeValidationError(w, "invalid reservationId", apperrors.ValidationDetail{
			Field:   "reservationId",
			Message: "reservationId is required",
		})
		return
	}

	err := c.releaser.Release(r.Context(), dto.ReleaseCommand{
		ReservationID:     req.ReservationID,
		QuantityToRelease: req.QuantityToRelease,
		UserID:            req.UserID,
		Reason:            req.Reason,
	})
	if err != nil {
		logger.Error("release failed", zap.String("reservationId", req.ReservationID), zap.Error(err))
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *StockController) Adjust(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeValidationError(w, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	var details []apperrors.ValidationDetail
	if req.ProductSKU == "" {
		details = append(details, apperrors.ValidationDetail{
			Field:   "productSku",
			Message: "productSku is required",
		})
	}
	if req.Reason == "" {
		details = append(details, apperrors.ValidationDetail{
			Field:   "reason",
			Message: "reason is required",
		})
	}
	if len(details) > 0 {
		c.writeValidationError(w, "validation failed", details...)
		return
	}

	available, err := c.admin.AdjustStock(r.Context(), dto.AdjustCommand{
		ProductSKU:  req.ProductSKU,
		VariantSKU:  req.VariantSKU,
		NewQuantity: req.NewQuantity,
		Reason:      req.Reason,
		Actor:       req.Actor,
	})
	if err != nil {
		if nfe, ok := apperrors.IsNotFoundError(err); ok {
			c.writeJSON(w, http.StatusNotFound, map[string]string{
				"error":   "NOT_FOUND",
				"message": nfe.Message,
			})
			return
		}
		logger.Error("adjust failed", zap.String("productSku", req.ProductSKU), zap.Error(err))
		c.writeInternalError(w, "adjust failed", err)
		return
	}

	c.writeJSON(w, http.StatusOK, adjustResponse{
		TraceID:   traceID,
		Available: available,
		Timestamp: time.Now().UTC(),
	})
}

func (c *StockController) BulkCheck(w http.ResponseWriter, r *http.Request) {
	var req bulkCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.writeValidationError(w, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	if len(req.Items) == 0 {
		c.writeValidationError(w, "invalid items", apperrors.ValidationDetail{
			Field:   "items",
			Message: "items must not be empty",
		})
		return
	}
	if len(req.Items) > maxBulkCheckItems {
		c.writeValidationError(w, "invalid items", apperrors.ValidationDetail{
			Field:   "items",
			Message: "items exceeds maximum of 100",
		})
		return
	}

	statuses, err := c.queries.BulkCheck(r.Context(), req.Items)
	if err != nil {
		c.writeInternalError(w, "bulk check failed", err)
		return
	}

	c.writeJSON(w, http.StatusOK, bulkCheckResponse{Items: statuses})
}

func (c *StockController) ExpireReservations(w http.ResponseWriter, r *http.Request) {
	processed, err := c.releaser.ExpireReservations(r.Context(), time.Now().UTC())
	if err != nil {
		c.logger.Error("manual expiry sweep failed", zap.Int("processed", processed), zap.Error(err))
		c.writeInternalError(w, "expiry sweep failed", err)
		return
	}

	c.writeJSON(w, http.StatusOK, expireResponse{Processed: processed})
}

func refFromRequest(r *http.Request) domain.LineRef {
	return domain.NewLineRef(chi.URLParam(r, "sku"), r.URL.Query().Get("variant"))
}

type validationErrorResponse struct {
	Error   string                       `json:"error"`
	Message string                       `json:"message"`
	Details []apperrors.ValidationDetail `json:"details"`
}

func (c *StockController) writeValidationError(w http.ResponseWriter, message string, details ...apperrors.ValidationDetail) {
	c.writeJSON(w, http.StatusBadRequest, validationErrorResponse{
		Error:   "VALIDATION_ERROR",
		Message: message,
		Details: details,
	})
}

func (c *StockController) writeInternalError(w http.ResponseWriter, message string, err error) {
	c.logger.Error(message, zap.Error(err))
	c.writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error":   "INTERNAL_ERROR",
		"message": "an unexpected error occurred",
	})
}

func (c *StockController) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
