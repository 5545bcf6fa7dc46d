package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"stockroom/internal/inventory/controller"
)

func NewRouter(stockCtrl *controller.StockController, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1/stock", func(r chi.Router) {
		r.Post("/reserve", stockCtrl.Reserve)
		r.Post("/release", stockCtrl.Release)
		r.Post("/adjust", stockCtrl.Adjust)
		r.Post("/bulk-check", stockCtrl.BulkCheck)
		r.Get("/low", stockCtrl.LowStock)
		r.Get("/{sku}", stockCtrl.GetStockLine)
		r.Get("/{sku}/movements", stockCtrl.GetMovements)
		r.Get("/{sku}/validate", stockCtrl.ValidateStock)
	})

	r.Post("/api/v1/admin/reservations/expire", stockCtrl.ExpireReservations)

	return r
}
