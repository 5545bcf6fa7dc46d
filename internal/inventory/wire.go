package inventory

import (
	"database/sql"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"stockroom/internal/config"
	"stockroom/internal/inventory/cache"
	"stockroom/internal/inventory/controller"
	"stockroom/internal/inventory/repository"
	"stockroom/internal/inventory/service"
	"stockroom/internal/inventory/usecase"
)

// Module bundles the wired inventory components the rest of the
// process needs: the HTTP controller and the reservation service the
// expiry sweeper drives.
type Module struct {
	Controller   *controller.StockController
	Reservations *service.ReservationService
}

// NewModule wires the inventory domain. redisClient may be nil, which
// disables the availability cache.
func NewModule(db *sql.DB, redisClient *goredis.Client, cfg *config.Config, logger *zap.Logger) *Module {
	productRepo := repository.NewMySQLProductRepository(db)
	stockLineRepo := repository.NewMySQLStockLineRepository(db)
	reservationRepo := repository.NewMySQLReservationRepository(db)
	movementRepo := repository.NewMySQLMovementRepository(db)

	var (
		invalidator service.AvailabilityCache
		readCache   service.StockLineCache
	)
	if redisClient != nil {
		availabilityCache := cache.New(redisClient, cfg.Redis.CacheTTL, logger)
		invalidator = availabilityCache
		readCache = availabilityCache
	}

	ledger := service.NewLedgerService(stockLineRepo, movementRepo, logger)

	reservationSvc := service.NewReservationService(
		db,
		productRepo,
		reservationRepo,
		ledger,
		invalidator,
		logger,
		cfg.Inventory.TxTimeout,
		cfg.Inventory.DefaultTTLMinutes,
		cfg.Inventory.MaxTTLMinutes,
		cfg.Inventory.SweepBatchSize,
	)

	adminSvc := service.NewStockAdminService(
		db,
		productRepo,
		ledger,
		invalidator,
		logger,
		cfg.Inventory.TxTimeout,
	)

	querySvc := service.NewQueryService(stockLineRepo, productRepo, movementRepo, readCache, logger)

	reserveUC := usecase.NewReserveStockUseCase(reservationSvc, logger, cfg.Inventory.MaxRetryAttempts)

	return &Module{
		Controller:   controller.NewStockController(reserveUC, reservationSvc, adminSvc, querySvc, logger),
		Reservations: reservationSvc,
	}
}
