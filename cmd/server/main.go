package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"stockroom/internal/commons"
	"stockroom/internal/config"
	"stockroom/internal/infrastructure/logger"
	"stockroom/internal/infrastructure/mysql"
	"stockroom/internal/infrastructure/redis"
	"stockroom/internal/inventory"
	"stockroom/internal/inventory/sweeper"
	"stockroom/internal/server"
)

func main() {
	var cfg *config.Config
	var err error
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		cfg, err = commons.LoadConfig(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := mysql.NewConnection(cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("database connected")

	var redisClient *goredis.Client
	if cfg.Redis.Addr != "" {
		client, err := redis.NewClient(cfg.Redis)
		if err != nil {
			zapLogger.Fatal("connecting to redis", zap.Error(err))
		}
		defer client.Close()
		redisClient = client
		zapLogger.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
	}

	module := inventory.NewModule(db, redisClient, cfg, zapLogger)

	router := server.NewRouter(module.Controller, zapLogger)
	srv := server.New(cfg.Server.Port, router, zapLogger)

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	reservationSweeper := sweeper.New(module.Reservations, cfg.Inventory.SweepInterval, zapLogger)
	go reservationSweeper.Run(sweepCtx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("received shutdown signal")

	stopSweeper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server shutdown failed", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}
