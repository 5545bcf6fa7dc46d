package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Inventory InventoryConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the optional availability read cache.
// An empty Addr disables caching entirely.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

type InventoryConfig struct {
	DefaultTTLMinutes int
	MaxTTLMinutes     int
	SweepInterval     time.Duration
	SweepBatchSize    int
	MaxRetryAttempts  int
	TxTimeout         time.Duration
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 3306)
	viper.SetDefault("DB_USER", "stockroom")
	viper.SetDefault("DB_PASSWORD", "secret")
	viper.SetDefault("DB_NAME", "stockroom")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("STOCK_CACHE_TTL", "30s")
	viper.SetDefault("RESERVATION_TTL_MINUTES", 30)
	viper.SetDefault("RESERVATION_MAX_TTL_MINUTES", 1440)
	viper.SetDefault("RESERVATION_SWEEP_INTERVAL", "1m")
	viper.SetDefault("RESERVATION_SWEEP_BATCH_SIZE", 500)
	viper.SetDefault("MAX_RETRY_ATTEMPTS", 3)
	viper.SetDefault("TX_TIMEOUT", "5s")
	viper.SetDefault("LOG_LEVEL", "info")

	connMaxLifetime, err := time.ParseDuration(viper.GetString("DB_CONN_MAX_LIFETIME"))
	if err != nil {
		return nil, err
	}

	cacheTTL, err := time.ParseDuration(viper.GetString("STOCK_CACHE_TTL"))
	if err != nil {
		return nil, err
	}

	sweepInterval, err := time.ParseDuration(viper.GetString("RESERVATION_SWEEP_INTERVAL"))
	if err != nil {
		return nil, err
	}

	txTimeout, err := time.ParseDuration(viper.GetString("TX_TIMEOUT"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("SERVER_PORT"),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			Name:            viper.GetString("DB_NAME"),
			MaxOpenConns:    viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
			CacheTTL: cacheTTL,
		},
		Inventory: InventoryConfig{
			DefaultTTLMinutes: viper.GetInt("RESERVATION_TTL_MINUTES"),
			MaxTTLMinutes:     viper.GetInt("RESERVATION_MAX_TTL_MINUTES"),
			SweepInterval:     sweepInterval,
			SweepBatchSize:    viper.GetInt("RESERVATION_SWEEP_BATCH_SIZE"),
			MaxRetryAttempts:  viper.GetInt("MAX_RETRY_ATTEMPTS"),
			TxTimeout:         txTimeout,
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
	}

	return cfg, nil
}
