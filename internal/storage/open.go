package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Драйверы хранилища.
const (
	DriverMemory   = "memory"
	DriverPebble   = "pebble"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Config выбирает и настраивает драйвер.
type Config struct {
	Driver      string
	Path        string // каталог данных для pebble и sqlite
	RedisURL    string
	PostgresDSN string
}

// Open создает хранилище по имени драйвера.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (KV, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	logger.Info("Opening storage", zap.String("driver", driver))

	switch driver {
	case DriverMemory:
		return NewMemoryKV(), nil
	case DriverPebble, "":
		return OpenPebble(filepath.Join(cfg.Path, "pebble"), logger)
	case DriverSQLite:
		return OpenSQLite(ctx, filepath.Join(cfg.Path, "chatfic.db"), logger)
	case DriverRedis:
		return OpenRedis(ctx, cfg.RedisURL, logger)
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.PostgresDSN, logger)
	default:
		return nil, fmt.Errorf("неизвестный драйвер хранилища: '%s'", cfg.Driver)
	}
}
