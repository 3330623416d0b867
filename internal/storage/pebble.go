package storage

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"
)

// PebbleKV - файловое хранилище на cockroachdb/pebble. Каждая запись синхронная.
type PebbleKV struct {
	db     *pebble.DB
	logger *zap.Logger
}

var _ KV = (*PebbleKV)(nil)

// OpenPebble открывает (или создает) каталог базы.
func OpenPebble(path string, logger *zap.Logger) (*PebbleKV, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create pebble directory: %w", err)
	}
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble at %s: %w", path, err)
	}
	logger = logger.Named("PebbleKV")
	logger.Debug("Pebble store opened", zap.String("path", path))
	return &PebbleKV{db: db, logger: logger}, nil
}

func (p *PebbleKV) Get(_ context.Context, key string) (string, error) {
	value, closer, err := p.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("pebble get %s: %w", key, err)
	}
	defer closer.Close()
	// value валиден только до closer.Close, копируем.
	return string(value), nil
}

func (p *PebbleKV) Set(_ context.Context, key, value string) error {
	if err := p.db.Set([]byte(key), []byte(value), pebble.Sync); err != nil {
		return fmt.Errorf("pebble set %s: %w", key, err)
	}
	return nil
}

func (p *PebbleKV) Delete(_ context.Context, key string) error {
	if err := p.db.Delete([]byte(key), pebble.Sync); err != nil {
		return fmt.Errorf("pebble delete %s: %w", key, err)
	}
	return nil
}

func (p *PebbleKV) Close() error {
	return p.db.Close()
}
