package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresKV хранит пары в таблице chatfic_kv.
type PostgresKV struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

var _ KV = (*PostgresKV)(nil)

// OpenPostgres создает пул соединений, проверяет его и применяет миграции.
func OpenPostgres(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresKV, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка при разборе строки подключения: %w", err)
	}
	poolConfig.MaxConns = 4

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать пул подключений: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("не удалось подключиться к базе данных: %w", err)
	}

	if err := NewMigrator(pool, logger).Up(); err != nil {
		pool.Close()
		return nil, err
	}

	logger = logger.Named("PostgresKV")
	logger.Debug("Postgres store connected", zap.String("database", poolConfig.ConnConfig.Database))
	return &PostgresKV{pool: pool, logger: logger}, nil
}

type kvRow struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

func (p *PostgresKV) Get(ctx context.Context, key string) (string, error) {
	var row kvRow
	err := pgxscan.Get(ctx, p.pool, &row, `SELECT key, value FROM chatfic_kv WHERE key = $1`, key)
	if err != nil {
		if pgxscan.NotFound(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("postgres get %s: %w", key, err)
	}
	return row.Value, nil
}

func (p *PostgresKV) Set(ctx context.Context, key, value string) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO chatfic_kv (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("postgres set %s: %w", key, err)
	}
	return nil
}

func (p *PostgresKV) Delete(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM chatfic_kv WHERE key = $1`, key); err != nil {
		return fmt.Errorf("postgres delete %s: %w", key, err)
	}
	return nil
}

func (p *PostgresKV) Close() error {
	p.pool.Close()
	return nil
}
