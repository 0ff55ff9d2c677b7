package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultMaxConns        = 16
	defaultMinConns        = 2
	defaultMaxConnIdleTime = 5 * time.Minute
)

// New opens a pgx pool against the CRM database and verifies connectivity
// before handing it out. DSN parameters win over the defaults set here.
func New(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("platform/db: parse dsn: %w", err)
	}
	if config.MaxConns == 0 {
		config.MaxConns = defaultMaxConns
	}
	if config.MinConns == 0 {
		config.MinConns = defaultMinConns
	}
	config.MaxConnIdleTime = defaultMaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("platform/db: new pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("platform/db: ping: %w", err)
	}

	return pool, nil
}
