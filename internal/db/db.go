package db

import (
	"context"
	"fmt"

	"billing-service/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool opens and pings a pgx pool. An empty connection string is a
// configuration error, not a connection failure. When only the ping fails the
// pool is still returned, with an error wrapping core.ErrUnreachable; pgxpool
// dials lazily, so it starts working once the database is back.
func NewPool(ctx context.Context, connStr string, maxConns int32) (*pgxpool.Pool, error) {
	if connStr == "" {
		return nil, core.NewConfigError("database", "DATABASE_URL")
	}

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse DATABASE_URL: %w", err)
	}
	if maxConns > 0 {
		config.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return pool, fmt.Errorf("%w: unable to ping database: %v", core.ErrUnreachable, err)
	}

	return pool, nil
}
