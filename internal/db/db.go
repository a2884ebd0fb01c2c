package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool sizing: the API handlers and the two background workers share this
// pool, and every ledger mutation holds a row lock for the length of one
// transaction, so a modest ceiling keeps lock queues short.
const (
	maxConns        = 10
	minConns        = 2
	connMaxLifetime = time.Hour
	connMaxIdle     = 30 * time.Minute
	connectTimeout  = 5 * time.Second
)

func Connect(ctx context.Context, dbURL string) (*pgxpool.Pool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	config.MaxConns = maxConns
	config.MinConns = minConns
	config.MaxConnLifetime = connMaxLifetime
	config.MaxConnIdleTime = connMaxIdle

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	return pool, nil
}
