package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// waitForServices blocks for the configured startup delay
func waitForServices(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	log.WithField("delay", delay).Info("waiting for other services to come online")

	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// connect opens a pool and pings it until the database answers
func connect(ctx context.Context, dsn string, retries int) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	// Operations run one at a time, so a small pool is enough
	poolConfig.MaxConns = 4
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 10 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if retries < 1 {
		retries = 1
	}
	for i := 0; i < retries; i++ {
		if err = pool.Ping(ctx); err == nil {
			log.WithField("host", poolConfig.ConnConfig.Host).Info("connected to database")
			return pool, nil
		}
		log.WithError(err).WithField("attempt", i+1).Debug("database not reachable yet")

		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		}
	}

	pool.Close()
	return nil, fmt.Errorf("failed to connect to database after %d retries: %w", retries, err)
}
