// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package postgres manages the PostgreSQL connection pool that backs the
// account, session, comparison and analysis stores.
//
// Stores receive a [*pgxpool.Pool] and use [WithTx] when a write spans more
// than one table, such as replacing a clip and resetting its analysis.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultMaxConns         = 20
	defaultStatementTimeout = 30 * time.Second

	minConns          = 2
	maxConnLifetime   = time.Hour
	maxConnIdleTime   = 10 * time.Minute
	healthCheckPeriod = time.Minute
	connectTimeout    = 5 * time.Second
	pingTimeout       = 2 * time.Second
)

// PoolConfig is the subset of the server config the pool cares about.
type PoolConfig struct {
	DSN              string
	MaxConns         int32
	StatementTimeout time.Duration
}

/*
NewPool dials PostgreSQL and verifies the connection with a ping.

Every physical connection gets a server-side statement_timeout so a stuck
query cannot outlive the request that issued it.

Parameters:
  - ctx: context.Context (bounds the initial dial)
  - settings: PoolConfig (zero values fall back to defaults)
  - logger: *slog.Logger

Returns:
  - *pgxpool.Pool
  - error
*/
func NewPool(ctx context.Context, settings PoolConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(settings.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: invalid DSN: %w", err)
	}

	maxConns := settings.MaxConns
	if maxConns <= 0 {
		maxConns = defaultMaxConns
	}
	statementTimeout := settings.StatementTimeout
	if statementTimeout <= 0 {
		statementTimeout = defaultStatementTimeout
	}

	poolConfig.MaxConns = maxConns
	poolConfig.MinConns = min(minConns, maxConns)
	poolConfig.MaxConnLifetime = maxConnLifetime
	poolConfig.MaxConnIdleTime = maxConnIdleTime
	poolConfig.HealthCheckPeriod = healthCheckPeriod
	poolConfig.ConnConfig.ConnectTimeout = connectTimeout
	poolConfig.AfterConnect = func(ctx context.Context, connection *pgx.Conn) error {
		_, err := connection.Exec(ctx, fmt.Sprintf("SET statement_timeout = %d", statementTimeout.Milliseconds()))
		return err
	}

	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(dialCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}

	if err := Ping(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("postgres_pool_ready",
		slog.Int("max_conns", int(maxConns)),
		slog.Duration("statement_timeout", statementTimeout),
	)

	return pool, nil
}

// Ping is the readiness probe for the database.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("postgres: ping failed: %w", err)
	}
	return nil
}

/*
WithTx runs fn in a transaction.

The transaction commits when fn returns nil and rolls back on an error or a
panic; a panic is re-raised after the rollback.
*/
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) (err error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin failed: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit failed: %w", err)
	}
	committed = true
	return nil
}
