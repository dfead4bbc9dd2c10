// Package database opens the resolved connection target as a database/sql
// handle, with fixed-delay retries.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/relayline/relayline/internal/service"
)

// Connection policy: a fixed number of attempts at a fixed delay. The
// resolver has already probed the target, so a long backoff buys nothing.
const (
	ConnectTimeout = 10 * time.Second
	ConnectRetries = 3
	RetryDelay     = 1 * time.Second
)

// DB wraps the open handle together with the target it was opened for.
type DB struct {
	*sql.DB
	Target service.ConnectionTarget
}

// Ping verifies the connection, shadowing sql.DB's context-free variant so
// DB satisfies the context-aware Pinger interfaces used elsewhere.
func (d *DB) Ping(ctx context.Context) error {
	return d.PingContext(ctx)
}

// Open connects to the target with retries and verifies the connection
// with a ping. The caller owns the returned handle.
func Open(ctx context.Context, target service.ConnectionTarget, logger zerolog.Logger) (*DB, error) {
	driver, dsn, err := driverFor(target)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", target.Name(), err)
	}

	attempt := 0
	operation := func() error {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, ConnectTimeout)
		defer cancel()

		if err := db.PingContext(pingCtx); err != nil {
			logger.Warn().
				Str("implementation", target.Name()).
				Int("attempt", attempt).
				Err(err).
				Msg("database connection attempt failed")
			return err
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(RetryDelay), ConnectRetries),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect %s: %w", target.Name(), err)
	}

	if target.Implementation == service.ImplSQLite {
		busyMillis := ConnectTimeout.Milliseconds()
		if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout = %d", busyMillis)); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set busy timeout: %w", err)
		}
	}

	logger.Info().
		Str("implementation", target.Name()).
		Str("connection", service.MaskSecrets(target.ConnectionString)).
		Msg("database connected")

	return &DB{DB: db, Target: target}, nil
}

// driverFor maps a target to its sql driver and DSN. SQLite parent
// directories are created on the way.
func driverFor(target service.ConnectionTarget) (driver, dsn string, err error) {
	switch target.Implementation {
	case service.ImplPostgres:
		return "pgx", target.ConnectionString, nil
	case service.ImplSQLite:
		path := target.ConnectionString
		if path != ":memory:" {
			if dir := filepath.Dir(path); dir != "." && dir != "" {
				if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
					return "", "", fmt.Errorf("create database directory: %w", mkErr)
				}
			}
		}
		return "sqlite", path, nil
	default:
		return "", "", fmt.Errorf("implementation %q is not a database", target.Implementation)
	}
}
