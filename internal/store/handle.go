// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CampusLink Contributors

// Package store provides the PostgreSQL connection handle and schema
// management for CampusLink.
//
// The Handle is a tagged variant: it is either Connected, carrying a live
// pool, or Unavailable. Repositories pattern-match on the handle and fall
// back to degraded behavior when the store is unavailable: reads return
// empty results, writes return synthetic acknowledgments, and nothing
// blocks or panics. Degraded mode is decided at connection time and does
// not self-heal; a reconnect requires constructing a new handle.
package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
)

// ErrUnavailable is returned when an operation requires a live store
// connection and the handle is unavailable.
var ErrUnavailable = errors.New("store unavailable")

// Connection retry configuration.
const (
	connectBaseDelay  = 500 * time.Millisecond
	connectMaxRetries = 3
	connectTimeout    = 10 * time.Second
)

// PgxPool is the subset of pgxpool.Pool used by repositories.
// pgxmock.PgxPoolIface satisfies it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Mode distinguishes the two handle variants.
type Mode int

const (
	// ModeUnavailable marks a handle with no live connection.
	ModeUnavailable Mode = iota

	// ModeConnected marks a handle backed by a live pool.
	ModeConnected
)

// String returns the mode name for logs and status output.
func (m Mode) String() string {
	if m == ModeConnected {
		return "connected"
	}
	return "unavailable"
}

// Handle is the tagged store variant: Connected(pool) or Unavailable.
type Handle struct {
	mode   Mode
	pool   PgxPool
	logger *slog.Logger
}

// Connect builds a Handle for the given connection string. Connection
// failures are not fatal: after the retry budget is exhausted the handle
// comes back Unavailable and the caller proceeds in degraded mode. An
// empty databaseURL skips the connection attempt entirely.
func Connect(ctx context.Context, databaseURL string, logger *slog.Logger) *Handle {
	if logger == nil {
		logger = slog.Default()
	}

	if databaseURL == "" {
		logger.Warn("no database URL configured, store starting unavailable")
		return Unavailable(logger)
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	var pool *pgxpool.Pool
	backoff := retry.WithMaxRetries(connectMaxRetries, retry.NewFibonacci(connectBaseDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		p, err := pgxpool.New(ctx, databaseURL)
		if err != nil {
			return retry.RetryableError(err)
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return retry.RetryableError(err)
		}
		pool = p
		return nil
	})
	if err != nil {
		logger.Warn("store connection failed, continuing unavailable",
			"error", err)
		return Unavailable(logger)
	}

	logger.Info("store connected")
	return &Handle{mode: ModeConnected, pool: pool, logger: logger}
}

// Connected wraps an existing pool in a connected handle. Used by tests
// and by callers that manage the pool themselves.
func Connected(pool PgxPool, logger *slog.Logger) *Handle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handle{mode: ModeConnected, pool: pool, logger: logger}
}

// Unavailable returns a handle with no backing connection.
func Unavailable(logger *slog.Logger) *Handle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handle{mode: ModeUnavailable, logger: logger}
}

// Mode returns the handle variant.
func (h *Handle) Mode() Mode {
	return h.mode
}

// Pool returns the live pool and true when connected; (nil, false)
// otherwise. This is the pattern-match point for repositories.
func (h *Handle) Pool() (PgxPool, bool) {
	if h.mode != ModeConnected {
		return nil, false
	}
	return h.pool, true
}

// Logger returns the handle's logger for degraded-mode warnings.
func (h *Handle) Logger() *slog.Logger {
	return h.logger
}

// Ping reports store reachability. An unavailable handle returns
// ErrUnavailable without any network traffic.
func (h *Handle) Ping(ctx context.Context) error {
	pool, ok := h.Pool()
	if !ok {
		return ErrUnavailable
	}
	return pool.Ping(ctx) //nolint:wrapcheck // probe result passed through to health checks
}

// Close releases the pool if one exists.
func (h *Handle) Close() {
	if h.pool != nil {
		h.pool.Close()
	}
}
