// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CampusLink Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/campuslink/campuslink/internal/observability"
	"github.com/campuslink/campuslink/internal/store"
	"github.com/campuslink/campuslink/internal/web"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// HandleFactory produces the store handle for a database URL.
	// Default: store.Connect
	HandleFactory func(ctx context.Context, databaseURL string, logger *slog.Logger) *store.Handle

	// MigratorFactory creates a migrator for startup auto-migration.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (AutoMigrator, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer

	// WebServerFactory creates the HTTP server.
	// Default: web.New
	WebServerFactory func(opts web.Options) (WebServer, error)
}

// AutoMigrator interface wraps the methods used from store.Migrator
// during startup auto-migration.
type AutoMigrator interface {
	Up() error
	Close() error
}

// ObservabilityServer interface wraps the methods used from
// observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

// WebServer interface wraps the methods used from web.Server.
type WebServer interface {
	Start() error
	Shutdown(ctx context.Context) error
}

func defaultServeDeps() *ServeDeps {
	return &ServeDeps{
		HandleFactory: store.Connect,
		MigratorFactory: func(databaseURL string) (AutoMigrator, error) {
			return store.NewMigrator(databaseURL)
		},
		ObservabilityServerFactory: func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker)
		},
		WebServerFactory: func(opts web.Options) (WebServer, error) {
			return web.New(opts)
		},
	}
}

// applyDefaults fills nil fields with their default implementations.
func (d *ServeDeps) applyDefaults() {
	defaults := defaultServeDeps()
	if d.HandleFactory == nil {
		d.HandleFactory = defaults.HandleFactory
	}
	if d.MigratorFactory == nil {
		d.MigratorFactory = defaults.MigratorFactory
	}
	if d.ObservabilityServerFactory == nil {
		d.ObservabilityServerFactory = defaults.ObservabilityServerFactory
	}
	if d.WebServerFactory == nil {
		d.WebServerFactory = defaults.WebServerFactory
	}
}
