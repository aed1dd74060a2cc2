// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CampusLink Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/campuslink/campuslink/internal/auth"
	authpg "github.com/campuslink/campuslink/internal/auth/postgres"
	"github.com/campuslink/campuslink/internal/config"
	"github.com/campuslink/campuslink/internal/logging"
	"github.com/campuslink/campuslink/internal/observability"
	"github.com/campuslink/campuslink/internal/posts"
	postspg "github.com/campuslink/campuslink/internal/posts/postgres"
	"github.com/campuslink/campuslink/internal/session"
	"github.com/campuslink/campuslink/internal/store"
	"github.com/campuslink/campuslink/internal/web"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand with all flags configured.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the CampusLink web server",
		Long: `Start the CampusLink web server. The server keeps running when
PostgreSQL is unreachable: reads return empty results and writes are
acknowledged without persisting until the database comes back.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeWithDeps(cmd, defaultServeDeps())
		},
	}

	config.RegisterFlags(cmd.Flags())
	cmd.Flags().Bool("auto-migrate", true, "run pending database migrations on startup")

	return cmd
}

// runServeWithDeps executes the serve command with injectable dependencies.
func runServeWithDeps(cmd *cobra.Command, deps *ServeDeps) error {
	deps.applyDefaults()

	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	logging.SetDefault("campuslink", version, cfg.Env, cfg.LogFormat)
	logger := slog.Default()

	logger.Info("starting campuslink",
		"env", cfg.Env,
		"addr", cfg.Addr,
		"metrics_addr", cfg.MetricsAddr,
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Connect never fails hard: an unreachable database yields an
	// unavailable handle and the server starts in degraded mode.
	handle := deps.HandleFactory(ctx, cfg.DatabaseURL, logger)
	defer handle.Close()

	autoMigrate, _ := cmd.Flags().GetBool("auto-migrate")
	if autoMigrate && handle.Mode() == store.ModeConnected {
		runAutoMigration(deps.MigratorFactory, cfg.DatabaseURL, logger)
	}

	codec, err := session.NewCodec(cfg.SessionSecret)
	if err != nil {
		return err
	}

	sessions := session.NewMemoryStore(logger)
	go sessions.Sweep(ctx)

	hasher := auth.NewBcryptHasher()
	accounts := authpg.NewAccountRepository(handle)
	authn := auth.NewAuthenticator(accounts, hasher)
	registrar := auth.NewRegistrar(accounts, hasher, authn)
	postsSvc := posts.NewService(postspg.NewPostRepository(handle))

	// Metrics live on the observability server's registry when one is
	// configured; otherwise on a private registry so recording still works.
	var obsServer ObservabilityServer
	var metrics *observability.Metrics
	if cfg.MetricsAddr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.MetricsAddr, func() bool {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer pingCancel()
			return handle.Ping(pingCtx) == nil
		})
		metrics = obsServer.Metrics()

		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability", logger)
		logger.Info("observability server started", "addr", obsServer.Addr())
	} else {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	webServer, err := deps.WebServerFactory(web.Options{
		Addr:       cfg.Addr,
		Env:        cfg.Env,
		CookieName: cfg.CookieName,
		Logger:     logger,
		Metrics:    metrics,
		Sessions:   sessions,
		Codec:      codec,
		Auth:       authn,
		Registrar:  registrar,
		Posts:      postsSvc,
	})
	if err != nil {
		return err
	}

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		if serveErr := webServer.Start(); serveErr != nil {
			errChan <- serveErr
		}
	}()

	cmd.Println("CampusLink server started")
	logger.Info("server ready",
		"addr", cfg.Addr,
		"store_mode", handle.Mode().String(),
	)

	// Wait for shutdown signal or error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errChan:
		return oops.Code("WEB_SERVER_FAILED").Wrap(err)
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	// Graceful shutdown
	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := webServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping web server", "error", err)
	}

	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	logger.Info("shutdown complete", "sessions_dropped", sessions.Count())
	return nil
}

// runAutoMigration applies pending migrations on startup. Failures are
// logged, not fatal: a schema behind by one migration still serves most
// traffic, which beats refusing to start.
func runAutoMigration(factory func(string) (AutoMigrator, error), databaseURL string, logger *slog.Logger) {
	migrator, err := factory(databaseURL)
	if err != nil {
		logger.Warn("auto-migration skipped", "error", err)
		return
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Debug("error closing migrator", "error", closeErr)
		}
	}()

	if err := migrator.Up(); err != nil {
		logger.Warn("auto-migration failed", "error", err)
		return
	}
	logger.Info("database migrations up to date")
}

// monitorServerErrors watches a server error channel and cancels the
// run context when one arrives.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errChan <-chan error, name string, logger *slog.Logger) {
	select {
	case err, ok := <-errChan:
		if ok && err != nil {
			logger.Error("server failed", "server", name, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
