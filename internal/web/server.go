// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CampusLink Contributors

// Package web exposes the HTTP surface: auth endpoints, the posts API,
// and the session cookie plumbing between them.
package web

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/oops"

	"github.com/campuslink/campuslink/internal/auth"
	"github.com/campuslink/campuslink/internal/observability"
	"github.com/campuslink/campuslink/internal/posts"
	"github.com/campuslink/campuslink/internal/session"
)

// Options configures the web server.
type Options struct {
	Addr       string
	Env        string
	CookieName string
	Logger     *slog.Logger
	Metrics    *observability.Metrics

	Sessions  session.Store
	Codec     *session.Codec
	Auth      *auth.Authenticator
	Registrar *auth.Registrar
	Posts     *posts.Service
}

// Server is the CampusLink HTTP server.
type Server struct {
	app  *fiber.App
	opts Options
}

// New creates the server and mounts all routes.
func New(opts Options) (*Server, error) {
	if opts.Sessions == nil || opts.Codec == nil {
		return nil, oops.Code("WEB_CONFIG_INVALID").Errorf("session store and codec are required")
	}
	if opts.Auth == nil || opts.Registrar == nil || opts.Posts == nil {
		return nil, oops.Code("WEB_CONFIG_INVALID").Errorf("auth, registrar, and posts services are required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Server{
		app: fiber.New(fiber.Config{
			AppName:               "CampusLink",
			DisableStartupMessage: true,
			ReadTimeout:           10 * time.Second,
			WriteTimeout:          10 * time.Second,
		}),
		opts: opts,
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.app.Use(s.observe)
	s.app.Use(s.ensureSession)

	// Account routes follow the browser flow: errors come back as a
	// redirect with a flash message, not a JSON body.
	authGroup := s.app.Group("/auth")
	authGroup.Post("/register", s.handleRegister)
	authGroup.Post("/login", s.handleLogin)
	authGroup.Get("/logout", s.handleLogout)
	authGroup.Get("/profile", s.requirePage, s.handleProfile)
	authGroup.Post("/profile/update", s.requirePage, s.handleUpdateProfile)
	authGroup.Post("/profile/change-password", s.requirePage, s.handleChangePassword)

	// The posts API speaks JSON envelopes.
	api := s.app.Group("/api/posts")
	api.Get("/", s.handleListPosts)
	api.Get("/search", s.handleSearchPosts)
	api.Get("/stats", s.handlePostStats)
	api.Get("/category/:category", s.handlePostsByCategory)
	api.Get("/:id", s.handleGetPost)
	api.Post("/", s.requireAuth, s.handleCreatePost)
	api.Put("/:id", s.requireAuth, s.handleUpdatePost)
	api.Delete("/:id", s.requireAuth, s.handleDeletePost)
	api.Post("/:id/like", s.requireAuth, s.handleLikePost)
}

// observe logs each request and counts it by route and status.
func (s *Server) observe(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
		} else {
			status = fiber.StatusInternalServerError
		}
	}

	route := c.Route().Path
	if s.opts.Metrics != nil {
		s.opts.Metrics.RequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	}
	s.opts.Logger.Debug("request",
		"method", c.Method(),
		"route", route,
		"status", status,
		"duration_ms", time.Since(start).Milliseconds())
	return err
}

// Start begins serving. It blocks until Shutdown is called or the
// listener fails.
func (s *Server) Start() error {
	s.opts.Logger.Info("web server listening", "addr", s.opts.Addr)
	if err := s.app.Listen(s.opts.Addr); err != nil {
		return oops.Code("WEB_LISTEN_FAILED").
			With("addr", s.opts.Addr).
			Wrap(err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		return oops.Code("WEB_SHUTDOWN_FAILED").Wrap(err)
	}
	return nil
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) production() bool {
	return s.opts.Env == "production"
}
