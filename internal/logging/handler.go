// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CampusLink Contributors

// Package logging provides structured logging for CampusLink.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"
)

// appHandler wraps a slog.Handler to stamp service identity and, when
// present, OpenTelemetry trace context onto every record.
type appHandler struct {
	handler slog.Handler
	service string
	version string
	env     string
}

// Handle adds service identity and trace context to the log record.
func (h *appHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(
		slog.String("service", h.service),
		slog.String("version", h.version),
		slog.String("env", h.env),
	)

	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.HasTraceID() {
		r.AddAttrs(slog.String("trace_id", spanCtx.TraceID().String()))
	}
	if spanCtx.HasSpanID() {
		r.AddAttrs(slog.String("span_id", spanCtx.SpanID().String()))
	}

	//nolint:wrapcheck // Handler interface requires unwrapped error passthrough
	return h.handler.Handle(ctx, r)
}

// Enabled reports whether the level is enabled.
func (h *appHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// WithAttrs returns a new handler with the given attributes.
func (h *appHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &appHandler{
		handler: h.handler.WithAttrs(attrs),
		service: h.service,
		version: h.version,
		env:     h.env,
	}
}

// WithGroup returns a new handler with the given group.
func (h *appHandler) WithGroup(name string) slog.Handler {
	return &appHandler{
		handler: h.handler.WithGroup(name),
		service: h.service,
		version: h.version,
		env:     h.env,
	}
}

// Setup creates a configured slog.Logger.
// format is "json" or "text" (defaults to "json" if empty).
// env selects the minimum level: debug outside production, info in production.
// If w is nil, writes to os.Stderr.
func Setup(service, version, env, format string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	level := slog.LevelDebug
	if env == "production" {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var baseHandler slog.Handler
	if format == "text" {
		baseHandler = slog.NewTextHandler(w, opts)
	} else {
		baseHandler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(&appHandler{
		handler: baseHandler,
		service: service,
		version: version,
		env:     env,
	})
}

// SetDefault sets up and installs the default logger.
func SetDefault(service, version, env, format string) {
	slog.SetDefault(Setup(service, version, env, format, nil))
}
