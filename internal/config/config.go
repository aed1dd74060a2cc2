// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CampusLink Contributors

// Package config loads and validates CampusLink configuration.
//
// Precedence, lowest to highest: flag defaults, YAML config file,
// explicitly set flags, then the DATABASE_URL and SESSION_SECRET
// environment variables.
package config

import (
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Default values used when neither flags nor config file set a key.
const (
	DefaultAddr        = ":3000"
	DefaultMetricsAddr = "127.0.0.1:9100"
	DefaultEnv         = "development"
	DefaultLogFormat   = "json"
	DefaultCookieName  = "campuslink.sid"
)

// Config holds the runtime configuration for the CampusLink server.
type Config struct {
	// Env is the deployment environment: "development" or "production".
	Env string `koanf:"env"`

	// Addr is the HTTP listen address for the web application.
	Addr string `koanf:"addr"`

	// MetricsAddr is the listen address for metrics and health probes.
	// Empty disables the observability server.
	MetricsAddr string `koanf:"metrics-addr"`

	// DatabaseURL is the PostgreSQL connection string. May be empty;
	// the store then starts in degraded mode.
	DatabaseURL string `koanf:"database-url"`

	// SessionSecret signs session cookie IDs. Required.
	SessionSecret string `koanf:"session-secret"`

	// CookieName is the session cookie name.
	CookieName string `koanf:"cookie-name"`

	// LogFormat is "json" or "text".
	LogFormat string `koanf:"log-format"`
}

// RegisterFlags defines the configuration flags with their defaults on
// the given flag set. Load reads these back through posflag.
func RegisterFlags(f *pflag.FlagSet) {
	f.String("env", DefaultEnv, "deployment environment (development or production)")
	f.String("addr", DefaultAddr, "HTTP listen address")
	f.String("metrics-addr", DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	f.String("database-url", "", "PostgreSQL connection string")
	f.String("session-secret", "", "secret used to sign session cookies")
	f.String("cookie-name", DefaultCookieName, "session cookie name")
	f.String("log-format", DefaultLogFormat, "log format (json or text)")
}

// Load builds a Config from the optional YAML file at path and the given
// flag set. Environment variables DATABASE_URL and SESSION_SECRET take
// precedence over both.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	// posflag fills in flag values, keeping file values for flags left
	// at their defaults.
	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		cfg.SessionSecret = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Env != "development" && c.Env != "production" {
		return oops.Code("CONFIG_INVALID").
			With("env", c.Env).
			Errorf("env must be 'development' or 'production', got %q", c.Env)
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").
			With("log_format", c.LogFormat).
			Errorf("log-format must be 'json' or 'text', got %q", c.LogFormat)
	}
	if c.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("addr is required")
	}
	if c.SessionSecret == "" {
		return oops.Code("CONFIG_INVALID").Errorf("session-secret is required")
	}
	if c.CookieName == "" {
		return oops.Code("CONFIG_INVALID").Errorf("cookie-name is required")
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
