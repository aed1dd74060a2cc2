// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CampusLink Contributors

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/campuslink/campuslink/internal/config"
)

// ServerStatus holds the probe results for a running server.
type ServerStatus struct {
	Running bool   `json:"running"`
	Health  string `json:"health,omitempty"`
	Store   string `json:"store,omitempty"`
	Error   string `json:"error,omitempty"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	metricsAddr string
	jsonOutput  bool
}

// NewStatusCmd creates the status subcommand with all flags configured.
func NewStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show status of the running CampusLink server",
		Long:  `Probe the health and readiness endpoints of a running CampusLink server.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.metricsAddr, "metrics-addr", config.DefaultMetricsAddr, "metrics/health address of the running server")
	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")

	return cmd
}

// runStatus executes the status command.
func runStatus(cmd *cobra.Command, cfg *statusConfig) error {
	status := queryServerStatus(cfg.metricsAddr)

	var output string
	if cfg.jsonOutput {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format JSON: %w", err)
		}
		output = string(data)
	} else {
		output = formatStatusTable(status)
	}

	cmd.Println(output)
	return nil
}

// queryServerStatus probes the liveness and readiness endpoints.
func queryServerStatus(metricsAddr string) ServerStatus {
	client := &http.Client{Timeout: 3 * time.Second}
	base := "http://" + metricsAddr

	status := ServerStatus{}

	body, err := probe(client, base+"/healthz")
	if err != nil {
		status.Error = fmt.Sprintf("server not reachable: %v", err)
		return status
	}
	status.Running = true
	status.Health = body

	// Readiness reports "degraded" with a 503 while the database is down;
	// the probe body is meaningful either way.
	body, err = probe(client, base+"/readyz")
	if err != nil {
		status.Store = "unknown"
		return status
	}
	if body == "ok" {
		status.Store = "connected"
	} else {
		status.Store = "degraded"
	}

	return status
}

// probe GETs the URL and returns the trimmed response body. Non-2xx
// responses are not errors; their bodies carry the state.
func probe(client *http.Client, url string) (string, error) {
	resp, err := client.Get(url)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

// formatStatusTable renders the status as an aligned text table.
func formatStatusTable(status ServerStatus) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 8, 2, ' ', 0)

	fmt.Fprintln(w, "FIELD\tVALUE")
	fmt.Fprintf(w, "running\t%v\n", status.Running)
	if status.Health != "" {
		fmt.Fprintf(w, "health\t%s\n", status.Health)
	}
	if status.Store != "" {
		fmt.Fprintf(w, "store\t%s\n", status.Store)
	}
	if status.Error != "" {
		fmt.Fprintf(w, "error\t%s\n", status.Error)
	}

	_ = w.Flush()
	return strings.TrimRight(sb.String(), "\n")
}
