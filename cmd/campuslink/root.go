// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CampusLink Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the CampusLink CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "campuslink",
		Short: "CampusLink - A campus social network",
		Long: `CampusLink is a social network for university students with
account management, sessions, and a posts feed backed by PostgreSQL.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewStatusCmd())

	return cmd
}
