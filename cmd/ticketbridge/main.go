// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

// Package main is the entry point for the ticketbridge command.
//
// Ticketbridge copies helpdesk tickets onto a work board, keeps the board
// items in step with later ticket changes and rolls ticket status up into a
// per-device health column. Each command runs one pass and exits; scheduling
// is left to cron or a systemd timer.
//
// # Commands
//
//	ticketbridge sync                  create board items for new tickets
//	ticketbridge update                refresh linked board items
//	ticketbridge test-sync --limit 3   create at most N items
//	ticketbridge health                roll ticket status up to devices
//	ticketbridge run-all               sync, then health
//	ticketbridge backfill --policy a   link existing board items to tickets
//	ticketbridge list-synced           print the tickets in scope
//	ticketbridge config view           print the effective configuration
//
// Every pass accepts --dry-run and prints its summary as JSON on stdout.
// Logs go to stderr.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables (NINJA_*, MONDAY_*, COLUMN_*, SYNC_*, LOG_*)
//   - Config file (--config, CONFIG_PATH, config.yaml or /etc/ticketbridge/config.yaml)
//   - Built-in defaults
//
// # Exit Codes
//
// 0 when the pass completed, even if individual items failed; 1 when setup
// failed (configuration, or fetching tickets or either board).
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the run context. The pass stops at the next
// remote call or delay and exits 1.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomtom215/ticketbridge/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		logging.Error().Err(err).Msg("Run failed")
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "ticketbridge",
		Short: "Ticketbridge - helpdesk ticket to work board synchronization",
		Long: `Ticketbridge mirrors helpdesk tickets onto a work board, keeps the mirrored
items up to date and aggregates ticket status into device health.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to config file (default: config.yaml or $CONFIG_PATH)")
	rootCmd.PersistentFlags().BoolVar(&opts.dryRun, "dry-run", false, "Plan changes without writing to the board")

	rootCmd.AddCommand(
		newSyncCommand(opts),
		newUpdateCommand(opts),
		newTestSyncCommand(opts),
		newHealthCommand(opts),
		newRunAllCommand(opts),
		newBackfillCommand(opts),
		newListSyncedCommand(opts),
		newConfigCommand(opts),
	)

	return rootCmd
}
