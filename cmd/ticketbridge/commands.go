// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/ticketbridge/internal/reconcile"
)

func newSyncCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Create board items for new tickets",
		Long: `Fetch tickets created on or after sync.min_create_date and create a board
item for every ticket that is not yet on the tickets board.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, opts, reconcile.Options{Mode: reconcile.ModeCreate, DryRun: opts.dryRun})
		},
	}
}

func newUpdateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Refresh linked board items",
		Long:  `Rewrite the columns of board items whose ticket has changed since the last run.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, opts, reconcile.Options{Mode: reconcile.ModeUpdate, DryRun: opts.dryRun})
		},
	}
}

func newTestSyncCommand(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "test-sync",
		Short: "Create at most a few board items",
		Long:  `Run the create pass but stop after --limit items (default: sync.test_limit).`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}
			return runSync(cmd, opts, reconcile.Options{Mode: reconcile.ModeTestLimited, DryRun: opts.dryRun, Limit: limit})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of items to create")
	return cmd
}

func runSync(cmd *cobra.Command, opts *rootOptions, syncOpts reconcile.Options) error {
	ctx, cfg, r, err := opts.pass(cmd.Context())
	if err != nil {
		return err
	}
	summary, err := r.Sync(ctx, syncOpts)
	if err != nil {
		pushMetrics(ctx, cfg)
		return err
	}
	return finish(ctx, cmd.OutOrStdout(), cfg, summary)
}

func newHealthCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Roll ticket status up to device health",
		Long: `Set the health column of every device on the devices board from the status
of its most recent board item. Requires columns.health.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cfg, r, err := opts.pass(cmd.Context())
			if err != nil {
				return err
			}
			summary, err := r.Health(ctx, opts.dryRun)
			if err != nil {
				pushMetrics(ctx, cfg)
				return err
			}
			return finish(ctx, cmd.OutOrStdout(), cfg, summary)
		},
	}
}

// runAllResult is printed by run-all.
type runAllResult struct {
	Sync   *reconcile.Summary       `json:"sync"`
	Health *reconcile.HealthSummary `json:"health"`
}

func newRunAllCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run-all",
		Short: "Create board items, then update device health",
		Long:  `Run the create pass and then the health pass. The health pass is skipped when the create pass fails.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cfg, r, err := opts.pass(cmd.Context())
			if err != nil {
				return err
			}
			var result runAllResult
			result.Sync, err = r.Sync(ctx, reconcile.Options{Mode: reconcile.ModeCreate, DryRun: opts.dryRun})
			if err != nil {
				pushMetrics(ctx, cfg)
				return fmt.Errorf("create pass failed, health pass skipped: %w", err)
			}
			result.Health, err = r.Health(ctx, opts.dryRun)
			if err != nil {
				pushMetrics(ctx, cfg)
				return fmt.Errorf("health pass failed: %w", err)
			}
			return finish(ctx, cmd.OutOrStdout(), cfg, result)
		},
	}
}

func newBackfillCommand(opts *rootOptions) *cobra.Command {
	var (
		policy string
		apply  bool
	)
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Link existing board items to tickets",
		Long: `Find the best matching ticket for every board item without a ticket id.

Policy a scores device, county, location and tags and, with --apply, writes
the ticket id of confident matches. Policy b scores device, date and summary
similarity and only reports.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := reconcile.ParseMatchPolicy(policy)
			if err != nil {
				return err
			}
			if apply && opts.dryRun {
				return fmt.Errorf("--apply and --dry-run cannot be combined")
			}
			ctx, cfg, r, err := opts.pass(cmd.Context())
			if err != nil {
				return err
			}
			report, err := r.Backfill(ctx, p, apply)
			if err != nil {
				pushMetrics(ctx, cfg)
				return err
			}
			return finish(ctx, cmd.OutOrStdout(), cfg, report)
		},
	}
	cmd.Flags().StringVarP(&policy, "policy", "p", string(reconcile.PolicyAttributes), "Match policy: a (attributes) or b (summary, report only)")
	cmd.Flags().BoolVar(&apply, "apply", false, "Write ticket ids for confident matches")
	return cmd
}

func newListSyncedCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list-synced",
		Short: "Print the tickets in sync scope",
		Long:  `List tickets created on or after sync.min_create_date, newest first.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, _, r, err := opts.pass(cmd.Context())
			if err != nil {
				return err
			}
			tickets, err := r.ListSynced(ctx)
			if err != nil {
				return err
			}
			return reconcile.WriteTicketTable(cmd.OutOrStdout(), tickets)
		},
	}
}
