// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ticketbridge/internal/board"
	"github.com/tomtom215/ticketbridge/internal/config"
	"github.com/tomtom215/ticketbridge/internal/logging"
	"github.com/tomtom215/ticketbridge/internal/metrics"
	"github.com/tomtom215/ticketbridge/internal/models"
	"github.com/tomtom215/ticketbridge/internal/reconcile"
	"github.com/tomtom215/ticketbridge/internal/ticketing"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	dryRun     bool
}

// runner is the part of reconcile.Engine the commands drive.
type runner interface {
	Sync(ctx context.Context, opts reconcile.Options) (*reconcile.Summary, error)
	Health(ctx context.Context, dryRun bool) (*reconcile.HealthSummary, error)
	Backfill(ctx context.Context, policy reconcile.MatchPolicy, apply bool) (*reconcile.BackfillReport, error)
	ListSynced(ctx context.Context) ([]models.SourceTicket, error)
}

// newRunner wires the engine to the circuit-breaker protected clients.
// Tests replace it.
var newRunner = func(cfg *config.Config) runner {
	return reconcile.NewEngine(cfg,
		ticketing.NewCircuitBreakerClient(&cfg.Ticketing),
		board.NewCircuitBreakerClient(&cfg.Board),
	)
}

// loadConfig loads and validates the configuration, then applies its
// logging settings.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithKoanf(o.configPath)
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	return cfg, nil
}

// pass loads the configuration and builds a runner for one command.
func (o *rootOptions) pass(ctx context.Context) (context.Context, *config.Config, runner, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return ctx, nil, nil, err
	}
	ctx = logging.ContextWithNewRunID(ctx)
	logging.Ctx(ctx).Info().
		Str("tickets_board", cfg.Board.TicketsBoardID).
		Str("devices_board", cfg.Board.DevicesBoardID).
		Str("cutoff", cfg.Sync.MinCreateDate).
		Bool("dry_run", o.dryRun).
		Msg("Configuration loaded")
	return ctx, cfg, newRunner(cfg), nil
}

// finish prints the result as indented JSON and pushes metrics when a
// Pushgateway is configured. A failed push is logged, not returned.
func finish(ctx context.Context, w io.Writer, cfg *config.Config, result any) error {
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	if _, err := fmt.Fprintln(w, string(out)); err != nil {
		return err
	}
	pushMetrics(ctx, cfg)
	return nil
}

const pushTimeout = 10 * time.Second

func pushMetrics(ctx context.Context, cfg *config.Config) {
	if cfg == nil || cfg.Metrics.PushgatewayURL == "" {
		return
	}
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
	defer cancel()
	if err := metrics.Push(pushCtx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to push metrics")
	}
}
