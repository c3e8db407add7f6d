// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

/*
engine.go - Reconciliation Engine

This file defines the Engine that drives every sync pass, the collaborator
interfaces it consumes, and the run summary it returns.

Passes:
  - Sync (create.go, update.go): ticket -> board create or update,
    selected by Mode. Test-limited mode caps the number of creates.
  - Health (health.go): ticket board -> device board health labels.
  - Backfill (backfill.go): link unlinked board items to tickets by score.
  - ListSynced (listing.go): date-gated ticket listing.

Every pass is sequential: one remote call at a time, in upstream order.
The tag cache and the linkage index live for one pass and are not
synchronized.

Error policy:
  - Setup failures (initial fetches) abort the pass and return an error.
  - Per-item failures are logged, counted in the Summary, and skipped.
*/

//nolint:staticcheck // File documentation, not package doc
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/ticketbridge/internal/config"
	"github.com/tomtom215/ticketbridge/internal/logging"
	"github.com/tomtom215/ticketbridge/internal/metrics"
	"github.com/tomtom215/ticketbridge/internal/models"
)

// TicketSource is the ticketing service as seen by the engine.
type TicketSource interface {
	ListAllTickets(ctx context.Context, boardIDs []int) ([]models.SourceTicket, error)
}

// BoardService is the work board service as seen by the engine.
type BoardService interface {
	ListBoardItems(ctx context.Context, boardID string) ([]models.Item, error)
	ListColumns(ctx context.Context, boardID string) ([]models.Column, error)
	CreateItem(ctx context.Context, boardID, name string, values models.ColumnValues) (models.CreatedItem, error)
	UpdateItemColumns(ctx context.Context, boardID, itemID string, values models.ColumnValues) error
	GetOrCreateTag(ctx context.Context, boardID, name string) (int64, error)
}

// Mode selects the sync pass.
type Mode string

const (
	ModeCreate      Mode = "create"
	ModeUpdate      Mode = "update"
	ModeTestLimited Mode = "test-limited"
)

// Options control one sync pass.
type Options struct {
	Mode   Mode
	DryRun bool // plan only: no creates, updates or tag creates
	Limit  int  // create cap for ModeTestLimited; 0 uses sync.test_limit
}

// Outcome is the result recorded for one ticket or device.
type Outcome string

const (
	OutcomeSkippedDuplicate Outcome = "SKIPPED_DUPLICATE"
	OutcomeCreated          Outcome = "CREATED"
	OutcomeCreateFailed     Outcome = "CREATE_FAILED"
	OutcomeUnchanged        Outcome = "UNCHANGED"
	OutcomeUpdated          Outcome = "UPDATED"
	OutcomeUpdateFailed     Outcome = "UPDATE_FAILED"
	OutcomeNotFound         Outcome = "NOT_FOUND"
	OutcomePlanned          Outcome = "PLANNED"
)

// OperationKind names a side effect against the board.
type OperationKind string

const (
	OpCreate OperationKind = "create"
	OpUpdate OperationKind = "update"
	OpHealth OperationKind = "health"
)

// Operation is one side effect, issued or planned, in processing order.
type Operation struct {
	Kind     OperationKind       `json:"kind"`
	TicketID string              `json:"ticket_id,omitempty"`
	ItemID   string              `json:"item_id,omitempty"`
	ItemName string              `json:"item_name,omitempty"`
	Columns  models.ColumnValues `json:"columns,omitempty"`
	Tags     []string            `json:"tags,omitempty"`
	Outcome  Outcome             `json:"outcome"`
	Error    string              `json:"error,omitempty"`
}

// Summary is the structured result of a sync pass.
type Summary struct {
	Pass             string      `json:"pass"`
	RunID            string      `json:"run_id,omitempty"`
	DryRun           bool        `json:"dry_run,omitempty"`
	Considered       int         `json:"considered"`
	Created          int         `json:"created"`
	Updated          int         `json:"updated"`
	SkippedDuplicate int         `json:"skipped_duplicate"`
	NotFound         int         `json:"not_found"`
	Failed           int         `json:"failed"`
	Unchanged        int         `json:"unchanged"`
	Planned          int         `json:"planned,omitempty"`
	Deferred         int         `json:"deferred,omitempty"` // over the test limit
	Duration         string      `json:"duration"`
	Operations       []Operation `json:"operations,omitempty"`
}

func (s *Summary) record(o Outcome) {
	switch o {
	case OutcomeSkippedDuplicate:
		s.SkippedDuplicate++
	case OutcomeCreated:
		s.Created++
	case OutcomeUpdated:
		s.Updated++
	case OutcomeCreateFailed, OutcomeUpdateFailed:
		s.Failed++
	case OutcomeUnchanged:
		s.Unchanged++
	case OutcomeNotFound:
		s.NotFound++
	case OutcomePlanned:
		s.Planned++
	}
}

// Counts returns the outcome counts keyed for metrics.
func (s *Summary) Counts() map[string]int {
	return map[string]int{
		"created":           s.Created,
		"updated":           s.Updated,
		"skipped_duplicate": s.SkippedDuplicate,
		"not_found":         s.NotFound,
		"failed":            s.Failed,
		"unchanged":         s.Unchanged,
		"planned":           s.Planned,
	}
}

// Engine runs reconciliation passes against the two services.
type Engine struct {
	cfg     *config.Config
	tickets TicketSource
	board   BoardService

	status   StatusVocabulary
	health   HealthVocabulary
	resolver DeviceFieldResolver

	// wait pauses between remote calls; replaced in tests.
	wait func(ctx context.Context, d time.Duration) error
}

// NewEngine creates an engine. cfg must have passed validation.
func NewEngine(cfg *config.Config, tickets TicketSource, board BoardService) *Engine {
	return &Engine{
		cfg:     cfg,
		tickets: tickets,
		board:   board,
		status:  NewStatusVocabulary(cfg.StatusMapping, cfg.Sync.DefaultStatus),
		health:  NewHealthVocabulary(cfg.HealthMapping, cfg.Sync.UnknownHealth),
		resolver: TitleResolver{
			CountyTitle:   cfg.DeviceTitles.County,
			LocationTitle: cfg.DeviceTitles.Location,
		},
		wait: sleep,
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sync runs the create or update pass selected by opts.Mode.
func (e *Engine) Sync(ctx context.Context, opts Options) (*Summary, error) {
	pass := string(opts.Mode)
	ctx = e.passContext(ctx, pass)
	start := time.Now()

	var (
		summary *Summary
		err     error
	)
	switch opts.Mode {
	case ModeCreate, ModeTestLimited:
		summary, err = e.create(ctx, opts)
	case ModeUpdate:
		summary, err = e.update(ctx, opts)
	default:
		return nil, fmt.Errorf("unknown sync mode %q", opts.Mode)
	}

	if err != nil {
		metrics.RecordPassFailure(pass, time.Since(start))
		return nil, err
	}
	e.finish(ctx, summary, start)
	metrics.RecordPass(pass, summary.Counts(), time.Since(start))
	return summary, nil
}

// passContext tags ctx with the pass name and a run id if none is set.
func (e *Engine) passContext(ctx context.Context, pass string) context.Context {
	if logging.RunIDFromContext(ctx) == "" {
		ctx = logging.ContextWithNewRunID(ctx)
	}
	return logging.ContextWithPass(ctx, pass)
}

func (e *Engine) finish(ctx context.Context, s *Summary, start time.Time) {
	s.RunID = logging.RunIDFromContext(ctx)
	s.Duration = time.Since(start).Round(time.Millisecond).String()
	logging.Ctx(ctx).Info().
		Int("considered", s.Considered).
		Int("created", s.Created).
		Int("updated", s.Updated).
		Int("skipped_duplicate", s.SkippedDuplicate).
		Int("not_found", s.NotFound).
		Int("failed", s.Failed).
		Int("unchanged", s.Unchanged).
		Int("planned", s.Planned).
		Str("duration", s.Duration).
		Msg("Pass complete")
}

// fetchDeviceIndex loads the device directory board into a lookup index.
func (e *Engine) fetchDeviceIndex(ctx context.Context) (LookupIndex, []models.Item, error) {
	items, err := e.board.ListBoardItems(ctx, e.cfg.Board.DevicesBoardID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch device board: %w", err)
	}
	idx := BuildLookupIndex(items, e.resolver)
	logging.Ctx(ctx).Info().Int("devices", len(items)).Int("indexed", len(idx)).Msg("Built device lookup index")
	return idx, items, nil
}

// fetchTicketBoard loads every item on the tickets board.
func (e *Engine) fetchTicketBoard(ctx context.Context) ([]models.Item, error) {
	items, err := e.board.ListBoardItems(ctx, e.cfg.Board.TicketsBoardID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tickets board: %w", err)
	}
	logging.Ctx(ctx).Info().Int("items", len(items)).Msg("Fetched tickets board")
	return items, nil
}

// fetchKnownTags reads the tag ids already defined on the tags column.
func (e *Engine) fetchKnownTags(ctx context.Context) (map[string]int64, error) {
	columns, err := e.board.ListColumns(ctx, e.cfg.Board.TicketsBoardID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch board columns: %w", err)
	}
	for i := range columns {
		if columns[i].ID != e.cfg.Columns.Tags {
			continue
		}
		tags, err := columns[i].TagIDs()
		if err != nil {
			return nil, err
		}
		logging.Ctx(ctx).Info().Int("tags", len(tags)).Msg("Loaded existing tags")
		return tags, nil
	}
	logging.Ctx(ctx).Warn().Str("column", e.cfg.Columns.Tags).Msg("Tags column not found on board")
	return map[string]int64{}, nil
}

// fetchRecentTickets loads tickets created on or after the cutoff, in
// upstream order.
func (e *Engine) fetchRecentTickets(ctx context.Context) ([]models.SourceTicket, error) {
	all, err := e.tickets.ListAllTickets(ctx, e.cfg.Ticketing.BoardIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tickets: %w", err)
	}
	recent := FilterByCutoff(all, e.cfg.Sync.CutoffUnix())
	logging.Ctx(ctx).Info().
		Int("fetched", len(all)).
		Int("recent", len(recent)).
		Str("cutoff", e.cfg.Sync.MinCreateDate).
		Msg("Fetched tickets")
	return recent, nil
}

// FilterByCutoff keeps tickets created at or after cutoff (Unix seconds).
func FilterByCutoff(tickets []models.SourceTicket, cutoff int64) []models.SourceTicket {
	out := make([]models.SourceTicket, 0, len(tickets))
	for _, t := range tickets {
		if int64(t.CreateTime) >= cutoff {
			out = append(out, t)
		}
	}
	return out
}
