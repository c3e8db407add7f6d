// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

package reconcile

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/tomtom215/ticketbridge/internal/logging"
	"github.com/tomtom215/ticketbridge/internal/models"
)

// pendingCreate is a ticket that passed the duplicate check.
type pendingCreate struct {
	fields  TicketFields
	columns models.ColumnValues
}

// create runs the create pass: every recent ticket without a linked board
// item becomes a new item named with the next sequential number.
func (e *Engine) create(ctx context.Context, opts Options) (*Summary, error) {
	log := logging.Ctx(ctx)
	summary := &Summary{Pass: string(opts.Mode), DryRun: opts.DryRun}

	lookup, _, err := e.fetchDeviceIndex(ctx)
	if err != nil {
		return nil, err
	}
	items, err := e.fetchTicketBoard(ctx)
	if err != nil {
		return nil, err
	}
	knownTags, err := e.fetchKnownTags(ctx)
	if err != nil {
		return nil, err
	}
	tickets, err := e.fetchRecentTickets(ctx)
	if err != nil {
		return nil, err
	}

	linked := LinkageIndex(items, e.cfg.Columns.Linkage)
	nextNumber := NextItemNumber(items)
	tags := newTagCache(e.board, e.cfg.Board.TicketsBoardID, knownTags)
	deriver := e.deriver(lookup)

	log.Info().Int("linked", len(linked)).Int("next_number", nextNumber).Msg("Indexed existing board items")

	var pending []pendingCreate
	for i := range tickets {
		summary.Considered++
		key := linkageKey(tickets[i].ID)
		if _, ok := linked[key]; ok {
			summary.record(OutcomeSkippedDuplicate)
			log.Debug().Str("ticket", key).Msg("Ticket already on board, skipping")
			continue
		}
		fields := deriver.derive(ctx, &tickets[i])
		pending = append(pending, pendingCreate{fields: fields, columns: deriver.createColumns(fields)})
	}

	if opts.Mode == ModeTestLimited {
		limit := opts.Limit
		if limit <= 0 {
			limit = e.cfg.Sync.TestLimit
		}
		if len(pending) > limit {
			summary.Deferred = len(pending) - limit
			pending = pending[:limit]
			log.Info().Int("limit", limit).Int("deferred", summary.Deferred).Msg("Test mode: creating a limited number of items")
		}
	}

	log.Info().Int("to_create", len(pending)).Msg("Prepared items to create")

	for i, p := range pending {
		name := strconv.Itoa(nextNumber)
		op := Operation{Kind: OpCreate, TicketID: p.fields.TicketID, ItemName: name, Columns: p.columns, Tags: p.fields.Tags}

		if opts.DryRun {
			if ids := tags.known(p.fields.Tags); len(ids) > 0 {
				op.Columns[e.cfg.Columns.Tags] = tagsValue(ids)
			}
			op.Outcome = OutcomePlanned
			summary.record(op.Outcome)
			summary.Operations = append(summary.Operations, op)
			nextNumber++
			continue
		}

		created, err := e.createOne(ctx, tags, p, name)
		if err != nil {
			op.Outcome = OutcomeCreateFailed
			op.Error = err.Error()
			log.Error().Err(err).Str("ticket", p.fields.TicketID).Str("item", name).Msg("Failed to create board item")
		} else {
			op.Outcome = OutcomeCreated
			op.ItemID = created.ID
			nextNumber++
			log.Info().Str("ticket", p.fields.TicketID).Str("item", name).Str("item_id", created.ID).Msg("Created board item")
		}
		summary.record(op.Outcome)
		summary.Operations = append(summary.Operations, op)

		if i < len(pending)-1 {
			if err := e.wait(ctx, e.cfg.Sync.ItemDelay); err != nil {
				return nil, err
			}
		}
	}

	return summary, nil
}

// createOne resolves tags and creates the item with linear-backoff retries.
func (e *Engine) createOne(ctx context.Context, tags *tagCache, p pendingCreate, name string) (models.CreatedItem, error) {
	if len(p.fields.Tags) > 0 {
		ids, err := tags.resolve(ctx, p.fields.Tags)
		if err != nil {
			return models.CreatedItem{}, err
		}
		p.columns[e.cfg.Columns.Tags] = tagsValue(ids)
	}

	attempts := e.cfg.Sync.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		created, err := e.board.CreateItem(ctx, e.cfg.Board.TicketsBoardID, name, p.columns)
		if err == nil {
			return created, nil
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		delay := time.Duration(attempt) * e.cfg.Sync.RetryDelay
		logging.Ctx(ctx).Warn().Err(err).Int("attempt", attempt).Int("attempts", attempts).Str("item", name).Dur("delay", delay).Msg("Create failed, retrying")
		if err := e.wait(ctx, delay); err != nil {
			return models.CreatedItem{}, err
		}
	}
	return models.CreatedItem{}, fmt.Errorf("create item %s after %d attempts: %w", name, attempts, lastErr)
}

func (e *Engine) deriver(lookup LookupIndex) *fieldDeriver {
	return &fieldDeriver{
		columns:    e.cfg.Columns,
		attributes: e.cfg.Attributes,
		status:     e.status,
		lookup:     lookup,
	}
}
