// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

package reconcile

import (
	"context"
	"fmt"

	"github.com/tomtom215/ticketbridge/internal/logging"
	"github.com/tomtom215/ticketbridge/internal/models"
)

// update runs the update pass: every recent ticket already linked to a board
// item has its derived fields compared with the item's rendered text, and
// only differing columns are written. Tags are written whenever the ticket
// has any, changed or not.
func (e *Engine) update(ctx context.Context, opts Options) (*Summary, error) {
	log := logging.Ctx(ctx)
	summary := &Summary{Pass: string(opts.Mode), DryRun: opts.DryRun}

	lookup, _, err := e.fetchDeviceIndex(ctx)
	if err != nil {
		return nil, err
	}
	knownTags, err := e.fetchKnownTags(ctx)
	if err != nil {
		return nil, err
	}
	items, err := e.fetchTicketBoard(ctx)
	if err != nil {
		return nil, err
	}
	tickets, err := e.fetchRecentTickets(ctx)
	if err != nil {
		return nil, err
	}

	linked := LinkageIndex(items, e.cfg.Columns.Linkage)
	tags := newTagCache(e.board, e.cfg.Board.TicketsBoardID, knownTags)
	deriver := e.deriver(lookup)

	log.Info().Int("linked", len(linked)).Msg("Mapped board items by ticket id")

	for i := range tickets {
		summary.Considered++
		key := linkageKey(tickets[i].ID)
		item, ok := linked[key]
		if !ok {
			summary.record(OutcomeNotFound)
			log.Warn().Str("ticket", key).Msg("Ticket not on board; the create pass will add it")
			continue
		}

		fields := deriver.derive(ctx, &tickets[i])
		updates := deriver.diffColumns(fields, item)
		if len(updates) == 0 && len(fields.Tags) == 0 {
			summary.record(OutcomeUnchanged)
			continue
		}

		op := Operation{Kind: OpUpdate, TicketID: key, ItemID: item.ID, ItemName: item.Name, Columns: updates, Tags: fields.Tags}

		if opts.DryRun {
			if ids := tags.known(fields.Tags); len(ids) > 0 {
				updates[e.cfg.Columns.Tags] = tagsValue(ids)
			}
			op.Outcome = OutcomePlanned
			summary.record(op.Outcome)
			summary.Operations = append(summary.Operations, op)
			continue
		}

		if err := e.updateOne(ctx, tags, item, fields, updates); err != nil {
			op.Outcome = OutcomeUpdateFailed
			op.Error = err.Error()
			log.Error().Err(err).Str("ticket", key).Str("item", item.Name).Msg("Failed to update board item")
		} else {
			op.Outcome = OutcomeUpdated
			log.Info().Str("ticket", key).Str("item", item.Name).Int("columns", len(updates)).Msg("Updated board item")
		}
		summary.record(op.Outcome)
		summary.Operations = append(summary.Operations, op)

		if err := e.wait(ctx, e.cfg.Sync.UpdateDelay); err != nil {
			return nil, err
		}
	}

	return summary, nil
}

func (e *Engine) updateOne(ctx context.Context, tags *tagCache, item models.Item, fields TicketFields, updates models.ColumnValues) error {
	if len(fields.Tags) > 0 {
		ids, err := tags.resolve(ctx, fields.Tags)
		if err != nil {
			return err
		}
		updates[e.cfg.Columns.Tags] = tagsValue(ids)
	}
	if err := e.board.UpdateItemColumns(ctx, e.cfg.Board.TicketsBoardID, item.ID, updates); err != nil {
		return fmt.Errorf("update item %s: %w", item.ID, err)
	}
	return nil
}
