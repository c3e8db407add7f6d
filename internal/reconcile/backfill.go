// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/ticketbridge/internal/logging"
	"github.com/tomtom215/ticketbridge/internal/metrics"
	"github.com/tomtom215/ticketbridge/internal/models"
)

// ErrReviewOnly is returned when applying a policy that only reports.
var ErrReviewOnly = errors.New("match policy is review only")

// Candidate is the best match found for one unlinked board item.
type Candidate struct {
	ItemID    string   `json:"item_id"`
	ItemName  string   `json:"item_name"`
	TicketID  string   `json:"ticket_id,omitempty"`
	Summary   string   `json:"summary,omitempty"`
	Score     float64  `json:"score"`
	Matches   []string `json:"matches,omitempty"`
	Confident bool     `json:"confident"`
	Applied   bool     `json:"applied,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// BackfillReport is the structured result of a backfill pass.
type BackfillReport struct {
	Pass          string      `json:"pass"`
	RunID         string      `json:"run_id,omitempty"`
	Policy        MatchPolicy `json:"policy"`
	Apply         bool        `json:"apply"`
	Unlinked      int         `json:"unlinked"`
	Confident     int         `json:"confident"`
	LowConfidence int         `json:"low_confidence"`
	NoMatch       int         `json:"no_match"`
	Applied       int         `json:"applied"`
	Failed        int         `json:"failed"`
	Duration      string      `json:"duration"`
	Candidates    []Candidate `json:"candidates,omitempty"`
}

// Counts returns the outcome counts keyed for metrics.
func (r *BackfillReport) Counts() map[string]int {
	return map[string]int{
		"confident":      r.Confident,
		"low_confidence": r.LowConfidence,
		"no_match":       r.NoMatch,
		"applied":        r.Applied,
		"failed":         r.Failed,
	}
}

// Backfill finds tickets for board items that have no linkage key.
//
// PolicyAttributes considers only items with integer names and links
// matches scoring ConfidentScore or more when apply is set; lower scores are
// reported. PolicySummary reports matches scoring above ReviewScore and
// never writes. Tickets already linked to an item are not candidates, and a
// ticket is linked to at most one item per run.
func (e *Engine) Backfill(ctx context.Context, policy MatchPolicy, apply bool) (*BackfillReport, error) {
	pass := "backfill-" + string(policy)
	if policy == PolicySummary && apply {
		return nil, fmt.Errorf("policy %s: %w", policy, ErrReviewOnly)
	}
	ctx = e.passContext(ctx, pass)
	start := time.Now()

	report, err := e.backfill(ctx, policy, apply)
	if err != nil {
		metrics.RecordPassFailure(pass, time.Since(start))
		return nil, err
	}
	report.Pass = pass
	report.RunID = logging.RunIDFromContext(ctx)
	report.Duration = time.Since(start).Round(time.Millisecond).String()
	logging.Ctx(ctx).Info().
		Int("unlinked", report.Unlinked).
		Int("confident", report.Confident).
		Int("low_confidence", report.LowConfidence).
		Int("no_match", report.NoMatch).
		Int("applied", report.Applied).
		Int("failed", report.Failed).
		Msg("Pass complete")
	metrics.RecordPass(pass, report.Counts(), time.Since(start))
	return report, nil
}

func (e *Engine) backfill(ctx context.Context, policy MatchPolicy, apply bool) (*BackfillReport, error) {
	log := logging.Ctx(ctx)
	report := &BackfillReport{Policy: policy, Apply: apply}

	items, err := e.fetchTicketBoard(ctx)
	if err != nil {
		return nil, err
	}
	unlinked := Unlinked(items, e.cfg.Columns.Linkage)
	if len(unlinked) == 0 {
		log.Info().Msg("Every board item already has a ticket id")
		return report, nil
	}

	tickets, err := e.fetchRecentTickets(ctx)
	if err != nil {
		return nil, err
	}
	linked := LinkageIndex(items, e.cfg.Columns.Linkage)
	candidates := make([]models.SourceTicket, 0, len(tickets))
	for _, t := range tickets {
		if _, ok := linked[linkageKey(t.ID)]; !ok {
			candidates = append(candidates, t)
		}
	}

	var score scorer
	switch policy {
	case PolicyAttributes:
		lookup, _, err := e.fetchDeviceIndex(ctx)
		if err != nil {
			return nil, err
		}
		score = AttributeScorer(lookup, e.cfg.Attributes.County)
	case PolicySummary:
		score = SummaryScorer
	default:
		return nil, fmt.Errorf("unknown match policy %q", policy)
	}

	claimed := make(map[string]bool)
	applies := 0
	for _, item := range unlinked {
		if policy == PolicyAttributes {
			if _, ok := item.Number(); !ok {
				continue
			}
		}
		report.Unlinked++

		target := TargetFieldsFromItem(item, e.cfg.Columns)
		m, found := bestMatch(target, unclaimed(candidates, claimed), score)
		if !found {
			report.NoMatch++
			log.Debug().Str("item", item.Name).Msg("No match")
			continue
		}

		c := Candidate{
			ItemID:   item.ID,
			ItemName: item.Name,
			TicketID: linkageKey(m.Ticket.ID),
			Summary:  m.Ticket.Summary,
			Score:    m.Score,
			Matches:  m.Matches,
		}

		switch policy {
		case PolicyAttributes:
			c.Confident = m.Score >= ConfidentScore
		case PolicySummary:
			if m.Score <= ReviewScore {
				report.NoMatch++
				continue
			}
			c.Confident = true
		}
		if !c.Confident {
			report.LowConfidence++
			report.Candidates = append(report.Candidates, c)
			log.Info().Str("item", item.Name).Str("ticket", c.TicketID).Float64("score", c.Score).Msg("Low confidence match, not applied")
			continue
		}
		report.Confident++

		if apply {
			if applies > 0 {
				if err := e.wait(ctx, e.cfg.Sync.ItemDelay); err != nil {
					return nil, err
				}
			}
			applies++
			values := models.ColumnValues{e.cfg.Columns.Linkage: c.TicketID}
			if err := e.board.UpdateItemColumns(ctx, e.cfg.Board.TicketsBoardID, item.ID, values); err != nil {
				c.Error = err.Error()
				report.Failed++
				log.Error().Err(err).Str("item", item.Name).Str("ticket", c.TicketID).Msg("Failed to link board item")
			} else {
				c.Applied = true
				report.Applied++
				claimed[c.TicketID] = true
				log.Info().Str("item", item.Name).Str("ticket", c.TicketID).Float64("score", c.Score).Strs("matches", c.Matches).Msg("Linked board item to ticket")
			}
		}
		report.Candidates = append(report.Candidates, c)
	}

	return report, nil
}

// unclaimed drops tickets linked earlier in this run.
func unclaimed(tickets []models.SourceTicket, claimed map[string]bool) []models.SourceTicket {
	if len(claimed) == 0 {
		return tickets
	}
	out := make([]models.SourceTicket, 0, len(tickets))
	for _, t := range tickets {
		if !claimed[linkageKey(t.ID)] {
			out = append(out, t)
		}
	}
	return out
}
