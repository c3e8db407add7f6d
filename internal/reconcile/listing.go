// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

package reconcile

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/tomtom215/ticketbridge/internal/logging"
	"github.com/tomtom215/ticketbridge/internal/models"
)

// ListSynced returns the tickets on or after the cutoff, newest id first.
// These are the tickets the create pass has synced or will sync.
func (e *Engine) ListSynced(ctx context.Context) ([]models.SourceTicket, error) {
	ctx = e.passContext(ctx, "list-synced")
	tickets, err := e.fetchRecentTickets(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(tickets, func(i, j int) bool { return tickets[i].ID > tickets[j].ID })
	logging.Ctx(ctx).Info().Int("tickets", len(tickets)).Msg("Listed synced tickets")
	return tickets, nil
}

const summaryWidth = 40

// WriteTicketTable prints tickets as an aligned table followed by a total.
func WriteTicketTable(w io.Writer, tickets []models.SourceTicket) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TICKET\tDEVICE\tCREATED\tSTATUS\tSUMMARY")
	for i := range tickets {
		t := &tickets[i]
		device := t.DeviceName()
		if device == "" {
			device = "N/A"
		}
		date, ok := UnixToCalendarDate(int64(t.CreateTime))
		if !ok {
			date = "N/A"
		}
		summary := t.Summary
		if summary == "" {
			summary = "N/A"
		}
		if r := []rune(summary); len(r) > summaryWidth {
			summary = string(r[:summaryWidth])
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", t.ID, device, date, t.Status.DisplayName, summary)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nTotal: %d tickets\n", len(tickets))
	return err
}
