// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

package reconcile

import (
	"context"

	"github.com/tomtom215/ticketbridge/internal/config"
	"github.com/tomtom215/ticketbridge/internal/logging"
	"github.com/tomtom215/ticketbridge/internal/models"
)

// TicketFields is the board field set derived from one ticket.
type TicketFields struct {
	TicketID    string
	DeviceID    string // short id
	Date        string // YYYY-MM-DD
	County      string
	Location    string
	Status      string // board label
	ServiceCall string // Yes, No, or "" when unknown
	Tags        []string
}

// fieldDeriver turns tickets into board fields.
type fieldDeriver struct {
	columns    config.ColumnConfig
	attributes config.AttributeConfig
	status     StatusVocabulary
	lookup     LookupIndex
}

// derive builds the field set for a ticket. Device directory values
// override the ticket's own county and location when present.
func (d *fieldDeriver) derive(ctx context.Context, t *models.SourceTicket) TicketFields {
	f := TicketFields{
		TicketID: linkageKey(t.ID),
		Location: t.LocationName(),
		Status:   d.status.Map(t.Status.DisplayName),
		Tags:     t.Tags,
	}
	f.DeviceID, _ = ToShortDeviceID(t.DeviceName())
	f.Date, _ = UnixToCalendarDate(int64(t.CreateTime))
	if d.attributes.County != 0 {
		f.County = t.AttributeText(d.attributes.County)
	}
	f.ServiceCall, _ = BooleanLabel(t, d.attributes.ServiceCall)

	if f.DeviceID != "" {
		if info, ok := d.lookup.Get(f.DeviceID); ok {
			if info.County != "" {
				f.County = info.County
			}
			if info.Location != "" {
				f.Location = info.Location
			}
		} else {
			logging.Ctx(ctx).Warn().Str("device", f.DeviceID).Str("ticket", f.TicketID).Msg("Device not found in device directory")
		}
	}
	return f
}

// createColumns renders the column values written when creating an item.
// The tags column is filled in after tag resolution.
func (d *fieldDeriver) createColumns(f TicketFields) models.ColumnValues {
	values := models.ColumnValues{
		d.columns.Linkage:  f.TicketID,
		d.columns.Device:   f.DeviceID,
		d.columns.Date:     f.Date,
		d.columns.County:   f.County,
		d.columns.Location: f.Location,
		d.columns.Status:   f.Status,
	}
	if d.columns.ServiceCall != "" && f.ServiceCall != "" {
		values[d.columns.ServiceCall] = dropdownValue(f.ServiceCall)
	}
	return values
}

// diffColumns compares derived fields with an item's rendered text and
// returns only the columns that differ.
func (d *fieldDeriver) diffColumns(f TicketFields, item models.Item) models.ColumnValues {
	updates := models.ColumnValues{}
	text := map[string]string{
		d.columns.Device:   f.DeviceID,
		d.columns.Date:     f.Date,
		d.columns.County:   f.County,
		d.columns.Location: f.Location,
		d.columns.Status:   f.Status,
	}
	for column, want := range text {
		if item.Text(column) != want {
			updates[column] = want
		}
	}
	if d.columns.ServiceCall != "" && f.ServiceCall != "" && item.Text(d.columns.ServiceCall) != f.ServiceCall {
		updates[d.columns.ServiceCall] = dropdownValue(f.ServiceCall)
	}
	return updates
}

func dropdownValue(label string) map[string][]string {
	return map[string][]string{"labels": {label}}
}

func tagsValue(ids []int64) map[string][]int64 {
	return map[string][]int64{"tag_ids": ids}
}

func healthValue(label string) map[string]string {
	return map[string]string{"label": label}
}
