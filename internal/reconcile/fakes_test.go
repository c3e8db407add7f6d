// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/tomtom215/ticketbridge/internal/config"
	"github.com/tomtom215/ticketbridge/internal/models"
)

const (
	ticketsBoard = "100"
	devicesBoard = "200"

	// 2025-07-01T00:00:00Z, the default cutoff.
	cutoffUnix = 1751328000
	day        = 86400
)

var errBoom = errors.New("boom")

type createCall struct {
	Name   string
	Values models.ColumnValues
}

type updateCall struct {
	BoardID string
	ItemID  string
	Values  models.ColumnValues
}

// fakeBoard is an in-memory BoardService. Created items are appended to the
// tickets board so later passes see them.
type fakeBoard struct {
	items     map[string][]models.Item
	columns   []models.Column
	listErr   map[string]error
	columnErr error

	// createErrs are returned by successive CreateItem calls before any
	// succeed; a nil entry succeeds.
	createErrs []error
	updateErr  map[string]error // item id -> error
	tagErr     error

	creates  []createCall
	updates  []updateCall
	tagCalls []string
	nextID   int
	nextTag  int64
}

func newFakeBoard() *fakeBoard {
	return &fakeBoard{
		items:   map[string][]models.Item{},
		listErr: map[string]error{},
		nextID:  9000,
		nextTag: 500,
	}
}

func (f *fakeBoard) ListBoardItems(_ context.Context, boardID string) ([]models.Item, error) {
	if err := f.listErr[boardID]; err != nil {
		return nil, err
	}
	return append([]models.Item(nil), f.items[boardID]...), nil
}

func (f *fakeBoard) ListColumns(_ context.Context, _ string) ([]models.Column, error) {
	if f.columnErr != nil {
		return nil, f.columnErr
	}
	return f.columns, nil
}

func (f *fakeBoard) CreateItem(_ context.Context, boardID, name string, values models.ColumnValues) (models.CreatedItem, error) {
	f.creates = append(f.creates, createCall{Name: name, Values: values})
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return models.CreatedItem{}, err
		}
	}
	f.nextID++
	id := strconv.Itoa(f.nextID)
	var cols []models.ColumnValue
	for col, v := range values {
		if s, ok := v.(string); ok {
			cols = append(cols, models.ColumnValue{ID: col, Text: s})
		}
	}
	f.items[boardID] = append(f.items[boardID], models.NewItem(id, name, cols...))
	return models.CreatedItem{ID: id, Name: name}, nil
}

func (f *fakeBoard) UpdateItemColumns(_ context.Context, boardID, itemID string, values models.ColumnValues) error {
	f.updates = append(f.updates, updateCall{BoardID: boardID, ItemID: itemID, Values: values})
	return f.updateErr[itemID]
}

func (f *fakeBoard) GetOrCreateTag(_ context.Context, _ string, name string) (int64, error) {
	f.tagCalls = append(f.tagCalls, name)
	if f.tagErr != nil {
		return 0, f.tagErr
	}
	f.nextTag++
	return f.nextTag, nil
}

// fakeTickets is an in-memory TicketSource.
type fakeTickets struct {
	tickets   []models.SourceTicket
	err       error
	gotBoards []int
}

func (f *fakeTickets) ListAllTickets(_ context.Context, boardIDs []int) ([]models.SourceTicket, error) {
	f.gotBoards = boardIDs
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.SourceTicket(nil), f.tickets...), nil
}

func testConfig() *config.Config {
	return &config.Config{
		Ticketing: config.TicketingConfig{BoardIDs: []int{2}},
		Board:     config.BoardConfig{TicketsBoardID: ticketsBoard, DevicesBoardID: devicesBoard},
		Columns: config.ColumnConfig{
			Device:      "device",
			Date:        "date",
			County:      "county",
			Location:    "location",
			Tags:        "tags",
			Status:      "status",
			Linkage:     "link",
			ServiceCall: "service",
			Health:      "health",
		},
		DeviceTitles:  config.DeviceTitleConfig{County: "County", Location: "Location"},
		Attributes:    config.AttributeConfig{County: 10, ServiceCall: 80},
		StatusMapping: config.DefaultStatusMapping(),
		HealthMapping: config.DefaultHealthMapping(),
		Sync: config.SyncConfig{
			MinCreateDate:  "2025-07-01",
			ItemDelay:      500 * time.Millisecond,
			UpdateDelay:    500 * time.Millisecond,
			HealthDelay:    300 * time.Millisecond,
			RetryAttempts:  3,
			RetryDelay:     time.Second,
			TestLimit:      3,
			DeviceIDPrefix: "IBF-013",
			DefaultStatus:  "Working on it",
			UnknownHealth:  "UNKNOWN",
			DefaultHealth:  "HEALTHY",
		},
	}
}

// newTestEngine returns an engine whose waits are recorded instead of slept.
func newTestEngine(cfg *config.Config, tickets *fakeTickets, board *fakeBoard) (*Engine, *[]time.Duration) {
	e := NewEngine(cfg, tickets, board)
	var waits []time.Duration
	e.wait = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	return e, &waits
}

func strPtr(s string) *string { return &s }

func ticket(id int64, device string, created int64, status string) models.SourceTicket {
	t := models.SourceTicket{
		ID:         id,
		Summary:    fmt.Sprintf("ticket %d", id),
		CreateTime: models.UnixTime(created),
		Status:     models.TicketStatus{DisplayName: status},
	}
	if device != "" {
		t.Device = strPtr(device)
	}
	return t
}

func deviceItem(id, name, county, location, health string) models.Item {
	return models.NewItem(id, name,
		models.ColumnValue{ID: "c_county", Title: "County", Text: county},
		models.ColumnValue{ID: "c_location", Title: "Location", Text: location},
		models.ColumnValue{ID: "health", Title: "Health", Text: health},
	)
}

// boardItem builds a tickets board item from column id/text pairs.
func boardItem(id, name string, kv ...string) models.Item {
	var cols []models.ColumnValue
	for i := 0; i+1 < len(kv); i += 2 {
		cols = append(cols, models.ColumnValue{ID: kv[i], Text: kv[i+1]})
	}
	return models.NewItem(id, name, cols...)
}

func assertColumn(t *testing.T, values models.ColumnValues, column string, want any) {
	t.Helper()
	got, ok := values[column]
	if !ok {
		t.Errorf("column %s missing, want %v", column, want)
		return
	}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("column %s = %v, want %v", column, got, want)
	}
}
