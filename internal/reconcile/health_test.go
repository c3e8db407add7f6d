// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

package reconcile

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/tomtom215/ticketbridge/internal/models"
)

func healthRecord(id, device, date, status string) models.Item {
	return boardItem(id, id, "device", device, "date", date, "status", status)
}

func TestLatestByDevice(t *testing.T) {
	t.Parallel()

	items := []models.Item{
		healthRecord("1", "6058", "2025-07-01", "Working on it"),
		healthRecord("2", "6058", "2025-07-15", "Done"),
		healthRecord("3", "6058", "2025-07-10", "Stuck"),
		healthRecord("4", "1111", "", "Stuck"),
		healthRecord("5", "1111", "", "Done"),
		healthRecord("6", "2222", "", "Stuck"),
		healthRecord("7", "2222", "2025-07-03", "Done"),
		healthRecord("8", "", "2025-07-03", "Done"),
	}

	latest, order, missing := LatestByDevice(items, "device", "status", "date")

	want := map[string]LatestRecord{
		"6058": {ItemName: "2", Status: "Done", Date: "2025-07-15"},
		"1111": {ItemName: "4", Status: "Stuck", Date: ""},
		"2222": {ItemName: "7", Status: "Done", Date: "2025-07-03"},
	}
	if !reflect.DeepEqual(latest, want) {
		t.Errorf("latest = %+v\nwant %+v", latest, want)
	}
	if !reflect.DeepEqual(order, []string{"6058", "1111", "2222"}) {
		t.Errorf("order = %v", order)
	}
	if !reflect.DeepEqual(missing, []string{"8"}) {
		t.Errorf("missing = %v", missing)
	}
}

func healthFixture() *fakeBoard {
	board := newFakeBoard()
	board.items[devicesBoard] = []models.Item{
		deviceItem("d1", "IBF-0136058", "Dade", "HQ", "HEALTHY"),
		deviceItem("d2", "IBF-0131111", "Polk", "Annex", "DOWN"),
		deviceItem("d3", "IBF-0132222", "Lee", "Library", "HEALTHY"),
		deviceItem("d4", "IBF-0133333", "Lee", "Mall", ""),
	}
	board.items[ticketsBoard] = []models.Item{
		healthRecord("1", "6058", "2025-07-01", "Done"),
		healthRecord("2", "6058", "2025-07-15", "Stuck"),
		healthRecord("3", "2222", "2025-07-02", "Done"),
		healthRecord("4", "9999", "2025-07-02", "Done"),
		healthRecord("5", "", "2025-07-02", "Done"),
	}
	return board
}

func TestHealth(t *testing.T) {
	board := healthFixture()
	e, waits := newTestEngine(testConfig(), &fakeTickets{}, board)

	summary, err := e.Health(context.Background(), false)
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}

	// d1: latest ticket Stuck -> DOWN. d3: Done -> HEALTHY, unchanged.
	// d2: no tickets, DOWN -> HEALTHY. d4: no tickets, blank -> HEALTHY.
	// 9999 is not on the device board.
	got := map[string]any{}
	for _, u := range board.updates {
		if u.BoardID != devicesBoard {
			t.Errorf("update on board %s", u.BoardID)
		}
		got[u.ItemID] = u.Values["health"]
	}
	want := map[string]any{
		"d1": map[string]string{"label": "DOWN"},
		"d2": map[string]string{"label": "HEALTHY"},
		"d4": map[string]string{"label": "HEALTHY"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("updates = %v, want %v", got, want)
	}
	if summary.Devices != 4 || summary.WithRecords != 3 || summary.WithoutRecords != 2 {
		t.Errorf("summary counts = %+v", summary)
	}
	if summary.Updated != 3 || summary.Unchanged != 1 || summary.Errors != 1 {
		t.Errorf("summary outcomes = %+v", summary)
	}
	if !reflect.DeepEqual(*waits, []time.Duration{300 * time.Millisecond, 300 * time.Millisecond}) {
		t.Errorf("waits = %v", *waits)
	}
}

func TestHealth_NoRecordsAlreadyHealthy(t *testing.T) {
	board := newFakeBoard()
	board.items[devicesBoard] = []models.Item{deviceItem("d1", "IBF-0136058", "", "", "HEALTHY")}
	e, _ := newTestEngine(testConfig(), &fakeTickets{}, board)

	summary, err := e.Health(context.Background(), false)
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if len(board.updates) != 0 || summary.Unchanged != 1 {
		t.Errorf("summary = %+v, updates = %d", summary, len(board.updates))
	}
}

func TestHealth_UnknownStatus(t *testing.T) {
	board := newFakeBoard()
	board.items[devicesBoard] = []models.Item{deviceItem("d1", "IBF-0136058", "", "", "HEALTHY")}
	board.items[ticketsBoard] = []models.Item{healthRecord("1", "6058", "2025-07-01", "On fire")}
	e, _ := newTestEngine(testConfig(), &fakeTickets{}, board)

	if _, err := e.Health(context.Background(), false); err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if len(board.updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(board.updates))
	}
	assertColumn(t, board.updates[0].Values, "health", map[string]string{"label": "UNKNOWN"})
}

func TestHealth_UpdateFailuresAreCounted(t *testing.T) {
	board := healthFixture()
	board.updateErr = map[string]error{"d1": errBoom}
	e, _ := newTestEngine(testConfig(), &fakeTickets{}, board)

	summary, err := e.Health(context.Background(), false)
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if summary.Updated != 2 || summary.Errors != 2 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestHealth_DryRun(t *testing.T) {
	board := healthFixture()
	e, _ := newTestEngine(testConfig(), &fakeTickets{}, board)

	summary, err := e.Health(context.Background(), true)
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if len(board.updates) != 0 || summary.Planned != 3 || len(summary.Operations) != 3 {
		t.Errorf("summary = %+v, updates = %d", summary, len(board.updates))
	}
}

func TestHealth_SetupErrors(t *testing.T) {
	t.Run("health column not configured", func(t *testing.T) {
		cfg := testConfig()
		cfg.Columns.Health = ""
		e, _ := newTestEngine(cfg, &fakeTickets{}, healthFixture())
		if _, err := e.Health(context.Background(), false); err == nil {
			t.Error("expected error")
		}
	})

	for _, boardID := range []string{devicesBoard, ticketsBoard} {
		t.Run("board "+boardID, func(t *testing.T) {
			board := healthFixture()
			board.listErr[boardID] = errBoom
			e, _ := newTestEngine(testConfig(), &fakeTickets{}, board)
			if _, err := e.Health(context.Background(), false); !errors.Is(err, errBoom) {
				t.Errorf("error = %v, want errBoom", err)
			}
			if len(board.updates) != 0 {
				t.Error("updates issued after setup failure")
			}
		})
	}
}
