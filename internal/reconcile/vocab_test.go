// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

package reconcile

import (
	"testing"

	"github.com/tomtom215/ticketbridge/internal/config"
	"github.com/tomtom215/ticketbridge/internal/models"
)

func TestToShortDeviceID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"IBF-0136058", "6058", true},
		{"ABCDEFGH1234", "1234", true},
		{"123", "123", true},
		{"", "", false},
		{"KIOSK-ÄÖÜß", "ÄÖÜß", true},
	}
	for _, tt := range tests {
		got, ok := ToShortDeviceID(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ToShortDeviceID(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestDeviceIDRoundTrip(t *testing.T) {
	t.Parallel()

	for _, short := range []string{"6058", "0001", "abcd", "ZZ-9"} {
		full, ok := ToFullDeviceID("IBF-013", short)
		if !ok {
			t.Fatalf("ToFullDeviceID(%q) not ok", short)
		}
		if got, _ := ToShortDeviceID(full); got != short {
			t.Errorf("short(full(%q)) = %q", short, got)
		}
	}

	// The other direction is lossy.
	short, _ := ToShortDeviceID("XYZ-9996058")
	full, _ := ToFullDeviceID("IBF-013", short)
	if full == "XYZ-9996058" {
		t.Error("full(short(x)) unexpectedly recovered x")
	}

	if _, ok := ToFullDeviceID("IBF-013", ""); ok {
		t.Error("ToFullDeviceID(\"\") should not be ok")
	}
}

func TestUnixToCalendarDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sec    int64
		want   string
		wantOK bool
	}{
		{1719878400, "2024-07-02", true},
		{1751414400, "2025-07-02", true},
		{1751414399, "2025-07-01", true},
		{0, "", false},
	}
	for _, tt := range tests {
		got, ok := UnixToCalendarDate(tt.sec)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("UnixToCalendarDate(%d) = %q, %v; want %q, %v", tt.sec, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestStatusVocabulary(t *testing.T) {
	t.Parallel()

	v := NewStatusVocabulary(config.DefaultStatusMapping(), "Working on it")
	tests := map[string]string{
		"Closed":           "Done",
		"Waiting":          "Stuck",
		"Paused":           "Working BUT",
		"Open":             "Working on it",
		"":                 "Working on it",
		"closed":           "Working on it",
		"Supplies Ordered": "Done",
	}
	for in, want := range tests {
		if got := v.Map(in); got != want {
			t.Errorf("Map(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHealthVocabulary(t *testing.T) {
	t.Parallel()

	v := NewHealthVocabulary(config.DefaultHealthMapping(), "UNKNOWN")
	if got, ok := v.Map("Done"); got != "HEALTHY" || !ok {
		t.Errorf("Map(Done) = %q, %v", got, ok)
	}
	if got, ok := v.Map("Mystery"); got != "UNKNOWN" || ok {
		t.Errorf("Map(Mystery) = %q, %v", got, ok)
	}
}

func TestBooleanLabel(t *testing.T) {
	t.Parallel()

	const attr = 80
	tests := []struct {
		name   string
		value  any
		absent bool
		id     int
		want   string
		wantOK bool
	}{
		{name: "bool true", value: true, id: attr, want: LabelYes, wantOK: true},
		{name: "bool false", value: false, id: attr, want: LabelNo, wantOK: true},
		{name: "string yes padded", value: "  YES ", id: attr, want: LabelYes, wantOK: true},
		{name: "checked", value: "Checked", id: attr, want: LabelYes, wantOK: true},
		{name: "unchecked", value: "unchecked", id: attr, want: LabelNo, wantOK: true},
		{name: "number one", value: float64(1), id: attr, want: LabelYes, wantOK: true},
		{name: "number zero", value: float64(0), id: attr, want: LabelNo, wantOK: true},
		{name: "string no", value: "no", id: attr, want: LabelNo, wantOK: true},
		{name: "unrecognized", value: "maybe", id: attr},
		{name: "null", value: nil, id: attr},
		{name: "absent", absent: true, id: attr},
		{name: "unconfigured", value: true, id: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket := &models.SourceTicket{ID: 1}
			if !tt.absent {
				ticket.AttributeValues = []models.AttributeValue{{AttributeID: attr, Value: tt.value}}
			}
			got, ok := BooleanLabel(ticket, tt.id)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("BooleanLabel() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestBuildLookupIndex(t *testing.T) {
	t.Parallel()

	col := func(id, title, text string) models.ColumnValue {
		return models.ColumnValue{ID: id, Title: title, Text: text}
	}
	items := []models.Item{
		models.NewItem("1", "IBF-0136058", col("c1", "County", "Dade"), col("c2", "Location", "HQ")),
		models.NewItem("2", "IBF-0131111", col("c1", "County", "Polk")),
		models.NewItem("3", "", col("c1", "County", "Nowhere")),
		models.NewItem("4", "OTHER-991111", col("c1", "County", "Lee"), col("c2", "Location", "Annex")),
	}
	idx := BuildLookupIndex(items, TitleResolver{CountyTitle: "County", LocationTitle: "Location"})

	if len(idx) != 2 {
		t.Fatalf("len(idx) = %d, want 2", len(idx))
	}
	if got, _ := idx.Get("6058"); got != (DeviceInfo{County: "Dade", Location: "HQ", FullID: "IBF-0136058"}) {
		t.Errorf("Get(6058) = %+v", got)
	}
	// Duplicate short id: last wins.
	if got, _ := idx.Get("1111"); got.County != "Lee" || got.FullID != "OTHER-991111" {
		t.Errorf("Get(1111) = %+v, want the later device", got)
	}
	if _, ok := idx.Get(""); ok {
		t.Error("Get(\"\") should miss")
	}
}

func TestTitleResolver_RenamedColumn(t *testing.T) {
	t.Parallel()

	item := models.NewItem("1", "IBF-0136058", models.ColumnValue{ID: "c1", Title: "Region", Text: "Dade"})
	r := TitleResolver{CountyTitle: "County", LocationTitle: "Location"}
	if got := r.County(item); got != "" {
		t.Errorf("County() = %q, want empty for renamed column", got)
	}
}

func TestNextItemNumber(t *testing.T) {
	t.Parallel()

	if got := NextItemNumber(nil); got != 1 {
		t.Errorf("NextItemNumber(nil) = %d, want 1", got)
	}
	items := []models.Item{
		models.NewItem("a", "12"), models.NewItem("b", "Manual entry"), models.NewItem("c", "40"), models.NewItem("d", "7"),
	}
	if got := NextItemNumber(items); got != 41 {
		t.Errorf("NextItemNumber() = %d, want 41", got)
	}
}

func TestLinkageIndex(t *testing.T) {
	t.Parallel()

	link := func(id, text string) models.Item {
		return models.NewItem(id, id, models.ColumnValue{ID: "link", Text: text})
	}
	items := []models.Item{link("1", "500"), link("2", " 501 "), link("3", ""), link("4", "   "), models.NewItem("5", "5")}

	idx := LinkageIndex(items, "link")
	if len(idx) != 2 || idx["500"].ID != "1" || idx["501"].ID != "2" {
		t.Errorf("LinkageIndex() = %v", idx)
	}
	unlinked := Unlinked(items, "link")
	if len(unlinked) != 3 {
		t.Errorf("Unlinked() = %d items, want 3", len(unlinked))
	}
}
