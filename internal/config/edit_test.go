// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEditorAddStatusMaterializesDefaults(t *testing.T) {
	path := writeConfig(t, minimalYAML)

	ed, err := OpenEditor(path)
	if err != nil {
		t.Fatalf("OpenEditor() error = %v", err)
	}
	if err := ed.AddStatus("On Hold", "Stuck"); err != nil {
		t.Fatalf("AddStatus() error = %v", err)
	}
	if err := ed.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	cfg, err := LoadWithKoanf(path)
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.StatusMapping["On Hold"] != "Stuck" {
		t.Errorf("new mapping missing: %v", cfg.StatusMapping)
	}
	if cfg.StatusMapping["Closed"] != "Done" {
		t.Errorf("built-in mappings lost: %v", cfg.StatusMapping)
	}
	if cfg.Board.APIToken != "token" {
		t.Errorf("unrelated keys lost: api_token = %q", cfg.Board.APIToken)
	}
}

func TestEditorRemoveStatus(t *testing.T) {
	path := writeConfig(t, minimalYAML+`
status_mapping:
  Closed: Done
  Waiting: Stuck
`)

	ed, err := OpenEditor(path)
	if err != nil {
		t.Fatalf("OpenEditor() error = %v", err)
	}
	if err := ed.RemoveStatus("Waiting"); err != nil {
		t.Fatalf("RemoveStatus() error = %v", err)
	}
	if err := ed.RemoveStatus("Unknown"); err == nil {
		t.Error("expected error removing an unmapped status")
	}
	if err := ed.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reopened, err := OpenEditor(path)
	if err != nil {
		t.Fatalf("OpenEditor() error = %v", err)
	}
	got := reopened.StatusMapping()
	if len(got) != 1 || got["Closed"] != "Done" {
		t.Errorf("StatusMapping() = %v, want only Closed", got)
	}
}

func TestEditorSetColumnAndDate(t *testing.T) {
	path := writeConfig(t, minimalYAML)

	ed, err := OpenEditor(path)
	if err != nil {
		t.Fatalf("OpenEditor() error = %v", err)
	}
	if err := ed.SetColumn("health", "status_9"); err != nil {
		t.Fatalf("SetColumn() error = %v", err)
	}
	if err := ed.SetColumn("colour", "x"); err == nil {
		t.Error("expected error for unknown column field")
	}
	if err := ed.SetMinCreateDate("2025-09-01"); err != nil {
		t.Fatalf("SetMinCreateDate() error = %v", err)
	}
	if err := ed.SetMinCreateDate("yesterday"); err == nil {
		t.Error("expected error for invalid date")
	}
	if err := ed.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	cfg, err := LoadWithKoanf(path)
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Columns.Health != "status_9" {
		t.Errorf("Columns.Health = %q", cfg.Columns.Health)
	}
	if cfg.Sync.MinCreateDate != "2025-09-01" {
		t.Errorf("MinCreateDate = %q", cfg.Sync.MinCreateDate)
	}
}

func TestEditorRejectsDottedStatus(t *testing.T) {
	t.Parallel()

	ed, err := OpenEditor(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("OpenEditor() error = %v", err)
	}
	if err := ed.AddStatus("v1.2", "Done"); err == nil {
		t.Error("expected error for status containing '.'")
	}
	if err := ed.AddStatus("Closed", " "); err == nil {
		t.Error("expected error for empty board status")
	}
}

func TestEditorCreatesMissingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "new.yaml")
	ed, err := OpenEditor(path)
	if err != nil {
		t.Fatalf("OpenEditor() error = %v", err)
	}
	if err := ed.SetColumn("linkage", "text_abc"); err != nil {
		t.Fatalf("SetColumn() error = %v", err)
	}
	if err := ed.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "text_abc") {
		t.Errorf("file content = %q", data)
	}
}

func TestEffectiveYAML(t *testing.T) {
	t.Parallel()

	out, err := validConfig().EffectiveYAML()
	if err != nil {
		t.Fatalf("EffectiveYAML() error = %v", err)
	}
	s := string(out)
	if strings.Contains(s, ": secret") || strings.Contains(s, ": token") {
		t.Errorf("secrets leaked:\n%s", s)
	}
	if !strings.Contains(s, "500ms") {
		t.Errorf("durations should render in Go syntax:\n%s", s)
	}
	if !strings.Contains(s, "text_mkxn628j") {
		t.Errorf("column ids missing:\n%s", s)
	}
}
