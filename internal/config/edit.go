// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ColumnFields lists the column keys that SetColumn accepts.
var ColumnFields = []string{
	"device", "date", "county", "location", "tags",
	"status", "linkage", "service_call", "health",
}

// Editor edits the YAML config file in place. It only touches the keys it is
// asked to change; defaults and environment overrides are never written back.
type Editor struct {
	path string
	k    *koanf.Koanf
}

// OpenEditor loads the YAML file at path. A missing file starts empty and is
// created on Save.
func OpenEditor(path string) (*Editor, error) {
	if path == "" {
		return nil, errors.New("config file path is required")
	}
	k := koanf.New(".")
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
	}
	return &Editor{path: path, k: k}, nil
}

// Path returns the file being edited.
func (e *Editor) Path() string { return e.path }

// StatusMapping returns the status mapping stored in the file, or the
// built-in mapping when the file has none.
func (e *Editor) StatusMapping() map[string]string {
	stored := e.k.StringMap("status_mapping")
	if len(stored) == 0 {
		return DefaultStatusMapping()
	}
	return stored
}

// AddStatus maps a ticket status to a board status label. The first edit of
// a file without a mapping copies the built-in mapping in, so the rest of
// the defaults are not lost.
func (e *Editor) AddStatus(ticketStatus, boardStatus string) error {
	if err := checkMapKey(ticketStatus); err != nil {
		return err
	}
	if strings.TrimSpace(boardStatus) == "" {
		return errors.New("board status must not be empty")
	}
	e.materializeStatusMapping()
	return e.k.Set("status_mapping."+ticketStatus, boardStatus)
}

// RemoveStatus removes a ticket status from the mapping.
func (e *Editor) RemoveStatus(ticketStatus string) error {
	if err := checkMapKey(ticketStatus); err != nil {
		return err
	}
	e.materializeStatusMapping()
	key := "status_mapping." + ticketStatus
	if !e.k.Exists(key) {
		return fmt.Errorf("status %q is not mapped", ticketStatus)
	}
	e.k.Delete(key)
	return nil
}

func (e *Editor) materializeStatusMapping() {
	if len(e.k.StringMap("status_mapping")) > 0 {
		return
	}
	for from, to := range DefaultStatusMapping() {
		// Keys are known to be dot-free.
		_ = e.k.Set("status_mapping."+from, to)
	}
}

// SetColumn sets the board column id for a semantic field.
func (e *Editor) SetColumn(field, columnID string) error {
	known := false
	for _, f := range ColumnFields {
		if f == field {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown column field %q (valid: %s)", field, strings.Join(ColumnFields, ", "))
	}
	if strings.TrimSpace(columnID) == "" {
		return errors.New("column id must not be empty")
	}
	return e.k.Set("columns."+field, columnID)
}

// SetMinCreateDate sets the ticket cutoff date.
func (e *Editor) SetMinCreateDate(date string) error {
	if _, err := ParseCutoff(date); err != nil {
		return err
	}
	return e.k.Set("sync.min_create_date", strings.TrimSpace(date))
}

// Save writes the file back as YAML.
func (e *Editor) Save() error {
	out, err := yaml.Parser().Marshal(e.k.Raw())
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(e.path, out, 0o600); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", e.path, err)
	}
	return nil
}

func checkMapKey(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("ticket status must not be empty")
	}
	if strings.Contains(name, ".") {
		return fmt.Errorf("ticket status %q must not contain '.'", name)
	}
	return nil
}

// EffectiveYAML renders the configuration with secrets masked. Durations are
// printed in Go duration syntax so the output can be pasted back into a file.
func (c *Config) EffectiveYAML() ([]byte, error) {
	redacted := c.Redacted()
	k := koanf.New(".")
	if err := k.Load(structs.Provider(&redacted, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to flatten config: %w", err)
	}
	keys := k.Keys()
	sort.Strings(keys)
	for _, key := range keys {
		if d, ok := k.Get(key).(time.Duration); ok {
			if err := k.Set(key, d.String()); err != nil {
				return nil, fmt.Errorf("failed to set %s: %w", key, err)
			}
		}
	}
	out, err := yaml.Parser().Marshal(k.Raw())
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return out, nil
}
