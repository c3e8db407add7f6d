// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all settings for one sync run. It is built once at process
// start by LoadWithKoanf and passed explicitly to every component; nothing mutates it
// afterwards.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml)
//  3. Environment Variables: Override any setting via environment variables
//
// Configuration Categories:
//
//  1. Remote services:
//     - Ticketing: ticket source REST API (OAuth2 client credentials)
//     - Board: work board GraphQL API and the two board ids
//
//  2. Field mapping:
//     - Columns: board column ids for every synced field
//     - DeviceTitles: column titles read from the device directory board
//     - Attributes: ticket form attribute ids
//     - StatusMapping / HealthMapping: vocabulary tables
//
//  3. Run behaviour:
//     - Sync: cutoff date, delays, retry policy, id prefix, default labels
//
//  4. Observability:
//     - Logging, Metrics
type Config struct {
	Ticketing     TicketingConfig   `koanf:"ticketing"`
	Board         BoardConfig       `koanf:"board"`
	Columns       ColumnConfig      `koanf:"columns"`
	DeviceTitles  DeviceTitleConfig `koanf:"device_titles"`
	Attributes    AttributeConfig   `koanf:"attributes"`
	StatusMapping map[string]string `koanf:"status_mapping"`
	HealthMapping map[string]string `koanf:"health_mapping"`
	Sync          SyncConfig        `koanf:"sync"`
	Logging       LoggingConfig     `koanf:"logging"`
	Metrics       MetricsConfig     `koanf:"metrics"`
}

// TicketingConfig holds the ticket source connection settings.
type TicketingConfig struct {
	BaseURL      string        `koanf:"base_url" validate:"required,url"`
	ClientID     string        `koanf:"client_id" validate:"required"`
	ClientSecret string        `koanf:"client_secret" validate:"required"`
	Scope        string        `koanf:"scope"`
	BoardIDs     []int         `koanf:"board_ids" validate:"dive,gt=0"`
	PageSize     int           `koanf:"page_size" validate:"gt=0"`
	Timeout      time.Duration `koanf:"timeout" validate:"gt=0"`
	TokenBuffer  time.Duration `koanf:"token_buffer" validate:"gte=0"` // refresh tokens this long before expiry
	MaxRetries   int           `koanf:"max_retries" validate:"gte=0"`  // HTTP 429 retries
}

// BoardConfig holds the board service connection settings and board ids.
type BoardConfig struct {
	APIURL            string        `koanf:"api_url" validate:"required,url"`
	APIToken          string        `koanf:"api_token" validate:"required"`
	APIVersion        string        `koanf:"api_version"`
	TicketsBoardID    string        `koanf:"tickets_board_id" validate:"required,numeric"`
	DevicesBoardID    string        `koanf:"devices_board_id" validate:"required,numeric"`
	PageSize          int           `koanf:"page_size" validate:"gt=0,lte=500"`
	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"gte=0"` // 0 = unlimited
	Timeout           time.Duration `koanf:"timeout" validate:"gt=0"`
	MaxRetries        int           `koanf:"max_retries" validate:"gte=0"`
}

// ColumnConfig maps semantic fields to board column ids. Linkage is the
// single column that stores the ticket id on a synced item.
type ColumnConfig struct {
	Device      string `koanf:"device" validate:"required"`
	Date        string `koanf:"date" validate:"required"`
	County      string `koanf:"county" validate:"required"`
	Location    string `koanf:"location" validate:"required"`
	Tags        string `koanf:"tags" validate:"required"`
	Status      string `koanf:"status" validate:"required"`
	Linkage     string `koanf:"linkage" validate:"required"`
	ServiceCall string `koanf:"service_call"`
	Health      string `koanf:"health"` // on the devices board; required only by the health pass
}

// DeviceTitleConfig names the device directory columns by title.
type DeviceTitleConfig struct {
	County   string `koanf:"county" validate:"required"`
	Location string `koanf:"location" validate:"required"`
}

// AttributeConfig maps semantic fields to ticket form attribute ids.
// Zero means "not configured".
type AttributeConfig struct {
	County      int `koanf:"county" validate:"gte=0"`
	ServiceCall int `koanf:"service_call" validate:"gte=0"`
}

// SyncConfig holds run behaviour.
type SyncConfig struct {
	MinCreateDate  string        `koanf:"min_create_date" validate:"required"`
	ItemDelay      time.Duration `koanf:"item_delay" validate:"gte=0"`
	UpdateDelay    time.Duration `koanf:"update_delay" validate:"gte=0"`
	HealthDelay    time.Duration `koanf:"health_delay" validate:"gte=0"`
	RetryAttempts  int           `koanf:"retry_attempts" validate:"gte=1"`
	RetryDelay     time.Duration `koanf:"retry_delay" validate:"gte=0"`
	TestLimit      int           `koanf:"test_limit" validate:"gte=1"`
	DeviceIDPrefix string        `koanf:"device_id_prefix"`
	DefaultStatus  string        `koanf:"default_status" validate:"required"`
	UnknownHealth  string        `koanf:"unknown_health" validate:"required"`
	DefaultHealth  string        `koanf:"default_health" validate:"required"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`

	// Caller adds file:line to every entry.
	Caller bool `koanf:"caller"`
}

// MetricsConfig controls Prometheus Pushgateway delivery. Metrics are always
// collected; they are only pushed when PushgatewayURL is set.
type MetricsConfig struct {
	PushgatewayURL string `koanf:"pushgateway_url" validate:"omitempty,url"`
	Job            string `koanf:"job"`
}

// cutoffLayouts are the accepted formats for sync.min_create_date.
var cutoffLayouts = []string{time.RFC3339, "2006-01-02"}

// ParseCutoff parses a cutoff date in RFC 3339 or YYYY-MM-DD (UTC midnight).
func ParseCutoff(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range cutoffLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC 3339", value)
}

// Cutoff returns the minimum ticket create time. Tickets created before it
// are never created or updated on the board.
func (s *SyncConfig) Cutoff() time.Time {
	t, err := ParseCutoff(s.MinCreateDate)
	if err != nil {
		// Validate rejects unparsable dates, so this only happens on
		// hand-built configs in tests.
		return time.Time{}
	}
	return t
}

// CutoffUnix returns Cutoff as Unix seconds.
func (s *SyncConfig) CutoffUnix() int64 {
	return s.Cutoff().Unix()
}

// Redacted returns a copy with credentials masked, for display.
func (c *Config) Redacted() Config {
	out := *c
	out.Ticketing.ClientSecret = mask(out.Ticketing.ClientSecret)
	out.Board.APIToken = mask(out.Board.APIToken)
	return out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}
