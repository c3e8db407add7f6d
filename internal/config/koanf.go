// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/ticketbridge/config.yaml",
	"/etc/ticketbridge/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultStatusMapping translates ticket status display names to board
// status labels. Applied only when the loaded configuration has no mapping.
func DefaultStatusMapping() map[string]string {
	return map[string]string{
		"Closed":                "Done",
		"Waiting":               "Stuck",
		"Supplies Ordered":      "Done",
		"Pending Vendor":        "Working on it",
		"Paused":                "Working BUT",
		"Impending User Action": "Working on it",
	}
}

// DefaultHealthMapping translates board status labels to device health
// labels. Applied only when the loaded configuration has no mapping.
func DefaultHealthMapping() map[string]string {
	return map[string]string{
		"Done":          "HEALTHY",
		"Working on it": "ISSUE",
		"Working BUT":   "DEGRADED",
		"Stuck":         "DOWN",
	}
}

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
// The vocabulary maps are not set here: koanf merges maps key by key, so a
// file could never remove a default entry. See applyMappingDefaults.
func defaultConfig() *Config {
	return &Config{
		Ticketing: TicketingConfig{
			BoardIDs:    []int{2}, // "All tickets" board; empty fetches every board
			Scope:       "monitoring",
			PageSize:    1000,
			Timeout:     30 * time.Second,
			TokenBuffer: 60 * time.Second,
			MaxRetries:  5,
		},
		Board: BoardConfig{
			APIURL:            "https://api.monday.com/v2",
			APIVersion:        "2023-10",
			PageSize:          500,
			RequestsPerSecond: 5,
			Timeout:           30 * time.Second,
			MaxRetries:        5,
		},
		Columns: ColumnConfig{
			Device:      "text_mkx0wqmq",
			Date:        "date4",
			County:      "text_mkwzhc6k",
			Location:    "text_mkwzt5ce",
			Tags:        "tag_mkwzqtky",
			Status:      "status",
			Linkage:     "text_mkxn628j",
			ServiceCall: "dropdown_mkwznn43",
			Health:      "", // Must be set before running the health pass
		},
		DeviceTitles: DeviceTitleConfig{
			County:   "County",
			Location: "Location",
		},
		Attributes: AttributeConfig{
			County:      10,
			ServiceCall: 80,
		},
		Sync: SyncConfig{
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
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Metrics: MetricsConfig{
			PushgatewayURL: "",
			Job:            "ticketbridge",
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: path if non-empty, otherwise the first of CONFIG_PATH
//     and DefaultConfigPaths that exists (optional)
//  3. Environment Variables: Override any setting
func LoadWithKoanf(path string) (*Config, error) {
	k, err := loadLayers(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.applyMappingDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadLayers(path string) (*koanf.Koanf, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional unless named explicitly)
	configPath := path
	if configPath == "" {
		configPath = findConfigFile()
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// MONDAY_API_TOKEN -> board.api_token
	// SYNC_MIN_CREATE_DATE -> sync.min_create_date
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}
	return k, nil
}

func (c *Config) applyMappingDefaults() {
	if len(c.StatusMapping) == 0 {
		c.StatusMapping = DefaultStatusMapping()
	}
	if len(c.HealthMapping) == 0 {
		c.HealthMapping = DefaultHealthMapping()
	}
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"ticketing.board_ids",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings; YAML lists are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
var envMappings = map[string]string{
	// Ticketing service
	"ninja_base_url":      "ticketing.base_url",
	"ninja_client_id":     "ticketing.client_id",
	"ninja_client_secret": "ticketing.client_secret",
	"ninja_scope":         "ticketing.scope",
	"ninja_board_ids":     "ticketing.board_ids",
	"ninja_page_size":     "ticketing.page_size",
	"ninja_timeout":       "ticketing.timeout",

	// Board service
	"monday_api_url":             "board.api_url",
	"monday_api_token":           "board.api_token",
	"monday_api_version":         "board.api_version",
	"monday_tickets_board_id":    "board.tickets_board_id",
	"monday_kiosks_board_id":     "board.devices_board_id",
	"monday_page_size":           "board.page_size",
	"monday_requests_per_second": "board.requests_per_second",
	"monday_timeout":             "board.timeout",

	// Column ids
	"column_device":       "columns.device",
	"column_date":         "columns.date",
	"column_county":       "columns.county",
	"column_location":     "columns.location",
	"column_tags":         "columns.tags",
	"column_status":       "columns.status",
	"column_linkage":      "columns.linkage",
	"column_service_call": "columns.service_call",
	"column_health":       "columns.health",

	// Attribute ids
	"attribute_county":       "attributes.county",
	"attribute_service_call": "attributes.service_call",

	// Sync behaviour
	"sync_min_create_date":  "sync.min_create_date",
	"sync_item_delay":       "sync.item_delay",
	"sync_update_delay":     "sync.update_delay",
	"sync_health_delay":     "sync.health_delay",
	"sync_retry_attempts":   "sync.retry_attempts",
	"sync_retry_delay":      "sync.retry_delay",
	"sync_test_limit":       "sync.test_limit",
	"sync_device_id_prefix": "sync.device_id_prefix",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Metrics
	"pushgateway_url": "metrics.pushgateway_url",
	"metrics_job":     "metrics.job",
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Unmapped variables return "" and are skipped so unrelated environment
// does not leak into the configuration.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
