// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

package config

import (
	"fmt"
	"strings"

	"github.com/tomtom215/ticketbridge/internal/validation"
)

// Validate checks that required configuration is present and valid.
// Struct tags cover single fields; the checks below cover rules that span
// several fields or need parsing.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if err := c.validateSync(); err != nil {
		return err
	}

	if err := c.validateColumns(); err != nil {
		return err
	}

	if err := c.validateMappings(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateSync validates run behaviour settings
func (c *Config) validateSync() error {
	if _, err := ParseCutoff(c.Sync.MinCreateDate); err != nil {
		return fmt.Errorf("sync.min_create_date: %w", err)
	}
	if c.Attributes.ServiceCall != 0 && c.Columns.ServiceCall == "" {
		return fmt.Errorf("columns.service_call is required when attributes.service_call is set")
	}
	return nil
}

// validateColumns rejects two semantic fields sharing one board column,
// which would make the update pass write the same column twice.
func (c *Config) validateColumns() error {
	seen := make(map[string]string)
	for _, col := range []struct{ name, id string }{
		{"device", c.Columns.Device},
		{"date", c.Columns.Date},
		{"county", c.Columns.County},
		{"location", c.Columns.Location},
		{"tags", c.Columns.Tags},
		{"status", c.Columns.Status},
		{"linkage", c.Columns.Linkage},
		{"service_call", c.Columns.ServiceCall},
	} {
		if col.id == "" {
			continue
		}
		if other, dup := seen[col.id]; dup {
			return fmt.Errorf("columns.%s and columns.%s both use column %q", other, col.name, col.id)
		}
		seen[col.id] = col.name
	}
	return nil
}

// validateMappings rejects blank keys, which can never match a status.
func (c *Config) validateMappings() error {
	for from := range c.StatusMapping {
		if strings.TrimSpace(from) == "" {
			return fmt.Errorf("status_mapping contains an empty status name")
		}
	}
	for from := range c.HealthMapping {
		if strings.TrimSpace(from) == "" {
			return fmt.Errorf("health_mapping contains an empty status label")
		}
	}
	return nil
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of: trace, debug, info, warn, error (got: %s)", c.Logging.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("logging.format must be one of: json, console (got: %s)", c.Logging.Format)
	}
	return nil
}

// ValidateHealth checks the settings only the health pass needs.
func (c *Config) ValidateHealth() error {
	if c.Columns.Health == "" {
		return fmt.Errorf("columns.health is required for the health pass")
	}
	return nil
}
