// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

/*
Package config provides centralized configuration management for Ticketbridge.

Configuration is built once at process start and passed explicitly to the
clients and the reconciliation engine. Nothing reads configuration from
package-level state after Load returns.

# Configuration Sources

Koanf v2 layers three sources, later layers winning:
  - Built-in defaults (defaultConfig)
  - YAML file: --config flag, CONFIG_PATH, ./config.yaml, /etc/ticketbridge/config.yaml
  - Environment variables (explicit mapping table, unknown names ignored)

The status and health vocabularies are not part of the default layer. When
the file defines status_mapping or health_mapping it replaces the built-in
table entirely; when it does not, the built-in table is used.

# Environment Variables

Ticketing service:
  - NINJA_BASE_URL, NINJA_CLIENT_ID, NINJA_CLIENT_SECRET (required)
  - NINJA_SCOPE: OAuth2 scope (default: monitoring)
  - NINJA_BOARD_IDS: Comma-separated ticket board ids (default: 2, the "All tickets" board)

Board service:
  - MONDAY_API_TOKEN (required)
  - MONDAY_TICKETS_BOARD_ID, MONDAY_KIOSKS_BOARD_ID (required)
  - MONDAY_API_URL (default: https://api.monday.com/v2)
  - MONDAY_REQUESTS_PER_SECOND: Client-side ceiling, 0 disables (default: 5)

Sync behaviour:
  - SYNC_MIN_CREATE_DATE: YYYY-MM-DD or RFC 3339 (default: 2025-07-01)
  - SYNC_ITEM_DELAY, SYNC_UPDATE_DELAY, SYNC_HEALTH_DELAY: Go durations
  - SYNC_RETRY_ATTEMPTS, SYNC_RETRY_DELAY: create retry policy (3, 1s)

Column and attribute ids use COLUMN_<FIELD> and ATTRIBUTE_<FIELD>.

# Example File

	ticketing:
	  base_url: https://eu.ninjarmm.com
	  client_id: abc
	  client_secret: def
	board:
	  api_token: xyz
	  tickets_board_id: "1234567890"
	  devices_board_id: "9876543210"
	columns:
	  health: status_1
	status_mapping:
	  Closed: Done
	  Waiting: Stuck

# Editing

Editor changes individual keys of the YAML file (status mappings, column ids,
the cutoff date) and writes it back through the koanf YAML parser.
*/
package config
