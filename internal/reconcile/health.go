// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/ticketbridge/internal/logging"
	"github.com/tomtom215/ticketbridge/internal/metrics"
	"github.com/tomtom215/ticketbridge/internal/models"
)

// DeviceHealth is one device on the device board.
type DeviceHealth struct {
	ItemID        string
	Name          string // full device id
	ShortID       string
	CurrentHealth string
}

// LatestRecord is the most recent ticket board item for a device.
type LatestRecord struct {
	ItemName string
	Status   string
	Date     string
}

// HealthSummary is the structured result of a health pass.
type HealthSummary struct {
	Pass           string      `json:"pass"`
	RunID          string      `json:"run_id,omitempty"`
	DryRun         bool        `json:"dry_run,omitempty"`
	Devices        int         `json:"devices"`
	WithRecords    int         `json:"with_records"`
	WithoutRecords int         `json:"without_records"`
	Updated        int         `json:"updated"`
	Unchanged      int         `json:"unchanged"`
	Errors         int         `json:"errors"`
	Planned        int         `json:"planned,omitempty"`
	Duration       string      `json:"duration"`
	Operations     []Operation `json:"operations,omitempty"`
}

// Counts returns the outcome counts keyed for metrics.
func (s *HealthSummary) Counts() map[string]int {
	return map[string]int{
		"updated":   s.Updated,
		"unchanged": s.Unchanged,
		"failed":    s.Errors,
		"planned":   s.Planned,
	}
}

// BuildDeviceHealthIndex indexes device board items by short id with their
// current health label. Later duplicates replace earlier ones.
func BuildDeviceHealthIndex(items []models.Item, healthColumn string) (map[string]DeviceHealth, []string) {
	idx := make(map[string]DeviceHealth, len(items))
	var order []string
	for _, item := range items {
		short, ok := ToShortDeviceID(item.Name)
		if !ok {
			continue
		}
		if _, seen := idx[short]; !seen {
			order = append(order, short)
		}
		idx[short] = DeviceHealth{
			ItemID:        item.ID,
			Name:          item.Name,
			ShortID:       short,
			CurrentHealth: strings.TrimSpace(item.Text(healthColumn)),
		}
	}
	return idx, order
}

// LatestByDevice picks the most recent ticket board item per device id.
// Dates compare as YYYY-MM-DD strings. An item without a date never
// replaces an existing entry, but the first item seen for a device is kept
// either way. It also returns the device ids in first-seen order and the
// names of items that carry no device id.
func LatestByDevice(items []models.Item, deviceColumn, statusColumn, dateColumn string) (map[string]LatestRecord, []string, []string) {
	latest := make(map[string]LatestRecord)
	var order, missing []string
	for _, item := range items {
		device := strings.TrimSpace(item.Text(deviceColumn))
		if device == "" {
			missing = append(missing, item.Name)
			continue
		}
		rec := LatestRecord{
			ItemName: item.Name,
			Status:   strings.TrimSpace(item.Text(statusColumn)),
			Date:     item.Text(dateColumn),
		}
		existing, ok := latest[device]
		if !ok {
			latest[device] = rec
			order = append(order, device)
			continue
		}
		if rec.Date != "" && (existing.Date == "" || rec.Date > existing.Date) {
			latest[device] = rec
		}
	}
	return latest, order, missing
}

// Health recomputes device health labels from the ticket board and writes
// the ones that changed to the device board.
func (e *Engine) Health(ctx context.Context, dryRun bool) (*HealthSummary, error) {
	const pass = "health"
	ctx = e.passContext(ctx, pass)
	start := time.Now()

	summary, err := e.runHealth(ctx, dryRun)
	if err != nil {
		metrics.RecordPassFailure(pass, time.Since(start))
		return nil, err
	}

	summary.RunID = logging.RunIDFromContext(ctx)
	summary.Duration = time.Since(start).Round(time.Millisecond).String()
	logging.Ctx(ctx).Info().
		Int("devices", summary.Devices).
		Int("with_records", summary.WithRecords).
		Int("updated", summary.Updated).
		Int("unchanged", summary.Unchanged).
		Int("errors", summary.Errors).
		Str("duration", summary.Duration).
		Msg("Pass complete")
	metrics.RecordPass(pass, summary.Counts(), time.Since(start))
	return summary, nil
}

func (e *Engine) runHealth(ctx context.Context, dryRun bool) (*HealthSummary, error) {
	log := logging.Ctx(ctx)
	if err := e.cfg.ValidateHealth(); err != nil {
		return nil, err
	}
	cols := e.cfg.Columns
	summary := &HealthSummary{Pass: "health", DryRun: dryRun}

	deviceItems, err := e.board.ListBoardItems(ctx, e.cfg.Board.DevicesBoardID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch device board: %w", err)
	}
	devices, deviceOrder := BuildDeviceHealthIndex(deviceItems, cols.Health)
	summary.Devices = len(devices)

	items, err := e.fetchTicketBoard(ctx)
	if err != nil {
		return nil, err
	}
	latest, order, missing := LatestByDevice(items, cols.Device, cols.Status, cols.Date)
	for _, name := range missing {
		log.Warn().Str("item", name).Msg("Ticket board item has no device id, skipping")
	}
	summary.WithRecords = len(latest)

	first := true
	apply := func(device DeviceHealth, label, reason string) {
		if device.CurrentHealth == label {
			summary.Unchanged++
			return
		}
		op := Operation{
			Kind:     OpHealth,
			ItemID:   device.ItemID,
			ItemName: device.Name,
			Columns:  models.ColumnValues{cols.Health: healthValue(label)},
		}
		if dryRun {
			op.Outcome = OutcomePlanned
			summary.Planned++
			summary.Operations = append(summary.Operations, op)
			return
		}
		if !first {
			if err := e.wait(ctx, e.cfg.Sync.HealthDelay); err != nil {
				return
			}
		}
		first = false
		if err := e.board.UpdateItemColumns(ctx, e.cfg.Board.DevicesBoardID, device.ItemID, op.Columns); err != nil {
			op.Outcome = OutcomeUpdateFailed
			op.Error = err.Error()
			summary.Errors++
			log.Error().Err(err).Str("device", device.ShortID).Msg("Failed to update device health")
		} else {
			op.Outcome = OutcomeUpdated
			summary.Updated++
			log.Info().Str("device", device.ShortID).Str("from", device.CurrentHealth).Str("to", label).Str("reason", reason).Msg("Updated device health")
		}
		summary.Operations = append(summary.Operations, op)
	}

	for _, id := range order {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		rec := latest[id]
		device, ok := devices[id]
		if !ok {
			summary.Errors++
			full, _ := ToFullDeviceID(e.cfg.Sync.DeviceIDPrefix, id)
			log.Warn().Str("device", id).Str("expected_name", full).Msg("Device not found on device board")
			continue
		}
		label, known := e.health.Map(rec.Status)
		if !known {
			log.Warn().Str("device", id).Str("status", rec.Status).Str("label", label).Msg("Unknown ticket status for health mapping")
		}
		apply(device, label, "ticket "+rec.ItemName)
	}

	for _, id := range deviceOrder {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if _, ok := latest[id]; ok {
			continue
		}
		summary.WithoutRecords++
		apply(devices[id], e.cfg.Sync.DefaultHealth, "no tickets")
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return summary, nil
}
