// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

package reconcile

import (
	"strings"
	"time"

	"github.com/tomtom215/ticketbridge/internal/models"
)

// shortIDLength is the number of trailing characters that identify a device.
const shortIDLength = 4

// Board labels for the boolean attribute column.
const (
	LabelYes = "Yes"
	LabelNo  = "No"
)

// ToShortDeviceID returns the last four characters of a full device id.
// Ids shorter than four characters are returned whole.
func ToShortDeviceID(fullID string) (string, bool) {
	if fullID == "" {
		return "", false
	}
	r := []rune(fullID)
	if len(r) <= shortIDLength {
		return fullID, true
	}
	return string(r[len(r)-shortIDLength:]), true
}

// ToFullDeviceID prefixes a short device id. It is not an inverse of
// ToShortDeviceID: anything between the prefix and the last four characters
// is lost when shortening.
func ToFullDeviceID(prefix, shortID string) (string, bool) {
	if shortID == "" {
		return "", false
	}
	return prefix + shortID, true
}

// UnixToCalendarDate renders Unix seconds as a UTC YYYY-MM-DD date.
func UnixToCalendarDate(sec int64) (string, bool) {
	if sec == 0 {
		return "", false
	}
	return time.Unix(sec, 0).UTC().Format("2006-01-02"), true
}

// StatusVocabulary maps ticket status display names to board status labels.
type StatusVocabulary struct {
	table    map[string]string
	fallback string
}

// NewStatusVocabulary builds a status vocabulary. Unmapped statuses map to
// fallback.
func NewStatusVocabulary(table map[string]string, fallback string) StatusVocabulary {
	return StatusVocabulary{table: table, fallback: fallback}
}

// Map returns the board label for a ticket status.
func (v StatusVocabulary) Map(status string) string {
	if label, ok := v.table[status]; ok {
		return label
	}
	return v.fallback
}

// HealthVocabulary maps board status labels to device health labels.
type HealthVocabulary struct {
	table    map[string]string
	fallback string
}

// NewHealthVocabulary builds a health vocabulary with the label used for
// unrecognized statuses.
func NewHealthVocabulary(table map[string]string, fallback string) HealthVocabulary {
	return HealthVocabulary{table: table, fallback: fallback}
}

// Map returns the health label for a board status. The second result is
// false when the status is not in the table and the fallback was used.
func (v HealthVocabulary) Map(status string) (string, bool) {
	if label, ok := v.table[status]; ok {
		return label, true
	}
	return v.fallback, false
}

var (
	truthyTokens = map[string]bool{"true": true, "1": true, "yes": true, "checked": true}
	falsyTokens  = map[string]bool{"false": true, "0": true, "no": true, "unchecked": true}
)

// BooleanLabel reads a checkbox-like attribute as a Yes/No label.
// It reports false when the attribute is unconfigured (id 0), absent, null,
// or holds a value that is neither recognizably true nor false.
func BooleanLabel(t *models.SourceTicket, attributeID int) (string, bool) {
	if attributeID == 0 {
		return "", false
	}
	v, ok := t.Attribute(attributeID)
	if !ok {
		return "", false
	}
	token := strings.ToLower(strings.TrimSpace(models.FormatScalar(v)))
	switch {
	case truthyTokens[token]:
		return LabelYes, true
	case falsyTokens[token]:
		return LabelNo, true
	default:
		return "", false
	}
}
