// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

package models

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/goccy/go-json"
)

// TicketBoard is a ticket board (saved view) exposed by the ticketing service.
type TicketBoard struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// TicketStatus is the status object attached to a ticket.
type TicketStatus struct {
	StatusID    int    `json:"statusId,omitempty"`
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"displayName"`
}

// AttributeValue is one custom form attribute on a ticket. Value keeps the
// decoded JSON type (string, float64, bool, nil).
type AttributeValue struct {
	AttributeID int `json:"attributeId"`
	Value       any `json:"value"`
}

// UnixTime is a Unix timestamp in whole seconds. The ticketing API sometimes
// sends fractional seconds; they are truncated on decode.
type UnixTime int64

// UnmarshalJSON accepts integers, floats and null.
func (u *UnixTime) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*u = 0
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("invalid unix time %s: %w", string(b), err)
	}
	*u = UnixTime(math.Trunc(f))
	return nil
}

// SourceTicket is one ticket as returned by the ticketing service.
// It is read-only to this system.
type SourceTicket struct {
	ID              int64            `json:"id"`
	Summary         string           `json:"summary"`
	Device          *string          `json:"device"`
	Location        *string          `json:"location"`
	CreateTime      UnixTime         `json:"createTime"`
	Status          TicketStatus     `json:"status"`
	Tags            []string         `json:"tags"`
	AttributeValues []AttributeValue `json:"attributeValues"`
}

// DeviceName returns the full device identifier, or "" when unset.
func (t *SourceTicket) DeviceName() string {
	if t.Device == nil {
		return ""
	}
	return *t.Device
}

// LocationName returns the ticket's own location, or "" when unset.
func (t *SourceTicket) LocationName() string {
	if t.Location == nil {
		return ""
	}
	return *t.Location
}

// Attribute returns the raw value of the attribute with the given id.
// The second result is false when the attribute is absent or null.
func (t *SourceTicket) Attribute(attributeID int) (any, bool) {
	for _, av := range t.AttributeValues {
		if av.AttributeID == attributeID {
			if av.Value == nil {
				return nil, false
			}
			return av.Value, true
		}
	}
	return nil, false
}

// AttributeText returns the attribute value rendered as a string.
// Absent, null and empty values all yield "".
func (t *SourceTicket) AttributeText(attributeID int) string {
	v, ok := t.Attribute(attributeID)
	if !ok {
		return ""
	}
	if s, isString := v.(string); isString {
		return s
	}
	return FormatScalar(v)
}

// FormatScalar renders a decoded JSON scalar the way a loosely typed client
// would print it: integral floats lose their fraction, bools become
// "true"/"false".
func FormatScalar(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1e15 {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}
