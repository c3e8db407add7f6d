// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

package reconcile

import (
	"strconv"
	"strings"

	"github.com/tomtom215/ticketbridge/internal/models"
)

// DeviceInfo is the enrichment data for one device.
type DeviceInfo struct {
	County   string
	Location string
	FullID   string
}

// LookupIndex maps short device ids to device directory data. It is built
// once per run and never persisted.
type LookupIndex map[string]DeviceInfo

// DeviceFieldResolver reads enrichment fields from a device directory item.
type DeviceFieldResolver interface {
	County(item models.Item) string
	Location(item models.Item) string
}

// TitleResolver finds device fields by column title. Titles are looked up
// exactly; a renamed column reads as empty.
type TitleResolver struct {
	CountyTitle   string
	LocationTitle string
}

// County implements DeviceFieldResolver.
func (r TitleResolver) County(item models.Item) string {
	v, _ := item.TextByTitle(r.CountyTitle)
	return v
}

// Location implements DeviceFieldResolver.
func (r TitleResolver) Location(item models.Item) string {
	v, _ := item.TextByTitle(r.LocationTitle)
	return v
}

// BuildLookupIndex indexes device directory items by the short id derived
// from the item name. A later item with the same short id replaces an
// earlier one.
func BuildLookupIndex(items []models.Item, r DeviceFieldResolver) LookupIndex {
	idx := make(LookupIndex, len(items))
	for _, item := range items {
		short, ok := ToShortDeviceID(item.Name)
		if !ok {
			continue
		}
		idx[short] = DeviceInfo{
			County:   r.County(item),
			Location: r.Location(item),
			FullID:   item.Name,
		}
	}
	return idx
}

// Get returns the device data for a short id.
func (idx LookupIndex) Get(shortID string) (DeviceInfo, bool) {
	if shortID == "" {
		return DeviceInfo{}, false
	}
	info, ok := idx[shortID]
	return info, ok
}

// LinkageIndex maps linkage keys (ticket ids) to the board items carrying
// them. Items with blank linkage text are unlinked and left out. When two
// items carry the same key the later one wins.
func LinkageIndex(items []models.Item, linkageColumn string) map[string]models.Item {
	idx := make(map[string]models.Item, len(items))
	for _, item := range items {
		if key := strings.TrimSpace(item.Text(linkageColumn)); key != "" {
			idx[key] = item
		}
	}
	return idx
}

// Unlinked returns the items whose linkage column is blank, in board order.
func Unlinked(items []models.Item, linkageColumn string) []models.Item {
	var out []models.Item
	for _, item := range items {
		if strings.TrimSpace(item.Text(linkageColumn)) == "" {
			out = append(out, item)
		}
	}
	return out
}

// NextItemNumber returns one more than the largest integer item name.
// Boards without integer names start at 1.
func NextItemNumber(items []models.Item) int {
	highest := 0
	for _, item := range items {
		if n, ok := item.Number(); ok && n > highest {
			highest = n
		}
	}
	return highest + 1
}

func linkageKey(ticketID int64) string {
	return strconv.FormatInt(ticketID, 10)
}
