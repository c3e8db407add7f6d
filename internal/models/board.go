// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

package models

import (
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// ColumnValue is the rendered and raw content of one column on a board item.
type ColumnValue struct {
	ID    string          `json:"id"`
	Title string          `json:"title,omitempty"`
	Type  string          `json:"type,omitempty"`
	Text  string          `json:"text"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Item is one row of a board. Columns are indexed by column id once, on
// construction or decode, so lookups never scan the column list.
type Item struct {
	ID      string                 `json:"id"`
	Name    string                 `json:"name"`
	Columns map[string]ColumnValue `json:"column_values"`

	titles map[string]string // column title -> column id
}

// NewItem builds an item from column values.
func NewItem(id, name string, columns ...ColumnValue) Item {
	item := Item{ID: id, Name: name}
	item.index(columns)
	return item
}

func (i *Item) index(columns []ColumnValue) {
	i.Columns = make(map[string]ColumnValue, len(columns))
	i.titles = make(map[string]string, len(columns))
	for _, cv := range columns {
		i.Columns[cv.ID] = cv
		if cv.Title != "" {
			i.titles[cv.Title] = cv.ID
		}
	}
}

// wireItem mirrors the GraphQL item shape, where column values arrive as a
// list and the title sits on a nested column object.
type wireItem struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ColumnValues []struct {
		ID     string          `json:"id"`
		Type   string          `json:"type"`
		Text   *string         `json:"text"`
		Value  json.RawMessage `json:"value"`
		Column *struct {
			Title string `json:"title"`
		} `json:"column"`
	} `json:"column_values"`
}

// UnmarshalJSON decodes the GraphQL item shape and builds the column index.
func (i *Item) UnmarshalJSON(b []byte) error {
	var w wireItem
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("decode board item: %w", err)
	}
	cols := make([]ColumnValue, 0, len(w.ColumnValues))
	for _, c := range w.ColumnValues {
		cv := ColumnValue{ID: c.ID, Type: c.Type, Value: c.Value}
		if c.Text != nil {
			cv.Text = *c.Text
		}
		if c.Column != nil {
			cv.Title = c.Column.Title
		}
		cols = append(cols, cv)
	}
	i.ID = w.ID
	i.Name = w.Name
	i.index(cols)
	return nil
}

// Text returns the rendered text of a column, "" when the column is absent.
func (i Item) Text(columnID string) string {
	return i.Columns[columnID].Text
}

// TextByTitle returns the rendered text of the column with the given title.
func (i Item) TextByTitle(title string) (string, bool) {
	id, ok := i.titles[title]
	if !ok {
		return "", false
	}
	return i.Columns[id].Text, true
}

// Number parses the item name as a base-10 integer.
func (i Item) Number() (int, bool) {
	n, err := strconv.Atoi(i.Name)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Column is a column definition on a board.
type Column struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	SettingsStr string `json:"settings_str"`
}

// TagIDs reads the tag name -> tag id pairs embedded in a tags column's
// settings. Columns without tag settings yield an empty map.
func (c *Column) TagIDs() (map[string]int64, error) {
	tags := make(map[string]int64)
	if c.SettingsStr == "" {
		return tags, nil
	}
	var settings struct {
		Tags map[string]struct {
			Name string `json:"name"`
		} `json:"tags"`
	}
	if err := json.Unmarshal([]byte(c.SettingsStr), &settings); err != nil {
		return nil, fmt.Errorf("parse settings of column %s: %w", c.ID, err)
	}
	for rawID, tag := range settings.Tags {
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			continue
		}
		tags[tag.Name] = id
	}
	return tags, nil
}

// CreatedItem is the identity returned by an item create.
type CreatedItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ColumnValues maps column ids to new values for a create or update. Values
// are encoded into the board's JSON scalar, so plain strings and label or tag
// objects both work.
type ColumnValues map[string]any
