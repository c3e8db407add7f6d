// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

package board

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ticketbridge/internal/models"
)

const createItemMutation = `mutation ($boardId: ID!, $itemName: String!, $columnValues: JSON) {
	create_item(board_id: $boardId, item_name: $itemName, column_values: $columnValues) {
		id
		name
	}
}`

const updateColumnsMutation = `mutation ($boardId: ID!, $itemId: ID!, $columnValues: JSON!) {
	change_multiple_column_values(board_id: $boardId, item_id: $itemId, column_values: $columnValues) {
		id
	}
}`

const createOrGetTagMutation = `mutation ($tagName: String!, $boardId: ID!) {
	create_or_get_tag(tag_name: $tagName, board_id: $boardId) {
		id
	}
}`

// flexID accepts an id sent either as a JSON string or a number.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	*f = flexID(string(b))
	return nil
}

// encodeColumnValues renders column values as the JSON string the service
// expects in a JSON-typed variable.
func encodeColumnValues(values models.ColumnValues) (string, error) {
	b, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode column values: %w", err)
	}
	return string(b), nil
}

// CreateItem creates an item with the given name and column values.
func (c *Client) CreateItem(ctx context.Context, boardID, name string, values models.ColumnValues) (models.CreatedItem, error) {
	encoded, err := encodeColumnValues(values)
	if err != nil {
		return models.CreatedItem{}, err
	}
	var data struct {
		CreateItem struct {
			ID   flexID `json:"id"`
			Name string `json:"name"`
		} `json:"create_item"`
	}
	vars := map[string]any{"boardId": boardID, "itemName": name, "columnValues": encoded}
	if err := c.query(ctx, "create_item", createItemMutation, vars, &data); err != nil {
		return models.CreatedItem{}, err
	}
	return models.CreatedItem{ID: string(data.CreateItem.ID), Name: data.CreateItem.Name}, nil
}

// UpdateItemColumns changes several columns of one item in a single call.
func (c *Client) UpdateItemColumns(ctx context.Context, boardID, itemID string, values models.ColumnValues) error {
	encoded, err := encodeColumnValues(values)
	if err != nil {
		return err
	}
	vars := map[string]any{"boardId": boardID, "itemId": itemID, "columnValues": encoded}
	return c.query(ctx, "change_multiple_column_values", updateColumnsMutation, vars, nil)
}

// GetOrCreateTag returns the id of the named tag, creating it if needed.
func (c *Client) GetOrCreateTag(ctx context.Context, boardID, name string) (int64, error) {
	var data struct {
		Tag struct {
			ID flexID `json:"id"`
		} `json:"create_or_get_tag"`
	}
	vars := map[string]any{"tagName": name, "boardId": boardID}
	if err := c.query(ctx, "create_or_get_tag", createOrGetTagMutation, vars, &data); err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(string(data.Tag.ID), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid tag id %q for %q: %w", data.Tag.ID, name, err)
	}
	return id, nil
}
