// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

package board

import (
	"context"
	"fmt"

	"github.com/tomtom215/ticketbridge/internal/models"
)

const itemFields = `
	cursor
	items {
		id
		name
		column_values {
			id
			type
			text
			value
			column { title }
		}
	}`

const firstItemsPageQuery = `query ($boardIds: [ID!], $limit: Int!) {
	boards(ids: $boardIds) {
		items_page(limit: $limit) {` + itemFields + `
		}
	}
}`

const nextItemsPageQuery = `query ($cursor: String!, $limit: Int!) {
	next_items_page(cursor: $cursor, limit: $limit) {` + itemFields + `
	}
}`

const columnsQuery = `query ($boardIds: [ID!]) {
	boards(ids: $boardIds) {
		columns { id title type settings_str }
	}
}`

type itemsPage struct {
	Cursor *string       `json:"cursor"`
	Items  []models.Item `json:"items"`
}

// ListBoardItems returns every item on the board, following the page cursor
// until the service stops returning one.
func (c *Client) ListBoardItems(ctx context.Context, boardID string) ([]models.Item, error) {
	var first struct {
		Boards []struct {
			ItemsPage itemsPage `json:"items_page"`
		} `json:"boards"`
	}
	vars := map[string]any{"boardIds": []string{boardID}, "limit": c.pageSize}
	if err := c.query(ctx, "items_page", firstItemsPageQuery, vars, &first); err != nil {
		return nil, fmt.Errorf("board %s: %w", boardID, err)
	}
	if len(first.Boards) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrBoardNotFound, boardID)
	}

	page := first.Boards[0].ItemsPage
	items := page.Items
	for page.Cursor != nil && *page.Cursor != "" && len(page.Items) > 0 {
		var next struct {
			NextItemsPage itemsPage `json:"next_items_page"`
		}
		vars := map[string]any{"cursor": *page.Cursor, "limit": c.pageSize}
		if err := c.query(ctx, "next_items_page", nextItemsPageQuery, vars, &next); err != nil {
			return nil, fmt.Errorf("board %s: %w", boardID, err)
		}
		page = next.NextItemsPage
		items = append(items, page.Items...)
	}
	return items, nil
}

// ListColumns returns the column definitions of a board.
func (c *Client) ListColumns(ctx context.Context, boardID string) ([]models.Column, error) {
	var data struct {
		Boards []struct {
			Columns []models.Column `json:"columns"`
		} `json:"boards"`
	}
	vars := map[string]any{"boardIds": []string{boardID}}
	if err := c.query(ctx, "columns", columnsQuery, vars, &data); err != nil {
		return nil, fmt.Errorf("board %s: %w", boardID, err)
	}
	if len(data.Boards) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrBoardNotFound, boardID)
	}
	return data.Boards[0].Columns, nil
}
