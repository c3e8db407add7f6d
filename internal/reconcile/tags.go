// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

package reconcile

import (
	"context"
	"fmt"
)

// tagCache resolves tag names to ids for one run, asking the board only
// for names it has not seen. Not safe for concurrent use.
type tagCache struct {
	board   BoardService
	boardID string
	ids     map[string]int64
}

func newTagCache(board BoardService, boardID string, known map[string]int64) *tagCache {
	ids := make(map[string]int64, len(known))
	for name, id := range known {
		ids[name] = id
	}
	return &tagCache{board: board, boardID: boardID, ids: ids}
}

// resolve returns tag ids for names in order, creating unknown tags.
func (c *tagCache) resolve(ctx context.Context, names []string) ([]int64, error) {
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		id, ok := c.ids[name]
		if !ok {
			var err error
			id, err = c.board.GetOrCreateTag(ctx, c.boardID, name)
			if err != nil {
				return nil, fmt.Errorf("resolve tag %q: %w", name, err)
			}
			c.ids[name] = id
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// known returns the cached ids for names, skipping names not yet resolved.
// Dry runs use it to avoid creating tags.
func (c *tagCache) known(names []string) []int64 {
	var ids []int64
	for _, name := range names {
		if id, ok := c.ids[name]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}
