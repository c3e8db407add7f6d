// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

package board

import (
	"context"
	"errors"

	"github.com/tomtom215/ticketbridge/internal/breaker"
	"github.com/tomtom215/ticketbridge/internal/config"
	"github.com/tomtom215/ticketbridge/internal/models"
)

// CircuitBreakerClient wraps Client with circuit breaker protection.
// GraphQL errors count as successes: the service answered.
type CircuitBreakerClient struct {
	client *Client
	cb     *breaker.Breaker
}

// NewCircuitBreakerClient creates a board client with circuit breaker.
func NewCircuitBreakerClient(cfg *config.BoardConfig) *CircuitBreakerClient {
	return &CircuitBreakerClient{
		client: NewClient(cfg),
		cb: breaker.New(breaker.Settings{
			Name: "board-api",
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrGraphQL)
			},
		}),
	}
}

// ListBoardItems lists board items with circuit breaker protection.
func (cbc *CircuitBreakerClient) ListBoardItems(ctx context.Context, boardID string) ([]models.Item, error) {
	return breaker.Do(cbc.cb, func() ([]models.Item, error) {
		return cbc.client.ListBoardItems(ctx, boardID)
	})
}

// ListColumns lists board columns with circuit breaker protection.
func (cbc *CircuitBreakerClient) ListColumns(ctx context.Context, boardID string) ([]models.Column, error) {
	return breaker.Do(cbc.cb, func() ([]models.Column, error) {
		return cbc.client.ListColumns(ctx, boardID)
	})
}

// CreateItem creates an item with circuit breaker protection.
func (cbc *CircuitBreakerClient) CreateItem(ctx context.Context, boardID, name string, values models.ColumnValues) (models.CreatedItem, error) {
	return breaker.Do(cbc.cb, func() (models.CreatedItem, error) {
		return cbc.client.CreateItem(ctx, boardID, name, values)
	})
}

// UpdateItemColumns updates item columns with circuit breaker protection.
func (cbc *CircuitBreakerClient) UpdateItemColumns(ctx context.Context, boardID, itemID string, values models.ColumnValues) error {
	return breaker.Run(cbc.cb, func() error {
		return cbc.client.UpdateItemColumns(ctx, boardID, itemID, values)
	})
}

// GetOrCreateTag resolves a tag with circuit breaker protection.
func (cbc *CircuitBreakerClient) GetOrCreateTag(ctx context.Context, boardID, name string) (int64, error) {
	return breaker.Do(cbc.cb, func() (int64, error) {
		return cbc.client.GetOrCreateTag(ctx, boardID, name)
	})
}
