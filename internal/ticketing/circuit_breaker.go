// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

package ticketing

import (
	"context"
	"fmt"

	"github.com/tomtom215/ticketbridge/internal/breaker"
	"github.com/tomtom215/ticketbridge/internal/config"
	"github.com/tomtom215/ticketbridge/internal/models"
)

// CircuitBreakerClient wraps Client with circuit breaker protection.
// Each board run counts as one request, so a service outage opens the
// circuit after a handful of boards instead of timing out on every one.
type CircuitBreakerClient struct {
	client *Client
	cb     *breaker.Breaker
}

// NewCircuitBreakerClient creates a ticketing client with circuit breaker.
func NewCircuitBreakerClient(cfg *config.TicketingConfig) *CircuitBreakerClient {
	return &CircuitBreakerClient{
		client: NewClient(cfg),
		cb:     breaker.New(breaker.Settings{Name: "ticketing-api"}),
	}
}

// ListBoards lists ticket boards with circuit breaker protection.
func (cbc *CircuitBreakerClient) ListBoards(ctx context.Context) ([]models.TicketBoard, error) {
	return breaker.Do(cbc.cb, func() ([]models.TicketBoard, error) {
		return cbc.client.ListBoards(ctx)
	})
}

// ListBoardTickets runs one ticket board with circuit breaker protection.
func (cbc *CircuitBreakerClient) ListBoardTickets(ctx context.Context, boardID int) ([]models.SourceTicket, error) {
	return breaker.Do(cbc.cb, func() ([]models.SourceTicket, error) {
		return cbc.client.ListBoardTickets(ctx, boardID)
	})
}

// ListAllTickets fetches and merges tickets from the selected boards with
// circuit breaker protection on every call.
func (cbc *CircuitBreakerClient) ListAllTickets(ctx context.Context, boardIDs []int) ([]models.SourceTicket, error) {
	boards, err := cbc.ListBoards(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list ticket boards: %w", err)
	}
	return collectTickets(ctx, boards, boardIDs, cbc.ListBoardTickets), nil
}
