// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

package board

import (
	"errors"
	"strings"
)

var (
	// ErrGraphQL marks errors reported inside a GraphQL response body.
	// They describe a bad request, not an unhealthy service, so they never
	// count against the circuit breaker.
	ErrGraphQL = errors.New("board graphql error")

	// ErrRateLimited is returned when HTTP 429 responses outlast the retry budget.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrBoardNotFound is returned when a board id resolves to nothing.
	ErrBoardNotFound = errors.New("board not found")
)

// GraphQLError carries the messages from a GraphQL error envelope.
type GraphQLError struct {
	Messages []string
	Code     string
}

func (e *GraphQLError) Error() string {
	msg := strings.Join(e.Messages, "; ")
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	return "board graphql error: " + msg
}

// Is makes errors.Is(err, ErrGraphQL) true for any *GraphQLError.
func (e *GraphQLError) Is(target error) bool {
	return target == ErrGraphQL
}
