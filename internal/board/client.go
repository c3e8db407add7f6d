// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

/*
client.go - Board Service GraphQL Client

This file provides the Client struct and the GraphQL transport for the work
board service (monday.com-style API).

Client Features:
  - Every query and mutation is parameterized through GraphQL variables
  - Token authentication and API-Version pinning on every request
  - Client-side request ceiling (golang.org/x/time/rate)
  - Automatic HTTP 429 rate limit handling with exponential backoff
  - GraphQL error envelopes surfaced as *GraphQLError (errors.Is ErrGraphQL)

Related Files:
  - items.go: item pagination and column listing
  - mutations.go: item create/update and tag get-or-create
  - circuit_breaker.go: circuit breaker wrapper used by the CLI
*/

//nolint:staticcheck // File documentation, not package doc
package board

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/ticketbridge/internal/config"
	"github.com/tomtom215/ticketbridge/internal/logging"
	"github.com/tomtom215/ticketbridge/internal/metrics"
)

const serviceName = "board"

// maxErrorBodySize limits the maximum amount of response body read for error reporting
const maxErrorBodySize = 64 * 1024 // 64KB

// Client talks to the board service GraphQL endpoint.
type Client struct {
	apiURL         string
	token          string
	apiVersion     string
	pageSize       int
	client         *http.Client
	limiter        *rate.Limiter
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewClient creates a board client from configuration.
func NewClient(cfg *config.BoardConfig) *Client {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Client{
		apiURL:         cfg.APIURL,
		token:          cfg.APIToken,
		apiVersion:     cfg.APIVersion,
		pageSize:       cfg.PageSize,
		client:         &http.Client{Timeout: cfg.Timeout},
		limiter:        rate.NewLimiter(limit, 1),
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: time.Second,
	}
}

// graphQLRequest is the POST body of every call.
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphQLResponse is the response envelope. The service reports errors either
// as a standard errors list or as a top-level error_message.
type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
	ErrorMessage string `json:"error_message"`
	ErrorCode    string `json:"error_code"`
}

func (r *graphQLResponse) err() error {
	if len(r.Errors) == 0 && r.ErrorMessage == "" {
		return nil
	}
	ge := &GraphQLError{Code: r.ErrorCode}
	for _, e := range r.Errors {
		ge.Messages = append(ge.Messages, e.Message)
	}
	if r.ErrorMessage != "" {
		ge.Messages = append(ge.Messages, r.ErrorMessage)
	}
	return ge
}

// query executes one GraphQL operation and decodes its data into result.
func (c *Client) query(ctx context.Context, op, query string, vars map[string]any, result any) (err error) {
	start := time.Now()
	defer func() { metrics.RecordRemoteCall(serviceName, op, time.Since(start), err) }()

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", op, err)
	}

	resp, err := c.doRequestWithRateLimit(ctx, body)
	if err != nil {
		return fmt.Errorf("failed to make %s request: %w", op, err)
	}
	defer resp.Body.Close()

	// The service returns GraphQL errors with 200 and sometimes with 4xx;
	// decode the envelope first so both surface the same way.
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", op, err)
	}

	var envelope graphQLResponse
	if decodeErr := json.Unmarshal(raw, &envelope); decodeErr == nil {
		if gqlErr := envelope.err(); gqlErr != nil {
			return fmt.Errorf("%s: %w", op, gqlErr)
		}
	} else if resp.StatusCode == http.StatusOK {
		return fmt.Errorf("failed to decode %s response: %w", op, decodeErr)
	}

	if resp.StatusCode != http.StatusOK {
		if len(raw) > maxErrorBodySize {
			raw = append(raw[:maxErrorBodySize], []byte("\n... (truncated)")...)
		}
		return fmt.Errorf("%s request failed with status %d: %s", op, resp.StatusCode, string(raw))
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, result); err != nil {
		return fmt.Errorf("failed to decode %s data: %w", op, err)
	}
	return nil
}

// doRequestWithRateLimit posts a GraphQL body, waiting on the client-side
// limiter and backing off exponentially on HTTP 429 (1s, 2s, 4s, ...).
func (c *Client) doRequestWithRateLimit(ctx context.Context, body []byte) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", c.token)
		req.Header.Set("Content-Type", "application/json")
		if c.apiVersion != "" {
			req.Header.Set("API-Version", c.apiVersion)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		_ = resp.Body.Close()

		if attempt >= c.maxRetries {
			return nil, fmt.Errorf("%w after %d retries (HTTP 429)", ErrRateLimited, c.maxRetries)
		}

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds >= 0 {
				delay = time.Duration(seconds) * time.Second
			}
		}

		metrics.RecordRateLimitRetry(serviceName)
		logging.Ctx(ctx).Warn().Int("attempt", attempt+1).Dur("delay", delay).Msg("Board service rate limited, backing off")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
