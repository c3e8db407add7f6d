// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

/*
client.go - Ticketing Service REST Client

This file provides the Client struct and HTTP communication layer for the
ticketing service REST API (NinjaRMM-style ticket boards).

Client Features:
  - OAuth2 client credentials grant (form parameters, "monitoring" scope)
  - Token caching with a configurable expiry buffer (default 60s)
  - Automatic HTTP 429 rate limit handling with exponential backoff
  - Cursor pagination over board runs
  - Context support for cancellation and timeouts

Endpoints:
  - POST {base}/ws/oauth/token                               token
  - GET  {base}/api/v2/ticketing/trigger/boards              ListBoards
  - POST {base}/api/v2/ticketing/trigger/board/{id}/run      ListBoardTickets

Related Files:
  - circuit_breaker.go: circuit breaker wrapper used by the CLI
*/

//nolint:staticcheck // File documentation, not package doc
package ticketing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/tomtom215/ticketbridge/internal/config"
	"github.com/tomtom215/ticketbridge/internal/logging"
	"github.com/tomtom215/ticketbridge/internal/metrics"
	"github.com/tomtom215/ticketbridge/internal/models"
)

const serviceName = "ticketing"

// ErrRateLimited is returned when HTTP 429 responses outlast the retry budget.
var ErrRateLimited = errors.New("rate limit exceeded")

// maxErrorBodySize limits the maximum amount of response body read for error reporting
const maxErrorBodySize = 64 * 1024 // 64KB

// readBodyForError reads the response body for error reporting (max 64KB)
// Returns the body content or a placeholder message if reading fails
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// Client talks to the ticketing service. It is safe for concurrent use, but
// the sync passes call it from one goroutine.
type Client struct {
	apiURL         string
	client         *http.Client
	pageSize       int
	maxRetries     int           // Maximum retries for rate limiting
	retryBaseDelay time.Duration // Base delay for exponential backoff
}

// tokenFetcher requests a fresh token on every call. Caching is left to
// oauth2.ReuseTokenSourceWithExpiry so the expiry buffer is honored exactly.
type tokenFetcher struct {
	ctx context.Context
	cfg *clientcredentials.Config
}

func (f tokenFetcher) Token() (*oauth2.Token, error) {
	return f.cfg.Token(f.ctx)
}

// NewClient creates a ticketing client from configuration.
//
// The client is configured with:
//   - the configured HTTP timeout (default 30s) for API and token requests
//   - the configured number of retries on HTTP 429 (default 5)
//   - 1-second base delay for exponential backoff
func NewClient(cfg *config.TicketingConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	base := &http.Client{Timeout: cfg.Timeout}

	scopes := []string{}
	if cfg.Scope != "" {
		scopes = strings.Fields(cfg.Scope)
	}
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     baseURL + "/ws/oauth/token",
		Scopes:       scopes,
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	source := oauth2.ReuseTokenSourceWithExpiry(nil, tokenFetcher{ctx: tokenCtx, cfg: cc}, cfg.TokenBuffer)

	return &Client{
		apiURL: baseURL + "/api/v2",
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &oauth2.Transport{Source: source, Base: http.DefaultTransport},
		},
		pageSize:       cfg.PageSize,
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: time.Second,
	}
}

// doRequestWithRateLimit performs an HTTP request with automatic rate limit handling.
// Implements exponential backoff for HTTP 429 responses (1s, 2s, 4s, 8s, 16s),
// honoring Retry-After when the server sends it.
func (c *Client) doRequestWithRateLimit(ctx context.Context, method, reqURL string, body []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var reader io.Reader = http.NoBody
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		_ = resp.Body.Close()

		if attempt == c.maxRetries {
			lastErr = fmt.Errorf("%w after %d retries (HTTP 429)", ErrRateLimited, c.maxRetries)
			break
		}

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds >= 0 {
				delay = time.Duration(seconds) * time.Second
			}
		}

		metrics.RecordRateLimitRetry(serviceName)
		logging.Warn().Int("attempt", attempt+1).Dur("delay", delay).Str("url", reqURL).Msg("Ticketing service rate limited, backing off")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// call performs one API request and decodes a 200 response into result.
func (c *Client) call(ctx context.Context, op, method, path string, payload, result interface{}) (err error) {
	start := time.Now()
	defer func() { metrics.RecordRemoteCall(serviceName, op, time.Since(start), err) }()

	var body []byte
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
	}

	resp, err := c.doRequestWithRateLimit(ctx, method, c.apiURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to make %s request: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s request failed with status %d: %s", op, resp.StatusCode, string(readBodyForError(resp.Body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}

// ListBoards returns every ticket board visible to the client.
func (c *Client) ListBoards(ctx context.Context) ([]models.TicketBoard, error) {
	var boards []models.TicketBoard
	if err := c.call(ctx, "list_boards", http.MethodGet, "/ticketing/trigger/boards", nil, &boards); err != nil {
		return nil, err
	}
	return boards, nil
}

// boardRunRequest is the body of a board run.
type boardRunRequest struct {
	PageSize     int    `json:"pageSize,omitempty"`
	LastCursorID *int64 `json:"lastCursorId,omitempty"`
}

// boardRunResponse is one page of a board run.
type boardRunResponse struct {
	Data     []models.SourceTicket `json:"data"`
	Metadata struct {
		LastCursorID *int64 `json:"lastCursorId"`
	} `json:"metadata"`
}

// ListBoardTickets runs a ticket board and returns all of its tickets,
// following the cursor until a short page or a cursor that stops advancing.
func (c *Client) ListBoardTickets(ctx context.Context, boardID int) ([]models.SourceTicket, error) {
	var (
		tickets []models.SourceTicket
		cursor  *int64
	)
	path := fmt.Sprintf("/ticketing/trigger/board/%d/run", boardID)

	for {
		var page boardRunResponse
		req := boardRunRequest{PageSize: c.pageSize, LastCursorID: cursor}
		if err := c.call(ctx, "run_board", http.MethodPost, path, req, &page); err != nil {
			return nil, fmt.Errorf("board %d: %w", boardID, err)
		}
		tickets = append(tickets, page.Data...)

		if len(page.Data) == 0 || c.pageSize <= 0 || len(page.Data) < c.pageSize {
			return tickets, nil
		}

		next := page.Metadata.LastCursorID
		if next == nil {
			last := page.Data[len(page.Data)-1].ID
			next = &last
		}
		if cursor != nil && *next == *cursor {
			return tickets, nil
		}
		cursor = next
	}
}

// ListAllTickets fetches tickets from the given boards (every board when
// boardIDs is empty), de-duplicated by ticket id in first-seen order.
//
// Failure to list boards is returned. A board that fails to run is logged
// and skipped so one broken board does not hide the others.
func (c *Client) ListAllTickets(ctx context.Context, boardIDs []int) ([]models.SourceTicket, error) {
	boards, err := c.ListBoards(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list ticket boards: %w", err)
	}
	return collectTickets(ctx, boards, boardIDs, c.ListBoardTickets), nil
}

// collectTickets runs the selected boards through fetch and merges their tickets.
func collectTickets(ctx context.Context, boards []models.TicketBoard, boardIDs []int,
	fetch func(context.Context, int) ([]models.SourceTicket, error)) []models.SourceTicket {
	wanted := make(map[int]bool, len(boardIDs))
	for _, id := range boardIDs {
		wanted[id] = true
	}

	seen := make(map[int64]bool)
	var all []models.SourceTicket
	for _, board := range boards {
		if len(wanted) > 0 && !wanted[board.ID] {
			continue
		}
		tickets, err := fetch(ctx, board.ID)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Int("board_id", board.ID).Str("board", board.Name).Msg("Could not fetch tickets from board")
			continue
		}
		for _, t := range tickets {
			if seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			all = append(all, t)
		}
	}
	return all
}
