// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

package board

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ticketbridge/internal/config"
	"github.com/tomtom215/ticketbridge/internal/models"
)

type recordedRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// fakeGraphQL answers each request with the next canned body for the first
// operation name that appears in the query.
type fakeGraphQL struct {
	responses map[string][]string
	status    int
	throttle  int32
	requests  []recordedRequest
	headers   []http.Header
}

var operations = []string{
	"next_items_page", "items_page", "columns", "create_item",
	"change_multiple_column_values", "create_or_get_tag",
}

func (f *fakeGraphQL) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if atomic.AddInt32(&f.throttle, -1) >= 0 {
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
		return
	}
	var req recordedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	f.requests = append(f.requests, req)
	f.headers = append(f.headers, r.Header.Clone())

	for _, op := range operations {
		if !strings.Contains(req.Query, op) {
			continue
		}
		queue := f.responses[op]
		if len(queue) == 0 {
			http.Error(w, "no canned response for "+op, http.StatusInternalServerError)
			return
		}
		f.responses[op] = queue[1:]
		if f.status != 0 {
			w.WriteHeader(f.status)
		}
		_, _ = io.WriteString(w, queue[0])
		return
	}
	http.Error(w, "unknown operation", http.StatusBadRequest)
}

func newTestClient(t *testing.T, f *fakeGraphQL) *Client {
	t.Helper()
	server := httptest.NewServer(f)
	t.Cleanup(server.Close)

	c := NewClient(&config.BoardConfig{
		APIURL:     server.URL,
		APIToken:   "secret-token",
		APIVersion: "2023-10",
		PageSize:   2,
		Timeout:    5 * time.Second,
		MaxRetries: 3,
	})
	c.retryBaseDelay = time.Millisecond
	return c
}

func itemJSON(id, name, linkage string) string {
	return fmt.Sprintf(`{"id":%q,"name":%q,"column_values":[`+
		`{"id":"text_link","type":"text","text":%q,"value":null,"column":{"title":"Ticket ID"}},`+
		`{"id":"status","type":"status","text":"Done","value":"{\"index\":1}","column":{"title":"Status"}}]}`,
		id, name, linkage)
}

func TestClient_ListBoardItems_Pagination(t *testing.T) {
	f := &fakeGraphQL{responses: map[string][]string{
		"items_page": {`{"data":{"boards":[{"items_page":{"cursor":"c1","items":[` +
			itemJSON("1", "1", "100") + `,` + itemJSON("2", "2", "") + `]}}]}}`},
		"next_items_page": {
			`{"data":{"next_items_page":{"cursor":"c2","items":[` + itemJSON("3", "3", "101") + `,` + itemJSON("4", "x", "") + `]}}}`,
			`{"data":{"next_items_page":{"cursor":null,"items":[` + itemJSON("5", "5", "102") + `]}}}`,
		},
	}}
	c := newTestClient(t, f)

	items, err := c.ListBoardItems(context.Background(), "42")
	if err != nil {
		t.Fatalf("ListBoardItems() error = %v", err)
	}
	if len(items) != 5 {
		t.Fatalf("items = %d, want 5", len(items))
	}
	if items[0].Text("text_link") != "100" || items[1].Text("text_link") != "" {
		t.Errorf("linkage texts = %q, %q", items[0].Text("text_link"), items[1].Text("text_link"))
	}
	if got, ok := items[2].TextByTitle("Status"); !ok || got != "Done" {
		t.Errorf("TextByTitle(Status) = %q, %v", got, ok)
	}
	if len(f.requests) != 3 {
		t.Fatalf("requests = %d, want 3", len(f.requests))
	}
	if f.requests[1].Variables["cursor"] != "c1" || f.requests[2].Variables["cursor"] != "c2" {
		t.Errorf("cursors = %v, %v", f.requests[1].Variables["cursor"], f.requests[2].Variables["cursor"])
	}
	if ids, ok := f.requests[0].Variables["boardIds"].([]any); !ok || len(ids) != 1 || ids[0] != "42" {
		t.Errorf("boardIds = %v", f.requests[0].Variables["boardIds"])
	}
	h := f.headers[0]
	if h.Get("Authorization") != "secret-token" || h.Get("API-Version") != "2023-10" {
		t.Errorf("headers = %v", h)
	}
}

func TestClient_ListBoardItems_NotFound(t *testing.T) {
	f := &fakeGraphQL{responses: map[string][]string{"items_page": {`{"data":{"boards":[]}}`}}}
	c := newTestClient(t, f)

	_, err := c.ListBoardItems(context.Background(), "42")
	if !errors.Is(err, ErrBoardNotFound) {
		t.Errorf("error = %v, want ErrBoardNotFound", err)
	}
}

func TestClient_GraphQLErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"errors list", 0, `{"errors":[{"message":"Field 'x' doesn't exist"}]}`, "Field 'x' doesn't exist"},
		{"error message", 0, `{"error_message":"User unauthorized","error_code":"UserUnauthorizedException"}`, "UserUnauthorizedException"},
		{"errors with 400", http.StatusBadRequest, `{"errors":[{"message":"Parse error"}]}`, "Parse error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeGraphQL{status: tt.status, responses: map[string][]string{"columns": {tt.body}}}
			c := newTestClient(t, f)

			_, err := c.ListColumns(context.Background(), "42")
			if !errors.Is(err, ErrGraphQL) {
				t.Fatalf("error = %v, want ErrGraphQL", err)
			}
			var ge *GraphQLError
			if !errors.As(err, &ge) {
				t.Fatalf("error %v is not *GraphQLError", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestClient_HTTPError(t *testing.T) {
	f := &fakeGraphQL{status: http.StatusInternalServerError, responses: map[string][]string{"columns": {"upstream broke"}}}
	c := newTestClient(t, f)

	_, err := c.ListColumns(context.Background(), "42")
	if err == nil || errors.Is(err, ErrGraphQL) {
		t.Fatalf("error = %v, want plain HTTP error", err)
	}
	if !strings.Contains(err.Error(), "status 500") {
		t.Errorf("error = %v", err)
	}
}

func TestClient_ListColumns(t *testing.T) {
	f := &fakeGraphQL{responses: map[string][]string{"columns": {
		`{"data":{"boards":[{"columns":[{"id":"tag_x","title":"Tags","type":"tags","settings_str":"{\"tags\":{\"7\":{\"name\":\"urgent\"}}}"}]}]}}`,
	}}}
	c := newTestClient(t, f)

	cols, err := c.ListColumns(context.Background(), "42")
	if err != nil {
		t.Fatalf("ListColumns() error = %v", err)
	}
	if len(cols) != 1 {
		t.Fatalf("columns = %d, want 1", len(cols))
	}
	tags, err := cols[0].TagIDs()
	if err != nil || tags["urgent"] != 7 {
		t.Errorf("TagIDs() = %v, %v", tags, err)
	}
}

func TestClient_CreateItem(t *testing.T) {
	f := &fakeGraphQL{responses: map[string][]string{"create_item": {`{"data":{"create_item":{"id":"9001","name":"17"}}}`}}}
	c := newTestClient(t, f)

	created, err := c.CreateItem(context.Background(), "42", `17 "quoted"`, models.ColumnValues{
		"text_link": "500",
		"tag_x":     map[string]any{"tag_ids": []int64{7}},
	})
	if err != nil {
		t.Fatalf("CreateItem() error = %v", err)
	}
	if created.ID != "9001" || created.Name != "17" {
		t.Errorf("CreateItem() = %+v", created)
	}

	vars := f.requests[0].Variables
	if vars["itemName"] != `17 "quoted"` {
		t.Errorf("itemName = %v", vars["itemName"])
	}
	encoded, ok := vars["columnValues"].(string)
	if !ok {
		t.Fatalf("columnValues = %T, want JSON string", vars["columnValues"])
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(encoded), &decoded); err != nil {
		t.Fatalf("columnValues is not JSON: %v", err)
	}
	if decoded["text_link"] != "500" {
		t.Errorf("text_link = %v", decoded["text_link"])
	}
}

func TestClient_UpdateItemColumns(t *testing.T) {
	f := &fakeGraphQL{responses: map[string][]string{
		"change_multiple_column_values": {`{"data":{"change_multiple_column_values":{"id":"9001"}}}`},
	}}
	c := newTestClient(t, f)

	if err := c.UpdateItemColumns(context.Background(), "42", "9001", models.ColumnValues{"status": "Done"}); err != nil {
		t.Fatalf("UpdateItemColumns() error = %v", err)
	}
	if f.requests[0].Variables["itemId"] != "9001" {
		t.Errorf("itemId = %v", f.requests[0].Variables["itemId"])
	}
}

func TestClient_GetOrCreateTag(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int64
		err  bool
	}{
		{"numeric id", `{"data":{"create_or_get_tag":{"id":123}}}`, 123, false},
		{"string id", `{"data":{"create_or_get_tag":{"id":"456"}}}`, 456, false},
		{"bad id", `{"data":{"create_or_get_tag":{"id":"abc"}}}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeGraphQL{responses: map[string][]string{"create_or_get_tag": {tt.body}}}
			c := newTestClient(t, f)

			got, err := c.GetOrCreateTag(context.Background(), "42", "urgent")
			if (err != nil) != tt.err {
				t.Fatalf("GetOrCreateTag() error = %v, want error %v", err, tt.err)
			}
			if got != tt.want {
				t.Errorf("GetOrCreateTag() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestClient_RateLimitRetry(t *testing.T) {
	t.Run("recovers", func(t *testing.T) {
		f := &fakeGraphQL{throttle: 2, responses: map[string][]string{"columns": {`{"data":{"boards":[{"columns":[]}]}}`}}}
		c := newTestClient(t, f)

		if _, err := c.ListColumns(context.Background(), "42"); err != nil {
			t.Fatalf("ListColumns() error = %v", err)
		}
	})

	t.Run("gives up", func(t *testing.T) {
		f := &fakeGraphQL{throttle: 100, responses: map[string][]string{}}
		c := newTestClient(t, f)

		_, err := c.ListColumns(context.Background(), "42")
		if !errors.Is(err, ErrRateLimited) {
			t.Errorf("error = %v, want ErrRateLimited", err)
		}
	})
}

func TestCircuitBreakerClient_GraphQLErrorsDoNotTrip(t *testing.T) {
	body := `{"errors":[{"message":"bad column"}]}`
	f := &fakeGraphQL{responses: map[string][]string{"columns": {body, body, body, body, body, body, body}}}
	server := httptest.NewServer(f)
	defer server.Close()

	cbc := NewCircuitBreakerClient(&config.BoardConfig{
		APIURL:   server.URL,
		APIToken: "t",
		PageSize: 10,
		Timeout:  5 * time.Second,
	})
	for i := 0; i < 7; i++ {
		_, err := cbc.ListColumns(context.Background(), "42")
		if !errors.Is(err, ErrGraphQL) {
			t.Fatalf("call %d: error = %v, want ErrGraphQL", i, err)
		}
	}
}
