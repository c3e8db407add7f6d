// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Context keys for logging.
type contextKey string

const (
	// runIDKey is the context key for the id of one sync pass.
	runIDKey contextKey = "run_id"

	// passKey is the context key for the pass name (create, update, health...).
	passKey contextKey = "pass"
)

// GenerateRunID creates a new run id: the first 8 characters of a UUID.
func GenerateRunID() string {
	return uuid.New().String()[:8]
}

// ContextWithRunID returns a new context with the given run id.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// ContextWithNewRunID returns a context with a newly generated run id.
//
//	ctx = logging.ContextWithNewRunID(ctx)
func ContextWithNewRunID(ctx context.Context) context.Context {
	return ContextWithRunID(ctx, GenerateRunID())
}

// RunIDFromContext retrieves the run id from context.
// Returns empty string if not present.
func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithPass tags the context with the pass being executed.
func ContextWithPass(ctx context.Context, pass string) context.Context {
	return context.WithValue(ctx, passKey, pass)
}

// PassFromContext retrieves the pass name from context.
func PassFromContext(ctx context.Context) string {
	if p, ok := ctx.Value(passKey).(string); ok {
		return p
	}
	return ""
}

// Ctx returns the global logger with run_id and pass added when present.
//
//	logging.Ctx(ctx).Info().Msg("Fetching tickets")
//	// {"level":"info","run_id":"abc12345","pass":"create","message":"Fetching tickets"}
func Ctx(ctx context.Context) *zerolog.Logger {
	logCtx := With()

	if runID := RunIDFromContext(ctx); runID != "" {
		logCtx = logCtx.Str("run_id", runID)
	}
	if pass := PassFromContext(ctx); pass != "" {
		logCtx = logCtx.Str("pass", pass)
	}

	logger := logCtx.Logger()
	return &logger
}

// WithComponent creates a child logger with a component field.
//
//	log := logging.WithComponent("board")
func WithComponent(component string) zerolog.Logger {
	return With().Str("component", component).Logger()
}
