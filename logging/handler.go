// Package logging adapts the teacher's context-aware slog handler to this
// domain's identifiers: poll tick, phase, message, segment, and location,
// instead of the teacher's billing/SMPP identifiers.
package logging

import (
	"context"
	"log/slog"
)

type contextKey string

const (
	TickIDKey    contextKey = "tick_id"
	PhaseKey     contextKey = "phase"
	MessageIDKey contextKey = "message_id"
	SegmentIDKey contextKey = "segment_id"
	LocationKey  contextKey = "location"
)

// ContextHandler wraps another slog.Handler and lifts well-known values out
// of context.Context into log attributes, so call sites can just do
// slog.InfoContext(ctx, "...") without repeating identifiers everywhere.
type ContextHandler struct {
	slog.Handler
}

// NewContextHandler wraps h.
func NewContextHandler(h slog.Handler) *ContextHandler {
	return &ContextHandler{Handler: h}
}

// Handle adds context attributes before calling the wrapped handler.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if v, ok := ctx.Value(TickIDKey).(string); ok {
		r.AddAttrs(slog.String("tick_id", v))
	}
	if v, ok := ctx.Value(PhaseKey).(string); ok {
		r.AddAttrs(slog.String("phase", v))
	}
	if v, ok := ctx.Value(MessageIDKey).(string); ok {
		r.AddAttrs(slog.String("message_id", v))
	}
	if v, ok := ctx.Value(SegmentIDKey).(string); ok {
		r.AddAttrs(slog.String("segment_id", v))
	}
	if v, ok := ctx.Value(LocationKey).(int); ok {
		r.AddAttrs(slog.Int("location", v))
	}
	return h.Handler.Handle(ctx, r)
}

// WithTickID returns a derived context carrying tickID.
func WithTickID(ctx context.Context, tickID string) context.Context {
	return context.WithValue(ctx, TickIDKey, tickID)
}

// WithPhase returns a derived context carrying phase.
func WithPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, PhaseKey, phase)
}

// WithMessageID returns a derived context carrying a message/composite id.
func WithMessageID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, MessageIDKey, id)
}

// WithSegmentID returns a derived context carrying a segment id.
func WithSegmentID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, SegmentIDKey, id)
}

// WithLocation returns a derived context carrying a modem storage location.
func WithLocation(ctx context.Context, loc int) context.Context {
	return context.WithValue(ctx, LocationKey, loc)
}
