// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package logging builds the slog.Logger used by hose when the caller
// does not supply one.
//
// Resolution state, such as the configuration identifier or the file
// alias being consulted, travels on the context.Context via With and is
// added to every record logged with that context.
package logging

import (
	"context"
	"io"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel/trace"
)

// DebugModeKey is the environment variable which, when set to "debug",
// turns on debug output of the default logger.
const DebugModeKey = "HOSE_MODE"

// ResolutionGroup is the group key resolution attributes are logged under.
const ResolutionGroup = "resolution"

type attrsKey struct{}

// With returns a copy of ctx carrying attrs in addition to any it
// already carries. Handler logs them under ResolutionGroup.
func With(ctx context.Context, attrs ...slog.Attr) context.Context {
	prev := attrsFrom(ctx)
	return context.WithValue(ctx, attrsKey{}, append(slices.Clip(prev), attrs...))
}

func attrsFrom(ctx context.Context) []slog.Attr {
	attrs, _ := ctx.Value(attrsKey{}).([]slog.Attr)
	return attrs
}

// New returns a text logger writing to w at the given level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewHandler(h))
}

// Discard returns a logger which drops every record.
func Discard() *slog.Logger {
	return New(io.Discard, slog.LevelError+1)
}

// Handler annotates records with the resolution attributes carried by
// their context and, when a span is active, its trace and span IDs.
type Handler struct {
	next slog.Handler
}

// NewHandler wraps h.
func NewHandler(h slog.Handler) *Handler {
	return &Handler{next: h}
}

// Enabled implements the slog.Handler interface.
func (h *Handler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.next.Enabled(ctx, lvl)
}

// Handle implements the slog.Handler interface.
func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	resolution := attrsFrom(ctx)
	spanCtx := trace.SpanContextFromContext(ctx)
	if len(resolution) == 0 && !spanCtx.IsValid() {
		return h.next.Handle(ctx, record)
	}

	r := record.Clone()
	if len(resolution) > 0 {
		r.AddAttrs(slog.Attr{Key: ResolutionGroup, Value: slog.GroupValue(resolution...)})
	}
	if spanCtx.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		)
	}
	return h.next.Handle(ctx, r)
}

// WithAttrs implements the slog.Handler interface.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewHandler(h.next.WithAttrs(attrs))
}

// WithGroup implements the slog.Handler interface.
func (h *Handler) WithGroup(name string) slog.Handler {
	return NewHandler(h.next.WithGroup(name))
}
