// Package logging carries request scoped log attributes in a context.Context.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
)

type contextKey struct{}

// ContextHandler adds the attributes stored with [WithAttrs] to every record before passing it on.
type ContextHandler struct {
	next slog.Handler
}

func NewContextHandler(next slog.Handler) *ContextHandler {
	return &ContextHandler{next: next}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(Attrs(ctx)...)
	if err := h.next.Handle(ctx, r); err != nil {
		return fmt.Errorf("handle log record: %w", err)
	}
	return nil
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name)}
}

// WithAttrs returns a copy of ctx that makes [ContextHandler] log attrs in addition to the attributes already
// stored in ctx.
func WithAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	existing := Attrs(ctx)
	// Clip so that sibling contexts never share a backing array.
	return context.WithValue(ctx, contextKey{}, append(slices.Clip(existing), attrs...))
}

// Attrs returns the attributes stored in ctx.
func Attrs(ctx context.Context) []slog.Attr {
	attrs, _ := ctx.Value(contextKey{}).([]slog.Attr)
	return attrs
}
