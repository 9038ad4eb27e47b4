package logger

import (
	"context"
	"log/slog"
)

// ContextHandler is a slog.Handler that adds the request and task ids found
// in the record's context.
type ContextHandler struct {
	// The underlying handler (usually JSON)
	handler slog.Handler
}

// NewContextHandler wraps handler.
func NewContextHandler(handler slog.Handler) *ContextHandler {
	return &ContextHandler{handler: handler}
}

// Enabled implements the slog.Handler interface.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// WithAttrs implements the slog.Handler interface.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{handler: h.handler.WithAttrs(attrs)}
}

// WithGroup implements the slog.Handler interface.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{handler: h.handler.WithGroup(name)}
}

// Handle implements the slog.Handler interface.
func (h *ContextHandler) Handle(ctx context.Context, record slog.Record) error {
	requestID := RequestID(ctx)
	taskID := TaskID(ctx)
	if requestID == "" && taskID == "" {
		return h.handler.Handle(ctx, record)
	}

	enhanced := record.Clone()
	if requestID != "" {
		enhanced.AddAttrs(slog.String("request_id", requestID))
	}
	if taskID != "" && !hasAttr(record, "task_id") {
		enhanced.AddAttrs(slog.String("task_id", taskID))
	}
	return h.handler.Handle(ctx, enhanced)
}

func hasAttr(record slog.Record, key string) bool {
	found := false
	record.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			found = true
			return false
		}
		return true
	})
	return found
}
