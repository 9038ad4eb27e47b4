package events

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// AllEvents is the subscription pattern matching every event type.
const AllEvents = "*"

type subscription struct {
	patterns []string
	handler  EventHandler
}

// matches reports whether eventType is selected by any of the patterns.
func (s subscription) matches(eventType string) bool {
	return slices.ContainsFunc(s.patterns, func(p string) bool {
		return MatchEventType(p, eventType)
	})
}

// MatchEventType reports whether pattern selects eventType. A pattern is an
// exact type, a family such as "analysis.*", or AllEvents.
func MatchEventType(pattern, eventType string) bool {
	switch {
	case pattern == AllEvents || pattern == eventType:
		return true
	case strings.HasSuffix(pattern, ".*"):
		return strings.HasPrefix(eventType, strings.TrimSuffix(pattern, "*"))
	default:
		return false
	}
}

// InMemoryEventEmitter dispatches analysis events synchronously to the
// handlers subscribed to their type.
type InMemoryEventEmitter struct {
	mu     sync.RWMutex
	subs   []subscription
	logger *slog.Logger
}

// NewInMemoryEventEmitter creates an emitter without subscribers.
func NewInMemoryEventEmitter(logger *slog.Logger) *InMemoryEventEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryEventEmitter{
		logger: logger.With("component", "event_emitter"),
	}
}

// Subscribe registers handler for the event types selected by patterns.
// Without patterns the handler receives every event. A handler matched by
// several patterns still receives each event once.
func (e *InMemoryEventEmitter) Subscribe(handler EventHandler, patterns ...string) {
	if len(patterns) == 0 {
		patterns = []string{AllEvents}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs = append(e.subs, subscription{patterns: patterns, handler: handler})
}

// EmitEvent delivers event to every matching handler in subscription order.
// A failing handler does not stop delivery; the first error is returned.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *AnalysisEvent) error {
	e.mu.RLock()
	var handlers []EventHandler
	for _, s := range e.subs {
		if s.matches(event.Type) {
			handlers = append(handlers, s.handler)
		}
	}
	e.mu.RUnlock()

	var firstErr error
	for _, handler := range handlers {
		if err := handler.HandleEvent(ctx, event); err != nil {
			e.logger.ErrorContext(ctx, "event handler failed",
				"error", err,
				"event_id", event.ID,
				"event_type", event.Type,
				"task_id", event.TaskID)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
