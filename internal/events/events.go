package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the analysis service
const (
	TypeAnalysisStarted   = "analysis.started"
	TypeAnalysisCompleted = "analysis.completed"
	TypeAnalysisFailed    = "analysis.failed"
	TypeQuickSummary      = "analysis.quick"

	// AnalysisEvents selects every analysis.* event type.
	AnalysisEvents = "analysis.*"
)

// AnalysisEvent describes a state change of one analysis.
type AnalysisEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the Type* constants
	Type string `json:"type"`

	TaskID    string        `json:"task_id,omitempty"`
	FileType  string        `json:"file_type,omitempty"`
	IsPartial bool          `json:"is_partial,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewAnalysisEvent creates a new AnalysisEvent of the given type.
func NewAnalysisEvent(eventType, taskID, fileType string) *AnalysisEvent {
	return &AnalysisEvent{
		ID:        uuid.New(),
		Type:      eventType,
		TaskID:    taskID,
		FileType:  fileType,
		CreatedAt: time.Now(),
	}
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *AnalysisEvent) error
}

// EventEmitter defines an interface for components that can emit events.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *AnalysisEvent) error
}
