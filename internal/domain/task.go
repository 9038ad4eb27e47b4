package domain

import "time"

// TaskStatus represents the lifecycle state of an analysis task.
type TaskStatus string

// Possible task status values. NotFound is synthetic: it is returned by lookups
// for unknown IDs and never stored.
const (
	TaskStatusProcessing TaskStatus = "Processing"
	TaskStatusCompleted  TaskStatus = "Completed"
	TaskStatusFailed     TaskStatus = "Failed"
	TaskStatusNotFound   TaskStatus = "NotFound"
)

// TaskNotFoundMessage is the error text attached to synthetic NotFound tasks.
const TaskNotFoundMessage = "task not found"

// IsTerminal reports whether no further transitions are allowed from s.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// Validate checks that s is a status that may be stored in the registry.
func (s TaskStatus) Validate() error {
	switch s {
	case TaskStatusProcessing, TaskStatusCompleted, TaskStatusFailed:
		return nil
	default:
		return ErrInvalidTaskStatus
	}
}

// Task is the registry record of a single analysis.
//
// Lifecycle: Processing -> Completed | Failed, terminal.
type Task struct {
	ID        string     `json:"id"`
	Status    TaskStatus `json:"status"`
	Summary   string     `json:"summary,omitempty"`
	IsPartial bool       `json:"isPartial"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// NotFoundTask builds the synthetic record returned for unknown IDs.
func NotFoundTask(id string) Task {
	return Task{
		ID:     id,
		Status: TaskStatusNotFound,
		Error:  TaskNotFoundMessage,
	}
}
