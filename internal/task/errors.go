package task

import "errors"

// Common errors returned by the registry and runner
var (
	ErrTaskExists     = errors.New("task already exists")
	ErrTaskNotFound   = errors.New("task not found")
	ErrTerminalState  = errors.New("task already reached a terminal state")
	ErrQueueFull      = errors.New("task queue is full")
	ErrQueueClosed    = errors.New("task queue is closed")
	ErrNilProcessor   = errors.New("document processor cannot be nil")
	ErrNilLogger      = errors.New("logger cannot be nil")
	ErrEmptyTaskID    = errors.New("task ID cannot be empty")
	ErrPanicRecovered = errors.New("task panicked")
)
