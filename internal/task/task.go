package task

import (
	"context"
)

// Task type constants
const (
	// TaskTypeDocumentAnalysis represents a background extraction and summarization run
	TaskTypeDocumentAnalysis = "document_analysis"
)

// Task represents a unit of background work to be processed
type Task interface {
	// ID returns the task's unique identifier
	ID() string

	// Type returns the task type identifier
	Type() string

	// Execute runs the task logic
	Execute(ctx context.Context) error
}
