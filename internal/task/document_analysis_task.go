package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-summarizer/internal/domain"
)

// DocumentProcessor runs the extraction cascade and summarization for one
// task and records the outcome in the registry.
type DocumentProcessor interface {
	ProcessAsyncDocument(ctx context.Context, taskID string, req domain.AnalysisRequest) error
}

// DocumentAnalysisTask implements the Task interface for one background
// analysis.
type DocumentAnalysisTask struct {
	id        string
	request   domain.AnalysisRequest
	processor DocumentProcessor
	logger    *slog.Logger
}

// NewDocumentAnalysisTask creates a new document analysis task
func NewDocumentAnalysisTask(
	id string,
	request domain.AnalysisRequest,
	processor DocumentProcessor,
	logger *slog.Logger,
) (*DocumentAnalysisTask, error) {
	if processor == nil {
		return nil, ErrNilProcessor
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if id == "" {
		return nil, ErrEmptyTaskID
	}

	return &DocumentAnalysisTask{
		id:        id,
		request:   request,
		processor: processor,
		logger: logger.With(
			"task_type", TaskTypeDocumentAnalysis,
			"task_id", id,
			"file_type", request.NormalizedFileType()),
	}, nil
}

// ID returns the task's unique identifier
func (t *DocumentAnalysisTask) ID() string {
	return t.id
}

// Type returns the task type identifier
func (t *DocumentAnalysisTask) Type() string {
	return TaskTypeDocumentAnalysis
}

// Request returns the analysis request this task was created for
func (t *DocumentAnalysisTask) Request() domain.AnalysisRequest {
	return t.request
}

// Execute hands the request to the processor.
func (t *DocumentAnalysisTask) Execute(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		t.logger.Warn("task cancelled before start", "error", err)
		return fmt.Errorf("task cancelled by context: %w", err)
	}

	t.logger.Info("starting document analysis", "full_analysis", t.request.IsFullAnalysis)
	if err := t.processor.ProcessAsyncDocument(ctx, t.id, t.request); err != nil {
		return fmt.Errorf("document analysis failed: %w", err)
	}
	return nil
}
