package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-summarizer/internal/domain"
	"github.com/phrazzld/scry-summarizer/internal/events"
	"github.com/phrazzld/scry-summarizer/internal/extract"
	"github.com/phrazzld/scry-summarizer/internal/generation"
	"github.com/phrazzld/scry-summarizer/internal/platform/logger"
	"github.com/phrazzld/scry-summarizer/internal/redact"
	"github.com/phrazzld/scry-summarizer/internal/task"
)

// StartedMessage is returned to the caller of a successful StartAnalysis.
const StartedMessage = "Analysis started, poll checkResult with the task id for the summary"

// TaskStore is the registry the service records task state in.
type TaskStore interface {
	// Create registers id in the Processing state
	Create(id string) error

	// Update records the outcome of a Processing task
	Update(id string, outcome task.Outcome) error

	// Get returns the task or a synthetic NotFound task
	Get(id string) domain.Task
}

// TaskRunner defines the interface for submitting background tasks
type TaskRunner interface {
	// Submit adds a task to the processing queue
	Submit(ctx context.Context, task task.Task) error
}

// Extractor runs the extraction cascade for one document.
type Extractor interface {
	Extract(ctx context.Context, ref extract.Reference) extract.Extraction
}

// Summarizer calls the generative model.
type Summarizer interface {
	SummarizeText(ctx context.Context, req generation.TextRequest) (domain.SummaryResult, error)
	SummarizeMultimodal(ctx context.Context, req generation.MultimodalRequest) (domain.SummaryResult, error)
}

// AnalysisService provides the document analysis operations
type AnalysisService interface {
	// StartAnalysis registers a Processing task for req and schedules it in
	// the background. An empty taskID is replaced with a generated one.
	StartAnalysis(ctx context.Context, req domain.AnalysisRequest, taskID string) (string, error)

	// CheckResult returns the current state of a task. Unknown ids yield a
	// task with status NotFound.
	CheckResult(ctx context.Context, taskID string) (domain.Task, error)

	// ProcessAsyncDocument runs the pipeline for a registered task and records
	// the outcome in the registry.
	ProcessAsyncDocument(ctx context.Context, taskID string, req domain.AnalysisRequest) error

	// ProcessQuickSummary runs the pipeline synchronously.
	ProcessQuickSummary(ctx context.Context, req domain.AnalysisRequest) (domain.SummaryResult, error)

	// HandleTaskError is the runner's error handler. It fails tasks that are
	// still Processing after their execution returned an error.
	HandleTaskError(t task.Task, err error)
}

// AnalysisServiceError wraps errors from the analysis service with context.
type AnalysisServiceError struct {
	// Operation is the operation that failed (e.g., "start_analysis")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for AnalysisServiceError.
func (e *AnalysisServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("analysis service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("analysis service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *AnalysisServiceError) Unwrap() error {
	return e.Err
}

// NewAnalysisServiceError creates a new AnalysisServiceError.
// Validation failures and service sentinels are returned without wrapping.
func NewAnalysisServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrEmptyTaskID) ||
		errors.Is(err, ErrDuplicateTask) ||
		errors.Is(err, ErrServiceBusy) {
		return err
	}
	return &AnalysisServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// analysisServiceImpl implements the AnalysisService interface
type analysisServiceImpl struct {
	tasks        TaskStore
	runner       TaskRunner
	extractor    Extractor
	summarizer   Summarizer
	eventEmitter events.EventEmitter
	logger       *slog.Logger
	now          func() time.Time
}

// NewAnalysisService creates a new AnalysisService.
// It returns an error if any of the required dependencies are nil.
func NewAnalysisService(
	tasks TaskStore,
	runner TaskRunner,
	extractor Extractor,
	summarizer Summarizer,
	eventEmitter events.EventEmitter,
	logger *slog.Logger,
) (AnalysisService, error) {
	deps := []struct {
		ok   bool
		name string
	}{
		{tasks != nil, "tasks"},
		{runner != nil, "runner"},
		{extractor != nil, "extractor"},
		{summarizer != nil, "summarizer"},
		{eventEmitter != nil, "eventEmitter"},
	}
	for _, d := range deps {
		if !d.ok {
			return nil, &AnalysisServiceError{
				Operation: "create_service",
				Message:   d.name + " cannot be nil",
			}
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &analysisServiceImpl{
		tasks:        tasks,
		runner:       runner,
		extractor:    extractor,
		summarizer:   summarizer,
		eventEmitter: eventEmitter,
		logger:       logger.With("component", "analysis_service"),
		now:          time.Now,
	}, nil
}

// StartAnalysis registers the task before it is queued, so a poll issued
// right after this returns always finds it Processing.
func (s *analysisServiceImpl) StartAnalysis(
	ctx context.Context,
	req domain.AnalysisRequest,
	taskID string,
) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		taskID = uuid.NewString()
	}
	ctx = logger.WithTaskID(ctx, taskID)
	fileType := req.NormalizedFileType()

	if err := s.tasks.Create(taskID); err != nil {
		if errors.Is(err, task.ErrTaskExists) {
			return "", fmt.Errorf("%w: %s", ErrDuplicateTask, taskID)
		}
		return "", NewAnalysisServiceError("start_analysis", "failed to register task", err)
	}

	t, err := task.NewDocumentAnalysisTask(taskID, req, s, s.logger)
	if err != nil {
		s.failTask(ctx, taskID, "failed to create analysis task")
		return "", NewAnalysisServiceError("start_analysis", "failed to create task", err)
	}

	if err := s.runner.Submit(ctx, t); err != nil {
		s.logger.WarnContext(ctx, "task rejected by runner",
			"file_type", fileType,
			"error", err)
		s.failTask(ctx, taskID, ErrServiceBusy.Error())
		if errors.Is(err, task.ErrQueueFull) || errors.Is(err, task.ErrQueueClosed) {
			return "", fmt.Errorf("%w: %w", ErrServiceBusy, err)
		}
		return "", NewAnalysisServiceError("start_analysis", "failed to submit task", err)
	}

	s.logger.InfoContext(ctx, "analysis started",
		"file_type", fileType,
		"full_analysis", req.IsFullAnalysis)
	s.emit(ctx, events.NewAnalysisEvent(events.TypeAnalysisStarted, taskID, fileType))

	return taskID, nil
}

// CheckResult returns the registry record for taskID.
func (s *analysisServiceImpl) CheckResult(_ context.Context, taskID string) (domain.Task, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return domain.Task{}, fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrEmptyTaskID)
	}
	return s.tasks.Get(taskID), nil
}

// ProcessAsyncDocument runs the pipeline and writes Completed or Failed to
// the registry. The returned error is the one recorded for a Failed task.
func (s *analysisServiceImpl) ProcessAsyncDocument(
	ctx context.Context,
	taskID string,
	req domain.AnalysisRequest,
) error {
	ctx = logger.WithTaskID(ctx, taskID)
	fileType := req.NormalizedFileType()
	start := s.now()

	result, err := s.analyze(ctx, req)
	duration := s.now().Sub(start)

	if err != nil {
		message := redact.Error(err)
		s.logger.ErrorContext(ctx, "analysis failed",
			"file_type", fileType,
			"error", message,
			"duration_ms", duration.Milliseconds())
		_ = s.tasks.Update(taskID, task.Outcome{
			Status: domain.TaskStatusFailed,
			Error:  message,
		})

		event := events.NewAnalysisEvent(events.TypeAnalysisFailed, taskID, fileType)
		event.Duration = duration
		s.emit(ctx, event)
		return NewAnalysisServiceError("process_document", "analysis failed", err)
	}

	if err := s.tasks.Update(taskID, task.Outcome{
		Status:    domain.TaskStatusCompleted,
		Summary:   result.Summary,
		IsPartial: result.IsPartial,
	}); err != nil {
		// the task was swept or already finished; the result is discarded
		s.logger.WarnContext(ctx, "analysis result discarded", "error", err)
	}

	s.logger.InfoContext(ctx, "analysis completed",
		"file_type", fileType,
		"is_partial", result.IsPartial,
		"summary_chars", len([]rune(result.Summary)),
		"duration_ms", duration.Milliseconds())

	event := events.NewAnalysisEvent(events.TypeAnalysisCompleted, taskID, fileType)
	event.IsPartial = result.IsPartial
	event.Duration = duration
	s.emit(ctx, event)
	return nil
}

// ProcessQuickSummary validates req and runs the pipeline inline.
func (s *analysisServiceImpl) ProcessQuickSummary(
	ctx context.Context,
	req domain.AnalysisRequest,
) (domain.SummaryResult, error) {
	if err := req.Validate(); err != nil {
		return domain.SummaryResult{}, err
	}

	fileType := req.NormalizedFileType()
	start := s.now()
	result, err := s.analyze(ctx, req)
	if err != nil {
		s.logger.ErrorContext(ctx, "quick summary failed",
			"file_type", fileType,
			"error", redact.Error(err))
		return domain.SummaryResult{}, NewAnalysisServiceError("quick_summary", "analysis failed", err)
	}

	event := events.NewAnalysisEvent(events.TypeQuickSummary, "", fileType)
	event.IsPartial = result.IsPartial
	event.Duration = s.now().Sub(start)
	s.emit(ctx, event)
	return result, nil
}

// HandleTaskError fails a task whose execution ended with an error before it
// recorded an outcome, for example after a recovered panic.
func (s *analysisServiceImpl) HandleTaskError(t task.Task, err error) {
	ctx := logger.WithTaskID(context.Background(), t.ID())

	current := s.tasks.Get(t.ID())
	if current.Status != domain.TaskStatusProcessing {
		s.logger.DebugContext(ctx, "task error already recorded",
			"status", current.Status,
			"error", redact.Error(err))
		return
	}

	message := redact.Error(err)
	s.logger.ErrorContext(ctx, "marking task failed after execution error",
		"task_type", t.Type(),
		"error", message)
	_ = s.tasks.Update(t.ID(), task.Outcome{
		Status: domain.TaskStatusFailed,
		Error:  message,
	})

	fileType := ""
	if dt, ok := t.(*task.DocumentAnalysisTask); ok {
		fileType = dt.Request().NormalizedFileType()
	}
	s.emit(ctx, events.NewAnalysisEvent(events.TypeAnalysisFailed, t.ID(), fileType))
}

func (s *analysisServiceImpl) failTask(ctx context.Context, taskID, message string) {
	if err := s.tasks.Update(taskID, task.Outcome{
		Status: domain.TaskStatusFailed,
		Error:  message,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to record task failure", "error", err)
	}
}

func (s *analysisServiceImpl) emit(ctx context.Context, event *events.AnalysisEvent) {
	if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit event",
			"event_type", event.Type,
			"error", err)
	}
}
