package task

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue
	QueueSize int
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount: 4,
		QueueSize:   256,
	}
}

// TaskRunner executes submitted tasks on a fixed pool of worker goroutines.
// Submit never blocks: a full queue is reported back to the caller.
type TaskRunner struct {
	taskChan   chan Task
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     TaskRunnerConfig
	logger     *slog.Logger
	errHandler func(task Task, err error)

	mu      sync.RWMutex
	closed  bool
	started bool
}

// NewTaskRunner creates a new TaskRunner
func NewTaskRunner(config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	defaults := DefaultTaskRunnerConfig()
	if config.WorkerCount <= 0 {
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", defaults.WorkerCount)
		config.WorkerCount = defaults.WorkerCount
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	logger = logger.With("component", "task_runner")

	return &TaskRunner{
		taskChan:   make(chan Task, config.QueueSize),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger,
		errHandler: func(task Task, err error) {
			// Default error handler just logs the error
			logger.Error("task execution failed",
				"task_id", task.ID(),
				"task_type", task.Type(),
				"error", err)
		},
	}
}

// SetErrorHandler allows setting a custom error handler function.
// It must be called before Start.
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.errHandler = handler
}

// Submit adds a new task to the queue
func (r *TaskRunner) Submit(ctx context.Context, task Task) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return ErrQueueClosed
	}

	select {
	case r.taskChan <- task:
		r.logger.DebugContext(ctx, "task enqueued",
			"task_id", task.ID(),
			"task_type", task.Type(),
			"queue_len", len(r.taskChan),
			"queue_cap", cap(r.taskChan))
		return nil
	default:
		return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(r.taskChan))
	}
}

// Start launches the worker goroutines. Calling Start twice is a no-op.
func (r *TaskRunner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started || r.closed {
		return
	}
	r.started = true

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}
	r.logger.Info("task runner started",
		"worker_count", r.config.WorkerCount,
		"queue_size", r.config.QueueSize)
}

// Stop stops accepting tasks, cancels in-flight work and waits for workers to
// exit. Tasks still queued are dropped.
func (r *TaskRunner) Stop() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.taskChan)
	r.mu.Unlock()

	r.cancelFunc()
	r.wg.Wait()
	r.logger.Info("task runner stopped", "dropped_tasks", len(r.taskChan))
}

// worker processes tasks from the queue
func (r *TaskRunner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", "worker_id", id)
			return

		case task, ok := <-r.taskChan:
			if !ok {
				r.logger.Debug("task channel closed, stopping worker", "worker_id", id)
				return
			}
			r.processTask(task, id)
		}
	}
}

// processTask handles execution of a single task. A panic inside the task is
// converted into an error so one bad document cannot take the worker down.
func (r *TaskRunner) processTask(task Task, workerID int) {
	logger := r.logger.With(
		"task_id", task.ID(),
		"task_type", task.Type(),
		"worker_id", workerID,
	)

	logger.Info("processing task")
	start := time.Now()

	err := r.execute(task)
	if err != nil {
		logger.Error("task execution failed",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		r.errHandler(task, err)
		return
	}

	logger.Info("task completed", "duration_ms", time.Since(start).Milliseconds())
}

func (r *TaskRunner) execute(task Task) (err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("recovered from task panic",
				"task_id", task.ID(),
				"panic", p,
				"stack", string(debug.Stack()))
			err = fmt.Errorf("%w: %v", ErrPanicRecovered, p)
		}
	}()
	return task.Execute(r.ctx)
}
