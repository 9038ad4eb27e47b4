package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/scry-summarizer/internal/domain"
)

// RegistryConfig controls how long registry entries are kept.
type RegistryConfig struct {
	// StuckTaskAge is how long a task may sit in Processing before the sweep
	// treats it as orphaned and evicts it.
	StuckTaskAge time.Duration

	// FinishedRetention is how long a Completed or Failed task stays readable.
	// Zero keeps finished tasks until the process exits.
	FinishedRetention time.Duration

	// SweepInterval is the period of the background sweep.
	SweepInterval time.Duration
}

// DefaultRegistryConfig returns a RegistryConfig with reasonable defaults
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		StuckTaskAge:      10 * time.Minute,
		FinishedRetention: 30 * time.Minute,
		SweepInterval:     30 * time.Second,
	}
}

// Outcome carries the fields written by Update.
type Outcome struct {
	Status    domain.TaskStatus
	Summary   string
	IsPartial bool
	Error     string
}

// Registry is the in-memory store of analysis tasks, scoped to one service
// instance. It is safe for concurrent use; each task only ever touches its own
// key, so a single RWMutex is sufficient.
type Registry struct {
	mu     sync.RWMutex
	tasks  map[string]*domain.Task
	config RegistryConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry(config RegistryConfig, logger *slog.Logger) *Registry {
	defaults := DefaultRegistryConfig()
	if config.StuckTaskAge <= 0 {
		config.StuckTaskAge = defaults.StuckTaskAge
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = defaults.SweepInterval
	}
	if config.FinishedRetention < 0 {
		config.FinishedRetention = 0
	}

	return &Registry{
		tasks:  make(map[string]*domain.Task),
		config: config,
		logger: logger.With("component", "task_registry"),
		now:    time.Now,
	}
}

// Create registers id in the Processing state. It fails only when id is
// already present; callers are responsible for collision-resistant IDs.
func (r *Registry) Create(id string) error {
	if id == "" {
		return ErrEmptyTaskID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; ok {
		return fmt.Errorf("%w: %s", ErrTaskExists, id)
	}

	now := r.now()
	r.tasks[id] = &domain.Task{
		ID:        id,
		Status:    domain.TaskStatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

// Update overwrites the outcome fields of id and refreshes UpdatedAt. Unknown
// IDs and tasks already in a terminal state are left untouched; the returned
// error is informational and has already been logged.
func (r *Registry) Update(id string, outcome Outcome) error {
	if err := outcome.Status.Validate(); err != nil {
		return fmt.Errorf("%w: %q", err, outcome.Status)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		r.logger.Warn("update for unknown task ignored",
			"task_id", id,
			"status", outcome.Status)
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if t.Status.IsTerminal() {
		r.logger.Warn("update for finished task ignored",
			"task_id", id,
			"current_status", t.Status,
			"status", outcome.Status)
		return fmt.Errorf("%w: %s is %s", ErrTerminalState, id, t.Status)
	}

	t.Status = outcome.Status
	t.Summary = outcome.Summary
	t.IsPartial = outcome.IsPartial
	t.Error = outcome.Error
	t.UpdatedAt = r.now()
	return nil
}

// Get returns a copy of the stored task, or a synthetic NotFound task.
func (r *Registry) Get(id string) domain.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return domain.NotFoundTask(id)
	}
	return *t
}

// Len returns the number of stored tasks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// Sweep evicts Processing tasks idle for longer than StuckTaskAge and finished
// tasks older than FinishedRetention. It returns the number of evicted tasks.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	stuck, finished := 0, 0
	for id, t := range r.tasks {
		age := now.Sub(t.UpdatedAt)
		switch {
		case t.Status == domain.TaskStatusProcessing && age > r.config.StuckTaskAge:
			delete(r.tasks, id)
			stuck++
		case t.Status.IsTerminal() && r.config.FinishedRetention > 0 && age > r.config.FinishedRetention:
			delete(r.tasks, id)
			finished++
		}
	}

	if stuck > 0 || finished > 0 {
		r.logger.Info("swept stale tasks",
			"stuck_count", stuck,
			"finished_count", finished,
			"remaining", len(r.tasks))
	}
	return stuck + finished
}

// Run sweeps the registry every SweepInterval until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.config.SweepInterval)
	defer ticker.Stop()

	r.logger.Debug("registry sweep started", "interval", r.config.SweepInterval)
	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("registry sweep stopped")
			return nil
		case <-ticker.C:
			r.Sweep()
		}
	}
}
