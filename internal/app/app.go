// Package app assembles the analysis pipeline from configuration. Both the
// HTTP server and the command line tool build their components here.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/scry-summarizer/internal/config"
	"github.com/phrazzld/scry-summarizer/internal/events"
	"github.com/phrazzld/scry-summarizer/internal/extract"
	"github.com/phrazzld/scry-summarizer/internal/generation"
	"github.com/phrazzld/scry-summarizer/internal/platform/dashscope"
	"github.com/phrazzld/scry-summarizer/internal/platform/gemini"
	"github.com/phrazzld/scry-summarizer/internal/platform/ollama"
	"github.com/phrazzld/scry-summarizer/internal/service"
	"github.com/phrazzld/scry-summarizer/internal/task"
)

// Application holds the components of one analysis service instance.
type Application struct {
	Config *config.Config
	Logger *slog.Logger

	Registry     *task.Registry
	TaskRunner   *task.TaskRunner
	EventEmitter *events.InMemoryEventEmitter
	Stats        *events.StatsRecorder
	Service      service.AnalysisService
}

// New builds every component for cfg. The task runner is not started.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	fetcher := extract.NewFetcher(cfg.Fetch.UserAgent, logger)
	backend, err := NewBackend(ctx, cfg.LLM, logger, fetcher)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	generation.WarmLanguageDetector()
	logger.Debug("language detector ready", "duration_ms", time.Since(start).Milliseconds())

	return NewWithBackend(cfg, logger, fetcher, backend)
}

// NewWithBackend is New with an already constructed model backend. opts are
// applied to the summarization client after the configured temperature.
func NewWithBackend(
	cfg *config.Config,
	logger *slog.Logger,
	fetcher *extract.Fetcher,
	backend generation.Backend,
	opts ...generation.Option,
) (*Application, error) {
	clientOpts := append([]generation.Option{generation.WithTemperature(cfg.LLM.Temperature)}, opts...)
	summarizer, err := generation.NewClient(backend, logger, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create summarization client: %w", err)
	}

	a := &Application{
		Config: cfg,
		Logger: logger,
		Registry: task.NewRegistry(task.RegistryConfig{
			StuckTaskAge:      cfg.Task.StuckTaskAge,
			FinishedRetention: cfg.Task.FinishedRetention,
			SweepInterval:     cfg.Task.SweepInterval,
		}, logger),
		TaskRunner: task.NewTaskRunner(task.TaskRunnerConfig{
			WorkerCount: cfg.Task.WorkerCount,
			QueueSize:   cfg.Task.QueueSize,
		}, logger),
		EventEmitter: events.NewInMemoryEventEmitter(logger),
		Stats:        events.NewStatsRecorder(),
	}
	a.EventEmitter.Subscribe(a.Stats, events.AnalysisEvents)

	a.Service, err = service.NewAnalysisService(
		a.Registry,
		a.TaskRunner,
		extract.NewCascade(fetcher, logger),
		summarizer,
		a.EventEmitter,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis service: %w", err)
	}
	a.TaskRunner.SetErrorHandler(a.Service.HandleTaskError)

	logger.Info("application initialized",
		"provider", backend.Name(),
		"text_model", cfg.LLM.TextModel,
		"vision_model", cfg.LLM.VisionModel,
		"worker_count", cfg.Task.WorkerCount)
	return a, nil
}

// NewBackend creates the model backend selected by cfg.Provider.
func NewBackend(
	ctx context.Context,
	cfg config.LLMConfig,
	logger *slog.Logger,
	fetcher *extract.Fetcher,
) (generation.Backend, error) {
	log := logger.With("component", "llm_backend")

	var (
		backend generation.Backend
		err     error
	)
	switch cfg.Provider {
	case config.ProviderDashScope:
		backend, err = dashscope.NewBackend(log, cfg)
	case config.ProviderGemini:
		backend, err = gemini.NewBackend(ctx, log, cfg)
	case config.ProviderOllama:
		backend, err = ollama.NewBackend(log, cfg, fetcher)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", generation.ErrInvalidConfig, cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s backend: %w", cfg.Provider, err)
	}
	return backend, nil
}

// Run starts the task runner and sweeps the registry until ctx is done, then
// stops the runner.
func (a *Application) Run(ctx context.Context) error {
	a.TaskRunner.Start()
	defer a.TaskRunner.Stop()
	return a.Registry.Run(ctx)
}
