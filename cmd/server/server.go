package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/phrazzld/scry-summarizer/internal/app"
	"github.com/phrazzld/scry-summarizer/internal/config"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// server runs the HTTP listener next to the application's background work.
type server struct {
	app    *app.Application
	logger *slog.Logger
	http   *http.Server
}

func newServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*server, error) {
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize application: %w", err)
	}
	return newServerFromApp(a), nil
}

func newServerFromApp(a *app.Application) *server {
	s := &server{
		app:    a,
		logger: a.Logger.With("component", "http_server"),
	}
	s.http = &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(a.Config.Server.Port)),
		Handler:           s.setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Run serves on the configured port until ctx is cancelled.
func (s *server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.http.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln, runs the task runner and registry sweep,
// and shuts everything down once ctx is cancelled or any of them fails.
func (s *server) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.app.Run(gctx)
	})

	g.Go(func() error {
		s.logger.Info("starting server", "addr", ln.Addr().String())
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	err := g.Wait()
	s.logger.Info("server shutdown completed")
	return err
}
