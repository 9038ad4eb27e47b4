package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/scry-summarizer/internal/api"
	apiMiddleware "github.com/phrazzld/scry-summarizer/internal/api/middleware"
)

// quickSummaryTimeout bounds the synchronous quick endpoint. It covers the
// slowest fetch plus model call of the cascade.
const quickSummaryTimeout = 60 * time.Second

// setupRouter creates the router with all routes and middleware.
func (s *server) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(s.logger))

	analysisHandler := api.NewAnalysisHandler(s.app.Service, s.app.Stats, s.logger)

	r.Route("/api/analysis", func(r chi.Router) {
		r.Post("/", analysisHandler.HandleAction)
		r.With(middleware.Timeout(quickSummaryTimeout)).Post("/quick", analysisHandler.QuickSummary)
		r.Get("/stats", analysisHandler.Stats)
	})

	r.Get("/health", api.Health)

	return r
}
