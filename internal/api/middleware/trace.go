package middleware

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-summarizer/internal/api/shared"
	"github.com/phrazzld/scry-summarizer/internal/platform/logger"
)

// NewTraceMiddleware adds a trace ID to the request context and registers it
// as the request id picked up by the context log handler.
// This middleware should be applied early in the middleware chain to ensure
// that all subsequent handlers have access to the trace ID.
func NewTraceMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.SetTraceID(r.Context())
			traceID := shared.GetTraceID(ctx)
			ctx = logger.WithRequestID(ctx, traceID)

			log.DebugContext(ctx, "request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			w.Header().Set("X-Trace-Id", traceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
