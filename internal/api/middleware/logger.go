package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

type loggerKey struct{}

// RequestLogger stores a request scoped logger in the context.
// Runs after chi's RequestID so the id can be attached to every line.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := base
			if reqID := middleware.GetReqID(r.Context()); reqID != "" {
				l = l.With("request_id", reqID)
			}
			ctx := context.WithValue(r.Context(), loggerKey{}, l)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoggerFromContext returns the request logger, or slog.Default() if none is set
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
