package middleware

import (
	"net/http"
	"time"

	"github.com/better-wallet/linewallet/internal/logger"
)

// Logging logs one line per request with its status and duration.
// Headers are logged at debug level with credentials redacted.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		headers := RedactHeaders(r.Header)

		rec := NewStatusRecorder(w)
		next.ServeHTTP(rec, r)

		logger.Debug(ctx, "request headers", "headers", headers)

		args := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.StatusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if rec.StatusCode >= http.StatusInternalServerError {
			logger.Error(ctx, "request completed", args...)
			return
		}
		logger.Info(ctx, "request completed", args...)
	})
}
