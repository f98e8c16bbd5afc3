package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lifestyle/storefront/pkg/logger"
)

// Headers the storefront reads and echoes.
const (
	CorrelationIDHeader = "X-Correlation-ID"
	SessionIDHeader     = "X-Session-ID"
)

// RequestLogging assigns a correlation ID (reusing X-Correlation-ID when the
// client sent one), echoes it in the response and logs one line per request.
func RequestLogging(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			correlationID := r.Header.Get(CorrelationIDHeader)
			if correlationID == "" {
				correlationID = uuid.New().String()
			}

			ctx := logger.WithCorrelationID(r.Context(), correlationID)
			r = r.WithContext(ctx)
			w.Header().Set(CorrelationIDHeader, correlationID)

			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			level := slog.LevelInfo
			if sw.statusCode >= http.StatusInternalServerError {
				level = slog.LevelError
			}

			// The session id may have been minted downstream, so read it from
			// the response rather than the request.
			l.Log(ctx, level, "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", sw.statusCode),
				slog.Duration("duration", time.Since(start)),
				slog.Int("bytes", sw.bytes),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("user_agent", r.UserAgent()),
				slog.String("correlation_id", correlationID),
				slog.String("session_id", w.Header().Get(SessionIDHeader)),
			)
		})
	}
}
