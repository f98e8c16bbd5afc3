package middleware

import (
	"log/slog"
	"net/http"

	"github.com/lifestyle/storefront/pkg/logger"
)

// RequestLogger stores a request-scoped logger in the context, enriched with
// correlation_id, session_id, trace_id and span_id. Handlers retrieve it with
// logger.FromContext.
//
// Mount it after RequestLogging (correlation id) and Tracing (span context).
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// A session id already in context wins over the raw header.
			if logger.SessionIDFromContext(ctx) == "" {
				if id := r.Header.Get(SessionIDHeader); id != "" {
					ctx = logger.WithSessionID(ctx, id)
				}
			}

			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
