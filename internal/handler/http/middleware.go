package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/lifestyle/storefront/internal/session"
	"github.com/lifestyle/storefront/pkg/httputil"
	"github.com/lifestyle/storefront/pkg/logger"
	"github.com/lifestyle/storefront/pkg/middleware"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

// sessionKey is the context key for the resolved storefront session.
const sessionKey contextKey = "session"

// SessionProvider resolves a session id to its stores, creating the session on
// first use.
type SessionProvider interface {
	Get(ctx context.Context, id string) (*session.Session, error)
}

// SessionFromHeader resolves the X-Session-ID header to a session and stores
// it in the request context. A request without the header starts a new
// session; the id in use is always echoed back on the response so the client
// can keep it. A header that is not a UUID is rejected with 400.
func SessionFromHeader(sessions SessionProvider, base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw := r.Header.Get(middleware.SessionIDHeader)
			minted := raw == ""
			id := uuid.NewString()
			if !minted {
				parsed, ok := httputil.ParseUUID(w, raw)
				if !ok {
					return
				}
				id = parsed.String()
			}
			w.Header().Set(middleware.SessionIDHeader, id)

			sess, err := sessions.Get(ctx, id)
			if err != nil {
				httputil.WriteError(w, r, err, base)
				return
			}

			ctx = logger.WithSessionID(ctx, id)
			if minted {
				// RequestLogger ran before the id existed.
				ctx = logger.NewContext(ctx, logger.FromContext(ctx).With(slog.String("session_id", id)))
			}
			ctx = context.WithValue(ctx, sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sessionFromContext returns the session stored by SessionFromHeader. It
// panics when the middleware is not mounted, which Recovery turns into a 500.
func sessionFromContext(ctx context.Context) *session.Session {
	sess, ok := ctx.Value(sessionKey).(*session.Session)
	if !ok || sess == nil {
		panic("storefront: handler mounted without SessionFromHeader middleware")
	}
	return sess
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:    "UNSUPPORTED_MEDIA_TYPE",
						Message: "Content-Type must be application/json",
					},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// limitBody wraps the request body so decoding stops after maxBodyBytes.
func limitBody(w http.ResponseWriter, r *http.Request) *http.Request {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return r
}
