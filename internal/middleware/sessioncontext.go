package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/forcegate/forcegate/internal/logger"
	"github.com/forcegate/forcegate/internal/session"
	"github.com/forcegate/forcegate/internal/web"
)

type contextKey string

const sessionContextKey contextKey = "session"

// SessionLoader returns middleware that verifies the signed session cookie,
// loads the matching session from the store, and injects it into the request
// context. Requests without a usable cookie or a known session continue
// without one; protected handlers decide whether that is a 401.
func SessionLoader(store session.Store, secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := web.SessionIDFromRequest(r, secret)
			if err != nil {
				if !errors.Is(err, web.ErrNoSession) {
					logger.Warn("Failed to read session cookie", "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			sess, err := store.Get(r.Context(), id)
			if err != nil {
				if !errors.Is(err, session.ErrSessionNotFound) {
					logger.Error("Failed to load session", "error", err, "sessionID", id)
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession extracts the session from the request context.
func GetSession(r *http.Request) (*session.Session, bool) {
	sess, ok := r.Context().Value(sessionContextKey).(*session.Session)
	return sess, ok
}

// WithSession injects a session into a request context. Test helper.
func WithSession(r *http.Request, sess *session.Session) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), sessionContextKey, sess))
}
