package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/peixeshop/internal/auth"
	"github.com/fjod/peixeshop/internal/domain"
	"github.com/fjod/peixeshop/internal/session"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

const (
	SessionHeader = "X-Session-ID"
	SessionCookie = "sid"
)

type ctxKey int

const (
	sessionIDKey ctxKey = iota
	userKey
)

// RequestLogger logs one line per request through logrus.
func RequestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.WithFields(logrus.Fields{
				"request_id":  middleware.GetReqID(r.Context()),
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
			}).Info("request")
		})
	}
}

// SessionMiddleware reads the session id from the X-Session-ID header or the
// sid cookie. A missing or malformed id gets a fresh one, echoed back in both.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := r.Header.Get(SessionHeader)
		if sid == "" {
			if c, err := r.Cookie(SessionCookie); err == nil {
				sid = c.Value
			}
		}
		if !session.ValidID(sid) {
			sid = session.NewID()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    sid,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				MaxAge:   int(session.DefaultSessionTTL.Seconds()),
			})
		}
		w.Header().Set(SessionHeader, sid)

		ctx := context.WithValue(r.Context(), sessionIDKey, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserMiddleware resolves the user attached to the session, if any.
func UserMiddleware(sessions *session.Manager, accounts Accounts, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, err := sessions.User(r.Context(), sessionID(r.Context()))
			if err != nil {
				handleError(w, r, log, err)
				return
			}
			if uid == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := accounts.User(r.Context(), uid)
			if errors.Is(err, auth.ErrUserNotFound) {
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				handleError(w, r, log, err)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r.Context()) == nil {
			respondError(w, http.StatusUnauthorized, "unauthorized", "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireAdmin(accounts Accounts) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := currentUser(r.Context())
			if user == nil {
				respondError(w, http.StatusUnauthorized, "unauthorized", "sign in required")
				return
			}
			if !accounts.IsAdmin(user) {
				respondError(w, http.StatusForbidden, "permission_denied", "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func sessionID(ctx context.Context) string {
	if sid, ok := ctx.Value(sessionIDKey).(string); ok {
		return sid
	}
	return ""
}

func currentUser(ctx context.Context) *domain.User {
	if u, ok := ctx.Value(userKey).(*domain.User); ok {
		return u
	}
	return nil
}
