package http

import (
	"context"
	"net/http"
	"time"

	"kpidash/internal/i18n"
	"kpidash/internal/session"
)

type sessionKey struct{}

// SessionConfig controls the session cookie
type SessionConfig struct {
	CookieName      string
	Secure          bool
	TTL             time.Duration
	DefaultLanguage i18n.Lang
}

// SessionCtx attaches the visitor's session to the request context,
// creating one (in the Accept-Language, else the default language) when
// the cookie is missing or stale
func SessionCtx(svc DashboardServiceInterface, cfg SessionConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if c, err := r.Cookie(cfg.CookieName); err == nil {
				id = c.Value
			}

			lang := i18n.ParseOr(r.Header.Get("Accept-Language"), cfg.DefaultLanguage)
			sess, created := svc.ResolveSession(id, lang)
			if created {
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    sess.ID,
					Path:     "/",
					MaxAge:   int(cfg.TTL.Seconds()),
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), sessionKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the session SessionCtx attached
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(*session.Session)
	return sess, ok
}
