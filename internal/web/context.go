package web

import (
	"context"
	"net/http"
	"time"

	"github.com/JonMunkholm/bondcheck/internal/core"
)

// SessionCookie is the cookie carrying the session id.
const SessionCookie = "bondcheck_session"

type sessionKey struct{}

// WithRequestMetadata adds IP and User-Agent to context for load logging.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, clientIP(r))
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	return ctx
}

// withSession resolves the session from its cookie, starting a new one when
// the cookie is missing or the session has expired. The cookie is set on
// every response so its MaxAge slides with the server-side idle TTL.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(SessionCookie); err == nil {
			id = c.Value
		}

		sess, _ := s.store.GetOrCreate(id)
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    sess.ID(),
			Path:     "/",
			MaxAge:   int(s.cfg.Session.TTL / time.Second),
			HttpOnly: true,
			Secure:   s.cfg.Session.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})

		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(WithRequestMetadata(ctx, r)))
	})
}

// sessionFrom returns the session attached by withSession.
func sessionFrom(ctx context.Context) *core.Session {
	sess, _ := ctx.Value(sessionKey{}).(*core.Session)
	return sess
}
