package middleware

import (
	"net/http"

	"crm-gateway/internal/identity"
	"crm-gateway/internal/logger"
	"crm-gateway/internal/metrics"
	"crm-gateway/internal/session"
)

// CookieSession restores a durable browser login from the session cookie.
// A principal found here is established with MethodCookie and survives the
// end-of-request release.
type CookieSession struct {
	store session.Store
}

func NewCookieSession(store session.Store) *CookieSession {
	return &CookieSession{store: store}
}

func (s *CookieSession) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, ic := identity.Attach(r.Context())
		r = r.WithContext(ctx)

		token, ok := session.TokenFromCookie(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		rec, err := s.store.Get(ctx, token)
		switch {
		case err != nil:
			logger.Warn("cookie session lookup failed", map[string]any{
				"token": logger.MaskToken(token),
				"error": err.Error(),
			})
			metrics.SessionStoreErrorsTotal.WithLabelValues("cookie").Inc()
		case rec != nil && rec.Principal.Valid():
			ic.Establish(rec.Principal.WithSession(token), identity.MethodCookie)
		}

		next.ServeHTTP(w, r)
	})
}
