package middleware

import (
	"net/http"

	"crm-gateway/internal/identity"
	"crm-gateway/internal/metrics"
)

// Gate admits a request when it is a preflight, targets an excluded or
// public path, or carries an authenticated identity. A POST to the login
// path is answered by the login handler. Everything else gets a 401 JSON
// body; the gate never redirects.
type Gate struct {
	paths PathPolicy
	login http.Handler
}

// NewGate builds the gate. With a nil login handler, login submissions fall
// through to the router like any public path.
func NewGate(paths PathPolicy, login http.Handler) *Gate {
	return &Gate{paths: paths, login: login}
}

func (g *Gate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		switch {
		case r.Method == http.MethodOptions:
		case g.paths.IsExcluded(path):
		case path == LoginPath:
			if r.Method == http.MethodPost && g.login != nil {
				g.login.ServeHTTP(w, r)
				return
			}
		case g.paths.IsPublic(path):
		case authenticated(r):
		default:
			metrics.GateDenialsTotal.Inc()
			writeUnauthorized(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func authenticated(r *http.Request) bool {
	ic := identity.FromContext(r.Context())
	return ic != nil && ic.Authenticated()
}
