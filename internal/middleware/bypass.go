package middleware

import (
	"net/http"

	"crm-gateway/internal/logger"
	"crm-gateway/internal/metrics"
	"crm-gateway/internal/session"
)

// Bypass answers the current-identity probe before the authentication
// pipeline runs. Only Authorization: Bearer|Session tokens are accepted;
// cookies and X-AUTH-TOKEN are ignored here.
type Bypass struct {
	store session.Store
	paths PathPolicy
}

func NewBypass(store session.Store, paths PathPolicy) *Bypass {
	return &Bypass{store: store, paths: paths}
}

// Handler serves excluded paths itself and passes everything else on.
func (b *Bypass) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !b.paths.IsExcluded(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		b.ServeHTTP(w, r)
	})
}

// ServeHTTP serves the current-identity endpoint regardless of path.
func (b *Bypass) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reflectOrigin(w, r)

	switch r.Method {
	case http.MethodOptions:
		h := w.Header()
		if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
			h.Set("Access-Control-Allow-Headers", reqHeaders)
		}
		h.Set("Access-Control-Allow-Methods", "GET,OPTIONS")
		h.Set("Access-Control-Max-Age", "3600")
		w.WriteHeader(http.StatusNoContent)
		b.count("preflight")

	case http.MethodGet:
		b.serveCurrent(w, r)

	default:
		w.Header().Set("Allow", "GET, OPTIONS")
		WriteError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		b.count("method_not_allowed")
	}
}

func (b *Bypass) serveCurrent(w http.ResponseWriter, r *http.Request) {
	token, ok := session.TokenFromAuthorization(r.Header)
	if !ok {
		writeUnauthorized(w)
		b.count("no_token")
		return
	}

	rec, err := b.store.Get(r.Context(), token)
	if err != nil {
		logger.Error("current user lookup failed", map[string]any{
			"token": logger.MaskToken(token),
			"error": err.Error(),
		})
		metrics.SessionStoreErrorsTotal.WithLabelValues("bypass").Inc()
		writeUnauthorized(w)
		b.count("store_unavailable")
		return
	}
	if rec == nil || !rec.Principal.Valid() {
		writeUnauthorized(w)
		b.count("unknown_session")
		return
	}

	WriteJSON(w, http.StatusOK, rec.Principal.WithSession(token))
	b.count("ok")
}

func (b *Bypass) count(result string) {
	metrics.BypassRequestsTotal.WithLabelValues(result).Inc()
}

// reflectOrigin echoes the caller's origin so credentialed browser requests
// can read the response.
func reflectOrigin(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", origin)
	h.Add("Vary", "Origin")
	h.Set("Access-Control-Allow-Credentials", "true")
}
