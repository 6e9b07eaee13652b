package middleware

import (
	"context"
	"errors"
	"net/http"

	"crm-gateway/internal/identity"
	"crm-gateway/internal/logger"
	"crm-gateway/internal/metrics"
	"crm-gateway/internal/session"
)

// APIKeyVerifier checks the accessKey/signature scheme.
type APIKeyVerifier interface {
	Present(r *http.Request) bool
	Verify(ctx context.Context, r *http.Request) (userID string, err error)
}

// PrincipalLoader resolves a user id to a principal without touching
// password material.
type PrincipalLoader interface {
	Principal(ctx context.Context, id string) (*identity.Principal, error)
}

// Authenticator identifies the caller of every request that reaches it.
// Schemes are tried in order: an identity already established upstream
// (durable cookie), session token, API key. Per-request logins are released
// when the rest of the chain returns, whatever way it returns.
type Authenticator struct {
	store  session.Store
	keys   APIKeyVerifier
	loader PrincipalLoader
	paths  PathPolicy
}

// NewAuthenticator builds the authenticator. keys and loader may be nil, in
// which case the API key scheme is skipped.
func NewAuthenticator(store session.Store, keys APIKeyVerifier, loader PrincipalLoader, paths PathPolicy) *Authenticator {
	return &Authenticator{store: store, keys: keys, loader: loader, paths: paths}
}

func (a *Authenticator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, ic := identity.Attach(r.Context())
		r = r.WithContext(ctx)

		defer ic.Release(releaseHook)

		outcome := a.authenticate(w, r, ic)
		ic.SetOutcome(outcome)
		metrics.AuthOutcomesTotal.WithLabelValues(ic.Method().String(), outcome.String()).Inc()

		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) authenticate(w http.ResponseWriter, r *http.Request, ic *identity.Context) identity.Outcome {
	if ic.Authenticated() {
		return identity.Authenticated
	}

	if p, ok := a.fromSessionToken(r); ok {
		ic.Establish(p, identity.MethodSessionToken)
		return identity.Authenticated
	}

	if p, ok := a.fromAPIKey(r); ok {
		ic.Establish(p, identity.MethodAPIKey)
		return identity.Authenticated
	}

	if a.paths.IsExcluded(r.URL.Path) || a.paths.IsPublic(r.URL.Path) {
		return identity.Unauthenticated
	}

	w.Header().Set(HeaderAuthStatus, "invalid")
	return identity.Invalid
}

// fromSessionToken never fails the request: a store error is logged,
// counted and treated as "no session".
func (a *Authenticator) fromSessionToken(r *http.Request) (*identity.Principal, bool) {
	token, ok := session.TokenFromHeaders(r.Header)
	if !ok {
		return nil, false
	}

	rec, err := a.store.Get(r.Context(), token)
	if err != nil {
		logger.Warn("session token lookup failed", map[string]any{
			"token": logger.MaskToken(token),
			"path":  r.URL.Path,
			"error": err.Error(),
		})
		metrics.SessionStoreErrorsTotal.WithLabelValues("authenticate").Inc()
		return nil, false
	}
	if rec == nil || !rec.Principal.Valid() {
		return nil, false
	}

	return rec.Principal.WithSession(token), true
}

func (a *Authenticator) fromAPIKey(r *http.Request) (*identity.Principal, bool) {
	if a.keys == nil || a.loader == nil || !a.keys.Present(r) {
		return nil, false
	}

	userID, err := a.keys.Verify(r.Context(), r)
	if err != nil {
		result := "invalid"
		if !errors.Is(err, identity.ErrInvalidCredential) && !errors.Is(err, identity.ErrNoCredential) {
			result = "error"
			logger.Error("api key verification failed", map[string]any{
				"path":  r.URL.Path,
				"error": err.Error(),
			})
		}
		metrics.APIKeyValidationsTotal.WithLabelValues(result).Inc()
		return nil, false
	}

	p, err := a.loader.Principal(r.Context(), userID)
	if err != nil || !p.Valid() {
		logger.Warn("api key user not loadable", map[string]any{
			"user_id": userID,
			"error":   errString(err),
		})
		metrics.APIKeyValidationsTotal.WithLabelValues("unknown_user").Inc()
		return nil, false
	}

	metrics.APIKeyValidationsTotal.WithLabelValues("valid").Inc()
	return p, true
}

func releaseHook(p *identity.Principal, m identity.Method) {
	logger.Debug("per-request login released", map[string]any{
		"user_id": p.ID,
		"method":  m.String(),
	})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
