package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"

	"crm-gateway/internal/identity"
	"crm-gateway/internal/logger"
	"crm-gateway/internal/metrics"
	"crm-gateway/internal/ratelimit"
)

const headerRateLimitRemaining = "X-RateLimit-Remaining"

// RateLimit admits requests through l, keyed by the authenticated
// principal (or the client address for anonymous callers). Rejections are
// answered with 429.
func RateLimit(l *ratelimit.Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := LimitKey(r)

			scope, ok := l.AllowScope(key)
			if !ok {
				logger.Warn("request rate limited", map[string]any{
					"key":   key,
					"path":  r.URL.Path,
					"error": rateLimitError(scope).Error(),
				})
				metrics.RateLimitRejectionsTotal.WithLabelValues(string(scope)).Inc()
				w.Header().Set(headerRateLimitRemaining, "0")
				WriteError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}

			w.Header().Set(headerRateLimitRemaining, strconv.Itoa(l.RemainingQuota(key)))
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitError classifies a rejection as forbidden: the caller is
// identified but may not proceed within the current window.
func rateLimitError(scope ratelimit.Scope) error {
	return fmt.Errorf("%w: %s rate limit exceeded", identity.ErrForbidden, scope)
}

// LimitKey is the identity the rate limiter counts r against.
func LimitKey(r *http.Request) string {
	if p, ok := identity.PrincipalFromContext(r.Context()); ok && p.Valid() {
		return "user:" + p.ID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "addr:" + host
}
