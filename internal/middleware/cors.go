package middleware

import (
	"net/http"

	"crm-gateway/internal/apikey"
	"crm-gateway/internal/session"

	"github.com/rs/cors"
)

// CORS handles cross-origin requests for everything behind the gate.
// A "*" entry admits any origin; the origin is then echoed back so
// credentialed requests keep working.
func CORS(allowedOrigins []string) Middleware {
	opts := cors.Options{
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Content-Type", "Authorization", session.HeaderToken,
			apikey.HeaderAccessKey, apikey.HeaderSignature,
		},
		ExposedHeaders:   []string{session.HeaderToken, HeaderAuthStatus},
		AllowCredentials: true,
		MaxAge:           3600,
	}

	anyOrigin := false
	for _, o := range allowedOrigins {
		if o == "*" {
			anyOrigin = true
		}
	}
	if anyOrigin {
		opts.AllowOriginFunc = func(string) bool { return true }
	} else {
		opts.AllowedOrigins = allowedOrigins
	}

	return cors.New(opts).Handler
}
