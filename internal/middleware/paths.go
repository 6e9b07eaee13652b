package middleware

import "strings"

const (
	// CurrentUserPath is served by Bypass before any authentication runs.
	CurrentUserPath = "/api/user/current"

	LoginPath   = "/login"
	LogoutPath  = "/logout"
	IsLoginPath = "/is-login"

	// HeaderAuthStatus is set to "invalid" when no scheme identified the
	// caller of a protected path.
	HeaderAuthStatus = "X-Authentication-Status"
)

// PathPolicy decides which paths skip authentication. Authenticator, Gate
// and Bypass all read the same policy.
type PathPolicy struct {
	// Excluded paths match exactly or as a "/"-separated prefix.
	Excluded []string
	// Public paths are reachable anonymously but still pass through the
	// authenticator.
	Public []string
	// PublicPrefixes match any path that starts with them.
	PublicPrefixes []string
}

func DefaultPathPolicy() PathPolicy {
	return PathPolicy{
		Excluded:       []string{CurrentUserPath},
		Public:         []string{LoginPath, LogoutPath, IsLoginPath, "/health", "/metrics"},
		PublicPrefixes: []string{"/anonymous/"},
	}
}

// IsExcluded matches "/api/user/current" and "/api/user/current/x" but not
// "/api/user/currently".
func (p PathPolicy) IsExcluded(path string) bool {
	for _, e := range p.Excluded {
		if path == e || strings.HasPrefix(path, strings.TrimSuffix(e, "/")+"/") {
			return true
		}
	}
	return false
}

func (p PathPolicy) IsPublic(path string) bool {
	for _, pub := range p.Public {
		if path == pub {
			return true
		}
	}
	for _, prefix := range p.PublicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
