package identity

import "strings"

// Principal is the authenticated identity attached to a request.
// It is created by the login use case and stored inside a session record;
// the pipeline only reads it.
type Principal struct {
	ID             string            `json:"id"`
	Name           string            `json:"name,omitempty"`
	Email          string            `json:"email,omitempty"`
	OrganizationID string            `json:"organizationId,omitempty"`
	SessionID      string            `json:"sessionId,omitempty"` // transient, filled per request
	Attributes     map[string]string `json:"attributes,omitempty"`
}

// Valid reports whether p carries a usable (non-blank) id.
func (p *Principal) Valid() bool {
	return p != nil && strings.TrimSpace(p.ID) != ""
}

// WithSession returns a copy of p bound to the given session token.
// Records read from the store are never mutated in place.
func (p *Principal) WithSession(token string) *Principal {
	cp := *p
	cp.SessionID = token
	if p.Attributes != nil {
		cp.Attributes = make(map[string]string, len(p.Attributes))
		for k, v := range p.Attributes {
			cp.Attributes[k] = v
		}
	}
	return &cp
}

// Method records how a principal was established for the current request.
type Method int

const (
	MethodNone Method = iota
	// MethodCookie is a durable browser login; it outlives the request.
	MethodCookie
	// MethodSessionToken and MethodAPIKey are per-request logins and are
	// released when the request finishes.
	MethodSessionToken
	MethodAPIKey
)

func (m Method) String() string {
	switch m {
	case MethodCookie:
		return "cookie"
	case MethodSessionToken:
		return "session_token"
	case MethodAPIKey:
		return "api_key"
	default:
		return "none"
	}
}

// Transient reports whether principals established by m must be released
// at the end of the request.
func (m Method) Transient() bool {
	return m == MethodSessionToken || m == MethodAPIKey
}

// Outcome is the per-request authentication decision.
type Outcome int

const (
	Unauthenticated Outcome = iota
	Authenticated
	// Invalid is Unauthenticated plus the client-facing status header.
	Invalid
)

func (o Outcome) String() string {
	switch o {
	case Authenticated:
		return "authenticated"
	case Invalid:
		return "invalid"
	default:
		return "unauthenticated"
	}
}
