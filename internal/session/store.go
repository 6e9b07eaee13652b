package session

import (
	"context"
	"time"

	"crm-gateway/internal/identity"
)

// Record is the value held by the session store under a session token.
// The pipeline reads only the Principal; the record lifecycle belongs to
// the login and logout use cases.
type Record struct {
	Principal *identity.Principal `json:"user,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
	ExpiresAt time.Time           `json:"expiresAt"` // store-managed expiry
}

func (r Record) expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

// Store defines how session records are stored and retrieved.
// Get returns (nil, nil) when no record exists for the token; any other
// error means the store could not be consulted.
type Store interface {
	Get(ctx context.Context, token string) (*Record, error)
	Put(ctx context.Context, token string, rec Record) error
	Delete(ctx context.Context, token string) error
}
