// Package apikey verifies signed API key credentials.
//
// A caller sends two headers: accessKey (the public key id) and signature,
// an HS256 JWT signed with the key's secret whose "ak" claim repeats the
// access key and whose "iat" claim bounds the replay window.
package apikey

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"crm-gateway/internal/identity"

	"github.com/golang-jwt/jwt/v5"
)

const (
	HeaderAccessKey = "accessKey"
	HeaderSignature = "signature"

	DefaultMaxAge = 30 * time.Minute
	leeway        = time.Minute
)

// Key is a stored API key.
type Key struct {
	AccessKey string
	SecretKey string
	UserID    string
	Enabled   bool
	ExpiresAt *time.Time
}

// Expired reports whether k has an expiry in the past.
func (k *Key) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && now.After(*k.ExpiresAt)
}

// ErrKeyNotFound is returned by a Store when no key matches.
var ErrKeyNotFound = errors.New("apikey: key not found")

// Store looks up keys by access key.
type Store interface {
	Lookup(ctx context.Context, accessKey string) (*Key, error)
}

type claims struct {
	AccessKey string `json:"ak"`
	jwt.RegisteredClaims
}

// Present reports whether r carries the API key scheme at all.
func Present(r *http.Request) bool {
	return strings.TrimSpace(r.Header.Get(HeaderAccessKey)) != "" &&
		strings.TrimSpace(r.Header.Get(HeaderSignature)) != ""
}

// Verifier validates API key requests against a Store.
type Verifier struct {
	store  Store
	maxAge time.Duration
	now    func() time.Time
}

func NewVerifier(store Store, maxAge time.Duration) *Verifier {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Verifier{store: store, maxAge: maxAge, now: time.Now}
}

// Present implements the authenticator's API key hook.
func (v *Verifier) Present(r *http.Request) bool {
	return Present(r)
}

// Verify returns the user id the request's key belongs to. Errors wrap
// identity.ErrNoCredential or identity.ErrInvalidCredential.
func (v *Verifier) Verify(ctx context.Context, r *http.Request) (string, error) {
	accessKey := strings.TrimSpace(r.Header.Get(HeaderAccessKey))
	signature := strings.TrimSpace(r.Header.Get(HeaderSignature))
	if accessKey == "" || signature == "" {
		return "", identity.ErrNoCredential
	}

	key, err := v.store.Lookup(ctx, accessKey)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return "", fmt.Errorf("apikey: unknown access key: %w", identity.ErrInvalidCredential)
		}
		return "", fmt.Errorf("apikey: lookup: %w", err)
	}

	now := v.now()
	if !key.Enabled || key.Expired(now) || strings.TrimSpace(key.UserID) == "" {
		return "", fmt.Errorf("apikey: key disabled or expired: %w", identity.ErrInvalidCredential)
	}

	var c claims
	_, err = jwt.ParseWithClaims(signature, &c, func(*jwt.Token) (any, error) {
		return []byte(key.SecretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(leeway),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return "", fmt.Errorf("apikey: bad signature: %w: %w", identity.ErrInvalidCredential, err)
	}

	if c.AccessKey != accessKey {
		return "", fmt.Errorf("apikey: signature for another key: %w", identity.ErrInvalidCredential)
	}
	if c.IssuedAt == nil || now.Sub(c.IssuedAt.Time) > v.maxAge {
		return "", fmt.Errorf("apikey: signature too old: %w", identity.ErrInvalidCredential)
	}

	return key.UserID, nil
}

// Sign produces a signature header value for accessKey. Clients and tests
// use it; the server only verifies.
func Sign(accessKey, secretKey string, issuedAt time.Time) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		AccessKey: accessKey,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(issuedAt),
		},
	})
	return tok.SignedString([]byte(secretKey))
}
