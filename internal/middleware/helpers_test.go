package middleware

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"crm-gateway/internal/apikey"
	"crm-gateway/internal/identity"
	"crm-gateway/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// failingStore behaves like a Redis store whose server is unreachable.
type failingStore struct{}

func (failingStore) Get(context.Context, string) (*session.Record, error) {
	return nil, fmt.Errorf("%w: dial tcp 127.0.0.1:6379: i/o timeout", identity.ErrStoreUnavailable)
}

func (failingStore) Put(context.Context, string, session.Record) error {
	return identity.ErrStoreUnavailable
}

func (failingStore) Delete(context.Context, string) error {
	return identity.ErrStoreUnavailable
}

func seededStore(t *testing.T, token, userID string) *session.MemoryStore {
	t.Helper()
	s := session.NewMemoryStore()
	require.NoError(t, s.Put(context.Background(), token, session.Record{
		Principal: &identity.Principal{ID: userID, Name: "Test User"},
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}))
	return s
}

// stubKeys accepts any request carrying both API key headers.
type stubKeys struct {
	userID string
	err    error
}

func (s stubKeys) Present(r *http.Request) bool {
	return apikey.Present(r)
}

func (s stubKeys) Verify(context.Context, *http.Request) (string, error) {
	return s.userID, s.err
}

type stubLoader map[string]*identity.Principal

func (l stubLoader) Principal(_ context.Context, id string) (*identity.Principal, error) {
	p, ok := l[id]
	if !ok {
		return nil, fmt.Errorf("user %s not found", id)
	}
	cp := *p
	return &cp, nil
}

// captured records what the downstream handler observed.
type captured struct {
	called    bool
	ic        *identity.Context
	principal *identity.Principal
	method    identity.Method
}

func (c *captured) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.called = true
		c.ic = identity.FromContext(r.Context())
		if c.ic != nil {
			c.principal, _ = c.ic.Principal()
			c.method = c.ic.Method()
		}
		w.WriteHeader(http.StatusOK)
	})
}
