package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"crm-gateway/internal/credentials"
	"crm-gateway/internal/identity"
	"crm-gateway/internal/middleware"
	"crm-gateway/internal/ratelimit"
	"crm-gateway/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubCredentials map[string]string // username -> password

func (s stubCredentials) Authenticate(_ context.Context, username, password string) (string, error) {
	if pw, ok := s[username]; ok && pw == password {
		return "u-" + username, nil
	}
	return "", credentials.ErrInvalidCredentials
}

type stubPrincipals struct{}

func (stubPrincipals) Principal(_ context.Context, id string) (*identity.Principal, error) {
	return &identity.Principal{ID: id, Name: strings.TrimPrefix(id, "u-")}, nil
}

type failingStore struct{ session.Store }

func (failingStore) Put(context.Context, string, session.Record) error {
	return identity.ErrStoreUnavailable
}

func (failingStore) Delete(context.Context, string) error {
	return identity.ErrStoreUnavailable
}

func newTestHandler(t *testing.T, store session.Store) *Handler {
	t.Helper()
	l, err := ratelimit.New(ratelimit.Config{UserLimit: 3, GlobalLimit: 10, Window: time.Minute})
	require.NoError(t, err)
	return NewHandler(Options{
		Credentials:  stubCredentials{"ada": "correct-horse"},
		Principals:   stubPrincipals{},
		SessionStore: store,
		Limiter:      l,
		CurrentUser:  middleware.NewBypass(store, middleware.DefaultPathPolicy()),
		SessionTTL:   time.Hour,
	})
}

func newRouter(h *Handler) *gin.Engine {
	r := gin.New()
	h.RegisterRoutes(r)
	return r
}

func newLoginRequest(body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, middleware.LoginPath, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func TestLoginIssuesSession(t *testing.T) {
	store := session.NewMemoryStore()
	h := newTestHandler(t, store)

	w := httptest.NewRecorder()
	h.LoginHandler().ServeHTTP(w, newLoginRequest(`{"username":"ada","password":"correct-horse"}`))

	require.Equal(t, http.StatusOK, w.Code)

	token := w.Header().Get(session.HeaderToken)
	require.NotEmpty(t, token)

	var body identity.Principal
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "u-ada", body.ID)
	assert.Equal(t, token, body.SessionID)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, session.CookieName, cookies[0].Name)
	assert.Equal(t, token, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)

	rec, err := store.Get(context.Background(), token)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "u-ada", rec.Principal.ID)
	assert.Empty(t, rec.Principal.SessionID, "stored principal must not carry the token")
	assert.WithinDuration(t, time.Now().Add(time.Hour), rec.ExpiresAt, 5*time.Second)
}

func TestLoginFailures(t *testing.T) {
	tests := []struct {
		name  string
		store session.Store
		body  string
		code  int
	}{
		{"malformed body", session.NewMemoryStore(), `{"username":`, http.StatusBadRequest},
		{"wrong password", session.NewMemoryStore(), `{"username":"ada","password":"nope"}`, http.StatusUnauthorized},
		{"unknown user", session.NewMemoryStore(), `{"username":"bob","password":"correct-horse"}`, http.StatusUnauthorized},
		{"store down", failingStore{}, `{"username":"ada","password":"correct-horse"}`, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			newTestHandler(t, tt.store).LoginHandler().ServeHTTP(w, newLoginRequest(tt.body))

			assert.Equal(t, tt.code, w.Code)
			assert.Empty(t, w.Header().Get(session.HeaderToken))
			assert.Contains(t, w.Body.String(), `"success":false`)
		})
	}
}

func TestLogoutDeletesSession(t *testing.T) {
	store := session.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "tok-1", session.Record{
		Principal: &identity.Principal{ID: "u-1"},
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	r := httptest.NewRequest(http.MethodPost, middleware.LogoutPath, nil)
	r.Header.Set("Authorization", "Bearer tok-1")
	w := httptest.NewRecorder()
	newRouter(newTestHandler(t, store)).ServeHTTP(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
	_, present := w.Header()[http.CanonicalHeaderKey(session.HeaderToken)]
	assert.True(t, present)

	rec, err := store.Get(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Nil(t, rec)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestLogoutStoreDownStillClearsClient(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, middleware.LogoutPath, nil)
	r.AddCookie(&http.Cookie{Name: session.CookieName, Value: "tok-1"})
	w := httptest.NewRecorder()
	newRouter(newTestHandler(t, failingStore{})).ServeHTTP(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
	require.Len(t, w.Result().Cookies(), 1)
}

func withPrincipal(r *http.Request, id string) *http.Request {
	ctx, ic := identity.Attach(r.Context())
	ic.Establish(&identity.Principal{ID: id}, identity.MethodSessionToken)
	return r.WithContext(ctx)
}

func TestIsLogin(t *testing.T) {
	router := newRouter(newTestHandler(t, session.NewMemoryStore()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, middleware.IsLoginPath, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", strings.TrimSpace(w.Body.String()))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, withPrincipal(httptest.NewRequest(http.MethodGet, middleware.IsLoginPath, nil), "u-9"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"u-9"`)
}

func TestQuotaAndReset(t *testing.T) {
	h := newTestHandler(t, session.NewMemoryStore())
	router := newRouter(h)

	require.True(t, h.limiter.Allow("user:u-9"))
	require.True(t, h.limiter.Allow("user:u-9"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, withPrincipal(httptest.NewRequest(http.MethodGet, "/api/ai/quota", nil), "u-9"))
	require.Equal(t, http.StatusOK, w.Code)

	var q quotaResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &q))
	assert.Equal(t, 1, q.Remaining)
	assert.Equal(t, 3, q.Limit)
	assert.Equal(t, 8, q.GlobalRemaining)
	assert.Equal(t, int64(60000), q.WindowMillis)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, withPrincipal(httptest.NewRequest(http.MethodPost, "/api/ai/quota/reset", nil), "u-9"))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 3, h.limiter.RemainingQuota("user:u-9"))
}

func TestAnonymousCurrentUserAlias(t *testing.T) {
	store := session.NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "tok-1", session.Record{
		Principal: &identity.Principal{ID: "u-1"},
		ExpiresAt: time.Now().Add(time.Hour),
	}))
	router := newRouter(newTestHandler(t, store))

	r := httptest.NewRequest(http.MethodGet, "/anonymous/user/current", nil)
	r.Header.Set("Authorization", "Bearer tok-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sessionId":"tok-1"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/anonymous/user/current", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

