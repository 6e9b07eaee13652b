package handler

import (
	"context"
	"net/http"
	"time"

	"crm-gateway/internal/middleware"
	"crm-gateway/internal/ratelimit"
	"crm-gateway/internal/session"

	"github.com/gin-gonic/gin"
)

// CredentialChecker verifies a username/password pair.
type CredentialChecker interface {
	Authenticate(ctx context.Context, username, password string) (userID string, err error)
}

type Handler struct {
	credentials  CredentialChecker
	principals   middleware.PrincipalLoader
	sessionStore session.Store
	limiter      *ratelimit.Limiter
	currentUser  http.Handler
	sessionTTL   time.Duration
	cookie       session.CookieOptions
}

type Options struct {
	Credentials  CredentialChecker
	Principals   middleware.PrincipalLoader
	SessionStore session.Store
	Limiter      *ratelimit.Limiter
	// CurrentUser serves the anonymous alias of the current-identity probe.
	CurrentUser  http.Handler
	SessionTTL   time.Duration
}

func NewHandler(opts Options) *Handler {
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Handler{
		credentials:  opts.Credentials,
		principals:   opts.Principals,
		sessionStore: opts.SessionStore,
		limiter:      opts.Limiter,
		currentUser:  opts.CurrentUser,
		sessionTTL:   ttl,
		cookie:       session.CookieOptions{SameSite: http.SameSiteLaxMode},
	}
}

// RegisterRoutes mounts everything except the login submission, which the
// access gate runs through LoginHandler.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST(middleware.LogoutPath, h.Logout)
	r.GET(middleware.IsLoginPath, h.IsLogin)

	if h.currentUser != nil {
		r.Any("/anonymous/user/current", gin.WrapH(h.currentUser))
	}

	if h.limiter != nil {
		r.GET("/api/ai/quota", h.Quota)
		r.POST("/api/ai/quota/reset", h.ResetQuota)
	}
}

// LoginHandler exposes Login as a plain http.Handler for the access gate.
func (h *Handler) LoginHandler() http.Handler {
	e := gin.New()
	e.POST(middleware.LoginPath, h.Login)
	return e
}
