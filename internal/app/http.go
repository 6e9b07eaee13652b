package app

import (
	"context"
	"net/http"

	"crm-gateway/internal/apikey"
	"crm-gateway/internal/config"
	"crm-gateway/internal/credentials"
	"crm-gateway/internal/directory"
	"crm-gateway/internal/handler"
	"crm-gateway/internal/logger"
	"crm-gateway/internal/middleware"
	"crm-gateway/internal/ratelimit"
	"crm-gateway/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouteRegistrar mounts business routes. api is the authenticated /api
// group; ai is /api/ai with the generation rate limit applied.
type RouteRegistrar func(api, ai *gin.RouterGroup)

// Deps are the collaborators the router is built from.
type Deps struct {
	Sessions    session.Store
	Credentials handler.CredentialChecker
	Principals  middleware.PrincipalLoader
	APIKeys     middleware.APIKeyVerifier
	Limiter     *ratelimit.Limiter
}

func setupHTTP(ctx context.Context, cfg config.Config, routes ...RouteRegistrar) (*gin.Engine, func() error, error) {
	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	limiter, err := ratelimit.New(ratelimit.Config{
		UserLimit:     cfg.RateLimitUserPerWindow,
		GlobalLimit:   cfg.RateLimitGlobalPerWindow,
		Window:        cfg.RateLimitWindow,
		MaxIdentities: cfg.RateLimitMaxIdentities,
	})
	if err != nil {
		_ = infra.Close()
		return nil, nil, err
	}

	keyStore := apikey.NewCachedStore(apikey.NewPostgresStore(infra.DB), 0, cfg.APIKeyCacheTTL)

	deps := Deps{
		Sessions:    session.NewRedisStore(infra.Redis.Client, cfg.SessionPrefix),
		Credentials: credentials.NewService(infra.DB),
		Principals:  directory.NewLoader(infra.DB),
		APIKeys:     apikey.NewVerifier(keyStore, cfg.APIKeyMaxAge),
		Limiter:     limiter,
	}

	return buildRouter(cfg, deps, routes...), infra.Close, nil
}

// buildRouter assembles the admission pipeline in its fixed order:
// recovery, current-identity bypass, cookie session, authenticator,
// access gate, CORS, then the routes.
func buildRouter(cfg config.Config, deps Deps, routes ...RouteRegistrar) *gin.Engine {
	paths := middleware.DefaultPathPolicy()

	bypass := middleware.NewBypass(deps.Sessions, paths)

	h := handler.NewHandler(handler.Options{
		Credentials:  deps.Credentials,
		Principals:   deps.Principals,
		SessionStore: deps.Sessions,
		Limiter:      deps.Limiter,
		CurrentUser:  bypass,
		SessionTTL:   cfg.SessionTTL,
	})

	router := gin.New()
	router.Use(gin.CustomRecovery(recovered))
	router.Use(middleware.Gin(bypass.Handler))
	router.Use(middleware.Gin(middleware.NewCookieSession(deps.Sessions).Handler))
	router.Use(middleware.Gin(middleware.NewAuthenticator(deps.Sessions, deps.APIKeys, deps.Principals, paths).Handler))
	router.Use(middleware.Gin(middleware.NewGate(paths, h.LoginHandler()).Handler))
	router.Use(middleware.Gin(middleware.CORS(cfg.AllowedOrigins)))

	// ----------------------------
	// Public Routes
	// ----------------------------

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h.RegisterRoutes(router)

	// ----------------------------
	// Protected API Routes
	// ----------------------------

	api := router.Group("/api")
	api.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	ai := api.Group("/ai")
	ai.Use(middleware.Gin(middleware.RateLimit(deps.Limiter)))

	for _, register := range routes {
		register(api, ai)
	}

	return router
}

func recovered(c *gin.Context, err any) {
	logger.Error("request panicked", map[string]any{
		"path":  c.Request.URL.Path,
		"panic": err,
	})
	c.AbortWithStatusJSON(http.StatusInternalServerError, middleware.ErrorBody{Message: "Internal Server Error"})
}
