package app

import (
	"context"
	"net/http"

	"crm-gateway/internal/config"
)

type App struct {
	httpServer *http.Server
	cleanup    func() error
}

// New connects the stores, builds the router and mounts any business
// routes supplied by routes.
func New(ctx context.Context, cfg config.Config, routes ...RouteRegistrar) (*App, error) {
	router, cleanup, err := setupHTTP(ctx, cfg, routes...)
	if err != nil {
		return nil, err
	}

	server := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: router,
	}

	return &App{
		httpServer: server,
		cleanup:    cleanup,
	}, nil
}

func (a *App) Run() error {
	err := a.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	if err := a.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	if a.cleanup != nil {
		return a.cleanup()
	}
	return nil
}
