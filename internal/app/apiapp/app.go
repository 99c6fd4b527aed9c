package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgrelay/internal/config"
)

// App exposes read-only relay statistics over HTTP. The relay owns every
// backing store; this server only reads through Dependencies.
type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	httpRouter http.Handler
}

func New(cfg config.Config, log *zap.Logger, deps Dependencies) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	if deps.Logger == nil {
		deps.Logger = log
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)
	RegisterRoutes(r, deps)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("stats api started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
