package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/satriahrh/model-compare/adapters/hasher"
	httpadapter "github.com/satriahrh/model-compare/adapters/http"
	"github.com/satriahrh/model-compare/adapters/llm"
	"github.com/satriahrh/model-compare/adapters/message_broker"
	"github.com/satriahrh/model-compare/adapters/render"
	"github.com/satriahrh/model-compare/adapters/store"
	"github.com/satriahrh/model-compare/adapters/websocket"
	"github.com/satriahrh/model-compare/config"
	"github.com/satriahrh/model-compare/domain"
	"github.com/satriahrh/model-compare/usecase"
	"github.com/satriahrh/model-compare/utils/log"
)

func main() {
	if err := run(); err != nil {
		log.With().Error("shutting down due to error", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
	log.With().Info("shutdown complete")
	_ = log.Sync()
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// DEBUG may come from .env, which is read after the logger is built.
	if cfg.Debug {
		if l, err := zap.NewDevelopment(); err == nil {
			log.SetLogger(l)
		}
	}
	models, err := cfg.ModelLineup()
	if err != nil {
		return fmt.Errorf("resolving models: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clients := llm.Shared(cfg)
	broker := message_broker.NewChannelMessageBroker()
	svc := usecase.NewCompareService(clients, models, store.NewMemoryStore(), broker)

	renderer, err := render.NewRenderer()
	if err != nil {
		return err
	}

	server := websocket.NewServer(ctx, svc, broker)
	go func() {
		if err := server.Run(); err != nil {
			log.WithCtx(ctx).Error("websocket relay stopped", zap.Error(err))
		}
	}()

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		RequestIDHandler: func(c echo.Context, id string) {
			c.SetRequest(c.Request().WithContext(log.WithRequestID(c.Request().Context(), id)))
		},
	}))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))

	httpadapter.NewCompareHandler(svc, renderer, hasher.NewETag()).Register(e)
	e.GET("/ws", server.Handler)

	for _, m := range models {
		if !clients.Supports(m.Provider) {
			return fmt.Errorf("model %s: %w", m.ID, domain.ErrUnknownProvider)
		}
		log.WithCtx(ctx).Info("model configured", zap.String("model", m.ID), zap.String("provider", string(m.Provider)))
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithCtx(ctx).Info("starting server", zap.String("addr", cfg.HTTPAddr))
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.WithCtx(ctx).Info("shutting down due to signal")
	}

	return shutdown(e, broker)
}

func shutdown(e *echo.Echo, broker *message_broker.ChannelMessageBroker) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var result *multierror.Error
	if err := e.Shutdown(ctx); err != nil {
		result = multierror.Append(result, fmt.Errorf("shutting down http server: %w", err))
	}
	if err := broker.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("closing message broker: %w", err))
	}
	return result.ErrorOrNil()
}
