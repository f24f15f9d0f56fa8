package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/thaiduongngo/cool-asa/internal/config"
	"github.com/thaiduongngo/cool-asa/internal/domain/relay"
	"github.com/thaiduongngo/cool-asa/internal/infrastructure/janitor"
	"github.com/thaiduongngo/cool-asa/internal/infrastructure/logger"
	"github.com/thaiduongngo/cool-asa/internal/infrastructure/provider"
	"github.com/thaiduongngo/cool-asa/internal/infrastructure/redisstore"
	"github.com/thaiduongngo/cool-asa/internal/interfaces/httpserver"
	"github.com/thaiduongngo/cool-asa/internal/interfaces/httpserver/handlers/chathandler"
	"github.com/thaiduongngo/cool-asa/internal/interfaces/httpserver/handlers/confighandler"
	"github.com/thaiduongngo/cool-asa/internal/interfaces/httpserver/handlers/historyhandler"
	"github.com/thaiduongngo/cool-asa/internal/interfaces/httpserver/handlers/prompthandler"
	"github.com/thaiduongngo/cool-asa/internal/utils/httpclients"
)

type Application struct {
	server  *http.Server
	store   *redisstore.Store
	janitor *janitor.Janitor
}

func newApplication(cfg *config.Config) (*Application, error) {
	appLogger := logger.GetLogger()

	store, err := redisstore.New(cfg.RedisURL, cfg.MaxChatHistory, cfg.MaxRecentPrompts, cfg.StoreOpTimeout, appLogger)
	if err != nil {
		return nil, fmt.Errorf("create session store: %w", err)
	}

	genProvider, err := provider.New(cfg, httpclients.NewClient("generation"))
	if err != nil {
		return nil, fmt.Errorf("create generation provider: %w", err)
	}
	appLogger.Info().Str("provider", genProvider.Name()).Msg("generation provider configured")

	relayService := relay.NewService(genProvider, appLogger)

	engine := httpserver.NewEngine(
		appLogger,
		cfg.CORSAllowedOriginList(),
		chathandler.NewChatHandler(relayService, cfg.GenerateTimeout, appLogger),
		historyhandler.NewHistoryHandler(store, appLogger),
		prompthandler.NewPromptHandler(store, appLogger),
		confighandler.NewConfigHandler(cfg),
	)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:     engine,
		ReadTimeout: cfg.RequestTimeout,
		// No write timeout: the relay holds responses open for the full
		// duration of a generation stream.
		IdleTimeout: cfg.IdleTimeout,
	}

	sweeper := janitor.New(store, cfg.RetentionSweepSchedule, cfg.StoreOpTimeout, appLogger)

	return &Application{
		server:  server,
		store:   store,
		janitor: sweeper,
	}, nil
}

func (a *Application) Start(ctx context.Context) error {
	appLogger := logger.GetLogger()

	if err := a.janitor.Start(); err != nil {
		return fmt.Errorf("start retention janitor: %w", err)
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		appLogger.Info().Str("addr", a.server.Addr).Msg("chat service listening")
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		appLogger.Info().Msg("shutdown signal received")

		a.janitor.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}

		if err := a.store.Close(); err != nil {
			appLogger.Warn().Err(err).Msg("closing session store")
		}
		return ctx.Err()
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		return err
	}
	appLogger.Info().Msg("server exited")
	return nil
}
