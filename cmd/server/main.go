package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/thaiduongngo/cool-asa/internal/config"
	"github.com/thaiduongngo/cool-asa/internal/infrastructure/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	appLogger, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal().Err(err).Msg("configure logger")
	}

	app, err := CreateApplication(cfg)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("create application")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Start(ctx); err != nil && err != context.Canceled {
		appLogger.Fatal().Err(err).Msg("application exited with error")
	}
}
