package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"game-line/httpserver"
	"game-line/internal/config"
)

func main() {
	cfg := config.New()
	defer cfg.Logger.Sync()

	if err := config.LoadDotEnv(); err != nil {
		cfg.Logger.Fatal("could not load .env file", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfg.Load(ctx); err != nil {
		cfg.Logger.Fatal("could not load config", zap.Error(err))
	}

	if err := httpserver.New(cfg).Run(ctx); err != nil {
		cfg.Logger.Fatal("server stopped", zap.Error(err))
	}
}
