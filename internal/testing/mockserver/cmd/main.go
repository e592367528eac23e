package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"

	"game-line/internal/config"
	"game-line/internal/testing/mockserver"
)

type settings struct {
	Port string `env:"MOCK_GAME_SERVER_PORT" envDefault:"3000"`
}

func main() {
	logger := config.NewLogger(zap.NewAtomicLevel()).Named("mock-game-server")
	defer logger.Sync()

	var s settings
	if err := env.Parse(&s); err != nil {
		logger.Fatal("could not parse env", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.Port),
		Handler:           mockserver.NewSeededGameServer(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("could not shut down mock game server", zap.Error(err))
		}
	}()

	logger.Info(
		"started mock game server",
		zap.String("port", s.Port),
		zap.String("room_code", mockserver.RoomCode),
		zap.String("room_session_id", mockserver.RoomSessionId),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("mock game server stopped", zap.Error(err))
	}
	logger.Info("closing mock game server")
}
