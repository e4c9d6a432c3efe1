package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/faru128/social-deduction-game/internal/app"
	"github.com/faru128/social-deduction-game/internal/config"
	"github.com/faru128/social-deduction-game/internal/content"
	httpTransport "github.com/faru128/social-deduction-game/internal/transport/http"
)

func main() {
	cfg := config.Load()

	var logger *slog.Logger
	logOpts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	if cfg.Logging.Format == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, logOpts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, logOpts))
	}

	slog.SetDefault(logger)

	logger.Info("starting impostor game server",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	words := content.DefaultSource()

	store := app.NewStore(words, cfg.Game.LobbyCodeLength, cfg.Game.StaleLobbyTimeout, logger)
	defer store.Close()

	registry := app.NewRegistry(store, logger)

	server := httpTransport.NewServer(cfg, store, registry, logger)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
