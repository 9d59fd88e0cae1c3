package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expohall/internal/api"
	"expohall/internal/config"
	"expohall/internal/logger"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	server, err := api.New(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize server", "error", err)
	}

	go func() {
		if err := server.Run(); err != nil {
			logger.Fatal("Server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Get().Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Get().Error("Forced shutdown", "error", err)
	}

	logger.Get().Info("Server stopped")
}
