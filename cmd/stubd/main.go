package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"rosterconsole/client/internal/config"
	"rosterconsole/client/internal/log"
	"rosterconsole/client/internal/stub"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	if cfg.Security.JWTAccessSecret == "" {
		cfg.Security.JWTAccessSecret = "stubd-dev-secret"
		logger.Warn().Msg("no jwt secret configured, using development default")
	}

	store := stub.NewStore()
	if err := stub.SeedDemo(store); err != nil {
		logger.Fatal().Err(err).Msg("seed demo roster failed")
	}

	server := stub.NewServer(cfg, logger, store)

	janitor := stub.NewJanitor(store, logger)
	if err := janitor.Start(); err != nil {
		logger.Error().Err(err).Msg("janitor start failed")
	}

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("stub backend failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	janitor.Stop()

	logger.Info().Msg("stub backend exited cleanly")
}
