package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mvcmarket/marketplace/internal/app"
	"github.com/mvcmarket/marketplace/internal/pkg/config"
	"github.com/mvcmarket/marketplace/pkg/logger"
)

// @title        Marketplace API
// @version      1.0
// @description  Session management and catalog queries for the marketplace.
// @BasePath     /
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "marketplace",
	})

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialise application")
		return err
	}

	if err := application.Run(ctx); err != nil {
		log.Error().Err(err).Msg("application stopped with error")
		return err
	}
	log.Info().Msg("bye")
	return nil
}
