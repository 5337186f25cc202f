package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/th3rrry/minees/internal/config"
	"github.com/th3rrry/minees/internal/di"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "minees: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := config.DefaultPath
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := di.InitializeApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer cleanup()

	app.Log.Info().
		Str("config", cfgPath).
		Str("collector", cfg.Collector.Mode).
		Int("port", cfg.HTTP.Port).
		Msg("minees starting")

	if err := app.Run(ctx); err != nil {
		return err
	}
	app.Log.Info().Msg("minees stopped")
	return nil
}
