package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/roman-kulish/cansat-telemetry/cmd/relay/app"
	"github.com/roman-kulish/cansat-telemetry/internal/config"
	"github.com/roman-kulish/cansat-telemetry/internal/link"
)

func main() {
	logger, logLevel := config.NewLogger(os.Stdout)

	var configPath string
	flag.StringVar(&configPath, "c", "", "Path to the configuration file")
	flag.Parse()

	configPath = config.Path(configPath)

	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to load configuration: %s", err.Error()), slog.String("path", configPath))
		os.Exit(1)
	}

	logLevel.Set(config.ParseLevel(cfg.Settings.LogLevel))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err = app.Run(ctx, cfg, logger)
	if errors.Is(err, link.ErrRadioUnavailable) {
		logger.Error(err.Error(), slog.Duration("restart_in", cfg.RestartDelay.Std()))

		select {
		case <-ctx.Done():
		case <-time.After(cfg.RestartDelay.Std()):
			cancel()
			err = restart()
		}
	}

	if err != nil {
		logger.Error(err.Error())

		cancel()
		os.Exit(1)
	}
}
