package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/roman-kulish/cansat-telemetry/cmd/groundstation/app"
	"github.com/roman-kulish/cansat-telemetry/internal/config"
)

func main() {
	// stdout carries the table, so diagnostics go to stderr
	logger, logLevel := config.NewLogger(os.Stderr)

	var configPath, exportSession string
	var listSessions bool
	flag.StringVar(&configPath, "c", "", "Path to the configuration file")
	flag.StringVar(&exportSession, "export", "", "Write the archived packets of this session to stdout as CSV and exit")
	flag.BoolVar(&listSessions, "sessions", false, "List the archived sessions and exit")
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

	switch {
	case listSessions:
		err = app.ListSessions(ctx, cfg, os.Stdout)
	case exportSession != "":
		err = app.Export(ctx, cfg, exportSession, os.Stdout, logger)
	default:
		err = app.Run(ctx, cfg, logger)
	}

	if err != nil {
		logger.Error(err.Error())

		cancel()
		os.Exit(1)
	}
}
