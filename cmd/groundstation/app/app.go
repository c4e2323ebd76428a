package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/roman-kulish/cansat-telemetry/internal/groundstation"
	"github.com/roman-kulish/cansat-telemetry/internal/link"
	"github.com/roman-kulish/cansat-telemetry/internal/metrics"
	"github.com/roman-kulish/cansat-telemetry/internal/storage"
)

// Run receives frames and refreshes the display until ctx is cancelled or the
// radio input ends
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	input, err := openInput(&config.Radio, logger)
	if err != nil {
		return fmt.Errorf("failed to open radio input: %w", err)
	}
	defer input.Close()

	// closing the input unblocks a pending read
	stop := context.AfterFunc(ctx, func() { _ = input.Close() })
	defer stop()

	log, err := groundstation.OpenCSVLog(config.Log.Path)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer func() {
		if err := log.Close(); err != nil {
			logger.Error("error closing log", slog.String("error", err.Error()))
		}
	}()

	window, err := groundstation.NewWindow(config.Window.MaxRecords)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}

	plotter, err := groundstation.NewPlotter(config.Display.PlotWidth, config.Display.PlotHeight)
	if err != nil {
		return fmt.Errorf("failed to create plotter: %w", err)
	}

	reg := metrics.NewRegistry()
	m := groundstation.NewMetrics(reg)

	options := []func(i *groundstation.Ingestor){
		groundstation.WithLogger(logger),
		groundstation.WithChecksumVerification(config.VerifyChecksum),
		groundstation.WithIngestMetrics(m),
	}

	if config.Storage.Path != "" {
		store := storage.NewSqliteStore(config.Storage.Path)
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("error closing archive", slog.String("error", err.Error()))
			}
		}()

		sessionID, err := store.CreateSession(ctx, config.Radio.source(), config)
		if err != nil {
			return fmt.Errorf("failed to create archive session: %w", err)
		}
		logger.Info("archiving packets", slog.String("path", config.Storage.Path), slog.String("session", sessionID))

		options = append(options, groundstation.WithArchive(store, sessionID))
	}

	ingestor := groundstation.NewIngestor(window, log, options...)
	presenter := groundstation.NewPresenter(window, os.Stdout,
		groundstation.WithPlot(plotter, config.Display.PlotFile),
		groundstation.WithTableRows(config.Display.TableRows),
		groundstation.WithRefresh(config.Display.Refresh.Std()),
		groundstation.WithClearScreen(isatty.IsTerminal(os.Stdout.Fd())),
		groundstation.WithPresenterLogger(logger),
	)

	var wg sync.WaitGroup
	var ingestErr, presentErr error

	wg.Add(3)
	go func() {
		defer wg.Done()
		defer cancel()
		ingestErr = ingestor.Run(ctx, input)
	}()
	go func() {
		defer wg.Done()
		presentErr = presenter.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := metrics.Serve(ctx, config.Metrics.Addr, reg, logger); err != nil {
			logger.Error("metrics endpoint failed", slog.String("error", err.Error()))
		}
	}()

	wg.Wait()

	// last frame before exit
	if err := presenter.Render(); err != nil {
		logger.Warn("error refreshing display", slog.String("error", err.Error()))
	}

	return errors.Join(ingestErr, presentErr)
}

// Export writes every archived packet of sessionID as CSV to w
func Export(ctx context.Context, config *Config, sessionID string, w io.Writer, logger *slog.Logger) error {
	if config.Storage.Path == "" {
		return fmt.Errorf("storage.path is not set, nothing to export")
	}

	store := storage.NewSqliteStore(config.Storage.Path)
	defer store.Close()

	reader, err := store.ReadPackets(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to read session %s: %w", sessionID, err)
	}
	defer reader.Close()

	n, err := groundstation.Export(ctx, reader, w)
	if err != nil {
		return fmt.Errorf("failed to export session %s: %w", sessionID, err)
	}

	logger.Info("session exported",
		slog.String("session", sessionID),
		slog.String("source", reader.Session().Source),
		slog.Int("rows", n))
	return nil
}

// ListSessions writes one line per archived session to w, oldest first
func ListSessions(ctx context.Context, config *Config, w io.Writer) error {
	if config.Storage.Path == "" {
		return fmt.Errorf("storage.path is not set, no sessions to list")
	}

	store := storage.NewSqliteStore(config.Storage.Path)
	defer store.Close()

	sessions, err := store.Sessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, sess := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			sess.ID,
			sess.StartTime.Local().Format(time.DateTime),
			humanize.Time(sess.StartTime),
			sess.Source)
	}
	return tw.Flush()
}

func openInput(config *RadioConfig, logger *slog.Logger) (io.ReadCloser, error) {
	switch config.Source {
	case SourceRF95:
		radio, err := link.OpenRF95(link.RadioConfig{
			Device:       config.Port,
			FrequencyMHz: config.FrequencyMHz,
			Mode:         config.Mode,
		}, link.WithRadioLogger(logger.With(slog.String("component", "radio"))))
		if err != nil {
			return nil, err
		}
		return radio, nil

	default:
		logger.Info("receiving from serial port", slog.String("port", config.Port), slog.Int("baudRate", config.BaudRate))
		return link.OpenSerial(link.SerialConfig{Port: config.Port, BaudRate: config.BaudRate})
	}
}

func (c *RadioConfig) source() string {
	return fmt.Sprintf("%s:%s", c.Source, c.Port)
}
