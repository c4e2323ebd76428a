package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roman-kulish/cansat-telemetry/internal/link"
	"github.com/roman-kulish/cansat-telemetry/internal/metrics"
	"github.com/roman-kulish/cansat-telemetry/internal/relay"
)

// Run relays the sampler's serial output over the radio until the input ends or
// ctx is cancelled. A radio that cannot be initialised returns an error wrapping
// link.ErrRadioUnavailable.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	radio, err := link.OpenRF95(link.RadioConfig{
		Device:       config.Radio.Device,
		FrequencyMHz: config.Radio.FrequencyMHz,
		Mode:         config.Radio.Mode,
	}, link.WithRadioLogger(logger.With(slog.String("component", "radio"))), link.WithRSSIOnly())
	if err != nil {
		return err
	}
	defer radio.Close()

	in, err := link.OpenSerial(link.SerialConfig{Port: config.Input.Port, BaudRate: config.Input.BaudRate})
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer in.Close()

	// closing the port unblocks a pending read
	stop := context.AfterFunc(ctx, func() { _ = in.Close() })
	defer stop()

	checksummer, err := relay.NewChecksummer(config.Checksum.Mode)
	if err != nil {
		return fmt.Errorf("failed to create checksummer: %w", err)
	}

	reg := metrics.NewRegistry()
	m := relay.NewMetrics(reg)

	go func() {
		if err := metrics.Serve(ctx, config.Metrics.Addr, reg, logger); err != nil {
			logger.Error("metrics endpoint failed", slog.String("error", err.Error()))
		}
	}()

	transmitter := relay.NewTransmitter(radio, config.retryPolicy(), config.powerPolicy(),
		relay.WithTransmitterLogger(logger),
		relay.WithMetrics(m),
	)

	r := relay.New(radio, transmitter, checksummer,
		relay.WithLogger(logger),
		relay.WithRelayMetrics(m),
	)

	logger.Info("relay started",
		slog.String("input", config.Input.Port),
		slog.String("radio", config.Radio.Device),
		slog.Int("attempts", config.Retry.Attempts))

	return r.Run(ctx, in)
}
