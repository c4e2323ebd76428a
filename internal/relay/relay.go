// Package relay frames Sampler record lines and forwards them over the radio.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"

	"github.com/roman-kulish/cansat-telemetry/internal/config"
	"github.com/roman-kulish/cansat-telemetry/internal/link"
)

// WithLogger sets the logger for the relay
func WithLogger(logger *slog.Logger) func(r *Relay) {
	return func(r *Relay) {
		r.logger = logger.With(slog.String("component", "relay"))
	}
}

// WithRelayMetrics reports sent, failed and dropped lines
func WithRelayMetrics(m *Metrics) func(r *Relay) {
	return func(r *Relay) {
		r.metrics = m
	}
}

// Relay forwards one line at a time: validate, checksum, frame, transmit. It
// owns the sequence counter and the checksum register.
type Relay struct {
	radio       link.Transceiver
	transmitter *Transmitter
	checksummer *Checksummer

	sequence uint32

	metrics *Metrics
	logger  *slog.Logger
}

func New(radio link.Transceiver, transmitter *Transmitter, checksummer *Checksummer, options ...func(r *Relay)) *Relay {
	r := Relay{
		radio:       radio,
		transmitter: transmitter,
		checksummer: checksummer,
		logger:      config.DiscardLogger(),
	}

	for _, option := range options {
		option(&r)
	}

	return &r
}

// Sequence returns the sequence number the next successful packet will carry
func (r *Relay) Sequence() uint32 {
	return r.sequence
}

// Run relays every line of in until the stream ends or ctx is cancelled
func (r *Relay) Run(ctx context.Context, in io.Reader) error {
	r.logger.Info("relaying", slog.String("checksum", string(r.checksummer.Mode())))

	scanner := link.NewLineScanner(in, link.MaxLineLength)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if scanner.TooLong() {
			r.metrics.dropped()
			r.logger.Warn("dropping line", slog.String("error", fmt.Sprintf("%s: longer than %d bytes", ErrInvalidLine, link.MaxLineLength)))
			continue
		}

		err := r.Handle(ctx, scanner.Text())
		switch {
		case err == nil:
		case errors.Is(err, ErrInvalidLine):
			r.logger.Warn("dropping line", slog.String("error", err.Error()), slog.String("line", scanner.Text()))
		case errors.Is(err, ErrTransmitFailed):
			r.logger.Error("packet lost", slog.String("error", err.Error()))
		case ctx.Err() != nil:
			return nil
		default:
			return err
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, fs.ErrClosed) && ctx.Err() == nil {
		return fmt.Errorf("error reading input: %w", err)
	}

	r.logger.Info("input stream ended", slog.Uint64("next_sequence", uint64(r.sequence)))
	return nil
}

// Handle relays a single line. Rejected lines return ErrInvalidLine and leave
// the sequence and checksum state untouched. A packet that cannot be sent
// returns ErrTransmitFailed and does not consume a sequence number.
func (r *Relay) Handle(ctx context.Context, line string) error {
	payload, err := ValidateLine(line)
	if err != nil {
		r.metrics.dropped()
		return err
	}

	packet := Packet{
		Sequence: r.sequence,
		RSSI:     clampRSSI(r.radio.LastRSSI()),
		Checksum: r.checksummer.Sum(payload),
		Payload:  payload,
	}

	if err = r.transmitter.Send(ctx, packet.Bytes()); err != nil {
		if errors.Is(err, ErrTransmitFailed) {
			r.metrics.failed()
		}
		return err
	}

	r.sequence = (r.sequence + 1) % SequenceModulus
	r.metrics.sent(r.sequence)

	r.logger.Debug("packet sent", slog.String("header", packet.Header()))
	return nil
}

func clampRSSI(rssi int) int16 {
	return int16(max(min(rssi, math.MaxInt16), math.MinInt16))
}
