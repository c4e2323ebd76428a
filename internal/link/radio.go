package link

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dtn7/rf95modem-go/rf95"
	"github.com/roman-kulish/cansat-telemetry/internal/config"
)

// ErrRadioUnavailable is returned when the radio modem cannot be initialised
var ErrRadioUnavailable = errors.New("radio unavailable")

// Transceiver sends packets over the air and reports the signal strength of
// what it last heard
type Transceiver interface {
	// Transmit sends one packet at the requested output power
	Transmit(packet []byte, powerDBm int) error

	// LastRSSI returns the RSSI in dBm of the last received packet, 0 if none
	LastRSSI() int

	Close() error
}

// RadioConfig describes the rf95modem serial device and its PHY settings
type RadioConfig struct {
	Device       string
	FrequencyMHz float64 // 0 keeps the modem default
	Mode         int     // rf95modem modem configuration number
}

// RF95 adapts an rf95modem attached over serial. Received payloads are exposed
// as a byte stream; the RSSI of each is retained for LastRSSI.
type RF95 struct {
	modem *rf95.Modem

	rssi  atomic.Int32
	power atomic.Int32

	rx       *io.PipeReader
	rxWriter *io.PipeWriter
	rssiOnly bool
	closed   sync.Once

	logger *slog.Logger
}

// WithRadioLogger sets the logger for the radio
func WithRadioLogger(logger *slog.Logger) func(r *RF95) {
	return func(r *RF95) {
		r.logger = logger
	}
}

// WithRSSIOnly keeps the RSSI of received packets and discards their payloads.
// Use it when nothing reads the receive stream.
func WithRSSIOnly() func(r *RF95) {
	return func(r *RF95) {
		r.rssiOnly = true
	}
}

// OpenRF95 opens and configures the modem. Every failure wraps ErrRadioUnavailable.
func OpenRF95(cfg RadioConfig, options ...func(r *RF95)) (*RF95, error) {
	modem, err := rf95.OpenSerial(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ErrRadioUnavailable, cfg.Device, err)
	}

	if cfg.FrequencyMHz > 0 {
		if err = modem.Frequency(cfg.FrequencyMHz); err != nil {
			return nil, errors.Join(fmt.Errorf("%w: setting frequency: %w", ErrRadioUnavailable, err), modem.Close())
		}
	}
	if err = modem.Mode(rf95.ModemMode(cfg.Mode)); err != nil {
		return nil, errors.Join(fmt.Errorf("%w: setting mode %d: %w", ErrRadioUnavailable, cfg.Mode, err), modem.Close())
	}

	r := newRF95(modem, options...)
	r.logger.Info("radio ready",
		slog.String("device", cfg.Device),
		slog.Float64("frequencyMHz", cfg.FrequencyMHz),
		slog.Int("mode", cfg.Mode))

	return r, nil
}

func newRF95(modem *rf95.Modem, options ...func(r *RF95)) *RF95 {
	pr, pw := io.Pipe()
	r := RF95{
		modem:    modem,
		rx:       pr,
		rxWriter: pw,
		logger:   config.DiscardLogger(),
	}

	for _, option := range options {
		option(&r)
	}

	if modem != nil {
		modem.RegisterRxHandler(r.handleRx)
	}
	return &r
}

func (r *RF95) handleRx(msg rf95.RxMessage) {
	r.rssi.Store(int32(msg.Rssi))
	r.logger.Debug("packet received", slog.Int("rssi", msg.Rssi), slog.Int("snr", msg.Snr), slog.Int("bytes", len(msg.Payload)))

	if r.rssiOnly {
		return
	}

	payload := msg.Payload
	if len(payload) == 0 || payload[len(payload)-1] != '\n' {
		payload = append(append(make([]byte, 0, len(payload)+1), payload...), '\n')
	}
	if _, err := r.rxWriter.Write(payload); err != nil && !errors.Is(err, io.ErrClosedPipe) {
		r.logger.Warn("dropping received packet", slog.String("error", err.Error()))
	}
}

// Transmit records the requested power and writes the packet to the modem. The
// rf95modem firmware has no runtime power command, so the value is only reported.
func (r *RF95) Transmit(packet []byte, powerDBm int) error {
	r.power.Store(int32(powerDBm))
	if _, err := r.modem.Write(packet); err != nil {
		return fmt.Errorf("transmitting %d bytes: %w", len(packet), err)
	}
	return nil
}

func (r *RF95) LastRSSI() int {
	return int(r.rssi.Load())
}

// Power returns the output power requested by the last Transmit
func (r *RF95) Power() int {
	return int(r.power.Load())
}

// Read yields received payloads, newline-terminated, in arrival order
func (r *RF95) Read(p []byte) (int, error) {
	return r.rx.Read(p)
}

func (r *RF95) Close() error {
	var err error
	r.closed.Do(func() {
		_ = r.rxWriter.Close()
		if r.modem != nil {
			err = r.modem.Close()
		}
	})
	return err
}
