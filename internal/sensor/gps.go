package sensor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/adrianmo/go-nmea"
	"github.com/roman-kulish/cansat-telemetry/internal/config"
	"github.com/roman-kulish/cansat-telemetry/internal/link"
)

// maxParseErrors is how many consecutive garbage sentences make the current
// fix stale. The drain keeps reading regardless.
const maxParseErrors = 50

// WithGPSLogger sets the logger for the positioner
func WithGPSLogger(logger *slog.Logger) func(p *NMEAPositioner) {
	return func(p *NMEAPositioner) {
		p.logger = logger.With(slog.String("sensor", "gps"))
	}
}

// NMEAPositioner decodes RMC and GGA sentences into a position fix. A single
// goroutine drives Run (or Process); any number of readers may call Fix.
type NMEAPositioner struct {
	fix    atomic.Pointer[Fix]
	logger *slog.Logger
}

// NewNMEAPositioner creates a positioner with no fix
func NewNMEAPositioner(options ...func(p *NMEAPositioner)) *NMEAPositioner {
	p := &NMEAPositioner{logger: config.DiscardLogger()}
	for _, option := range options {
		option(p)
	}
	return p
}

// Fix returns the last published fix. The second value is false until the
// first sentence has been decoded.
func (p *NMEAPositioner) Fix() (Fix, bool) {
	f := p.fix.Load()
	if f == nil {
		return Fix{}, false
	}
	return *f, true
}

// Run drains r line by line until the stream ends or ctx is cancelled.
// Cancellation takes effect at the next line, so r should be closed by the caller
// to unblock a pending read. Once Run returns the fix is marked invalid, since
// nothing updates it any more.
func (p *NMEAPositioner) Run(ctx context.Context, r io.Reader) error {
	defer p.invalidate()

	scanner := link.NewLineScanner(r, link.MaxLineLength)

	var parseErrors int
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		if scanner.TooLong() {
			parseErrors = p.parseFailed(parseErrors, errors.New("sentence too long"))
			continue
		}

		if err := p.Process(scanner.Text()); err != nil {
			parseErrors = p.parseFailed(parseErrors, err)
			continue
		}
		parseErrors = 0
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// parseFailed counts one bad sentence and returns the new consecutive count.
// Reaching maxParseErrors invalidates the fix and starts counting again.
func (p *NMEAPositioner) parseFailed(count int, err error) int {
	p.logger.Debug("skipping NMEA sentence", slog.String("error", err.Error()))

	count++
	if count < maxParseErrors {
		return count
	}

	p.logger.Warn("no valid NMEA sentence in a while, position is stale", slog.Int("errors", count))
	p.invalidate()
	return 0
}

// invalidate keeps reporting a fix, but one without a usable position
func (p *NMEAPositioner) invalidate() {
	if p.fix.Load() == nil {
		return
	}
	p.fix.Store(&Fix{})
}

// Process decodes a single sentence and publishes the updated fix. Sentences
// other than RMC and GGA are accepted and ignored.
func (p *NMEAPositioner) Process(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	s, err := nmea.Parse(line)
	if err != nil {
		return err
	}

	var next Fix
	if cur := p.fix.Load(); cur != nil {
		next = *cur
	}

	switch m := s.(type) {
	case nmea.GGA:
		next.Satellites = int(m.NumSatellites)
		if m.FixQuality == nmea.Invalid {
			next.Valid = false
			break
		}
		next.Latitude, next.Longitude, next.Valid = m.Latitude, m.Longitude, true

	case nmea.RMC:
		if m.Validity != nmea.ValidRMC {
			next.Valid = false
			break
		}
		next.Latitude, next.Longitude, next.Valid = m.Latitude, m.Longitude, true

	default:
		return nil
	}

	p.fix.Store(&next)
	return nil
}
