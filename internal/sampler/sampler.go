// Package sampler runs the payload's two sampling cadences and writes the
// resulting records to an output stream.
package sampler

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/roman-kulish/cansat-telemetry/internal/config"
	"github.com/roman-kulish/cansat-telemetry/internal/sensor"
	"github.com/roman-kulish/cansat-telemetry/internal/telemetry"
)

const (
	DefaultHighInterval = 100 * time.Millisecond
	DefaultLowInterval  = time.Second
)

// WithLogger sets the logger for the sampler
func WithLogger(logger *slog.Logger) func(s *Sampler) {
	return func(s *Sampler) {
		s.logger = logger.With(slog.String("component", "sampler"))
	}
}

// WithCadence overrides the high and low priority intervals
func WithCadence(high, low time.Duration) func(s *Sampler) {
	return func(s *Sampler) {
		if high > 0 {
			s.highInterval = high
		}
		if low > 0 {
			s.lowInterval = low
		}
	}
}

// WithCalibration applies startup offsets to every reading
func WithCalibration(cal sensor.Calibration) func(s *Sampler) {
	return func(s *Sampler) {
		s.calibration = cal
	}
}

// WithSeaLevelPressure sets the altitude reference in hPa
func WithSeaLevelPressure(hPa float64) func(s *Sampler) {
	return func(s *Sampler) {
		if hPa > 0 {
			s.seaLevel = hPa
		}
	}
}

// Sampler builds a HighPriorityRecord on the fast cadence and a LowPriorityRecord
// on the slow cadence from whichever sensors are present.
type Sampler struct {
	sensors     sensor.Set
	calibration sensor.Calibration
	out         io.Writer

	highInterval time.Duration
	lowInterval  time.Duration
	seaLevel     float64

	newTicker func(d time.Duration) (<-chan time.Time, func())
	logger    *slog.Logger
}

// New creates a Sampler writing to out
func New(out io.Writer, sensors sensor.Set, options ...func(s *Sampler)) *Sampler {
	s := Sampler{
		sensors:      sensors,
		out:          out,
		highInterval: DefaultHighInterval,
		lowInterval:  DefaultLowInterval,
		seaLevel:     sensor.SeaLevelPressure,
		newTicker:    systemTicker,
		logger:       config.DiscardLogger(),
	}

	for _, option := range options {
		option(&s)
	}

	return &s
}

func systemTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Run services both cadences from a single goroutine until ctx is cancelled.
// A slow tick on one cadence delays the other; tickers drop missed ticks
// rather than queue them.
func (s *Sampler) Run(ctx context.Context) error {
	high, stopHigh := s.newTicker(s.highInterval)
	defer stopHigh()

	low, stopLow := s.newTicker(s.lowInterval)
	defer stopLow()

	s.logger.Info("sampling started",
		slog.Duration("high", s.highInterval),
		slog.Duration("low", s.lowInterval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sampling stopped")
			return nil

		case <-high:
			s.emit(s.HighPriority())

		case <-low:
			s.emit(s.LowPriority())
		}
	}
}

func (s *Sampler) emit(r telemetry.Record) {
	if err := telemetry.Encode(s.out, r); err != nil {
		s.logger.Warn("error writing record", slog.String("error", err.Error()))
	}
}

// HighPriority samples motion, atmosphere and position
func (s *Sampler) HighPriority() *telemetry.HighPriorityRecord {
	r := telemetry.HighPriorityRecord{
		Timestamp:   s.timestamp(),
		IMU:         telemetry.UnavailableVector,
		Pressure:    telemetry.Unavailable,
		Altitude:    telemetry.Unavailable,
		Temperature: telemetry.Unavailable,
		Latitude:    telemetry.Unavailable,
		Longitude:   telemetry.Unavailable,
	}

	if s.sensors.IMU != nil {
		if x, y, z, err := s.sensors.IMU.Acceleration(); err != nil {
			s.readError("imu", err)
		} else {
			x, y, z = s.calibration.AccelerationCorrected(x, y, z)
			r.IMU = telemetry.Vector{X: telemetry.Value(x), Y: telemetry.Value(y), Z: telemetry.Value(z)}
		}
	}

	if s.sensors.Barometer != nil {
		if p, temp, err := s.sensors.Barometer.Read(); err != nil {
			s.readError("barometer", err)
		} else {
			r.Pressure = telemetry.Value(p)
			r.Altitude = telemetry.Value(sensor.Altitude(p, s.seaLevel))
			r.Temperature = telemetry.Value(temp)
		}
	}

	if s.sensors.Positioner != nil {
		if fix, ok := s.sensors.Positioner.Fix(); ok {
			r.Satellites = fix.Satellites
			if fix.Valid {
				r.Latitude = telemetry.Value(fix.Latitude)
				r.Longitude = telemetry.Value(fix.Longitude)
			}
		}
	}

	return &r
}

// LowPriority samples battery voltage and load current
func (s *Sampler) LowPriority() *telemetry.LowPriorityRecord {
	r := telemetry.LowPriorityRecord{
		Timestamp: s.timestamp(),
		Voltage:   telemetry.Unavailable,
		Current:   telemetry.Unavailable,
	}

	if s.sensors.Power != nil {
		if v, c, err := s.sensors.Power.Read(); err != nil {
			s.readError("power", err)
		} else {
			v, c = s.calibration.PowerCorrected(v, c)
			r.Voltage = telemetry.Value(v)
			r.Current = telemetry.Value(c)
		}
	}

	return &r
}

func (s *Sampler) timestamp() telemetry.Timestamp {
	if s.sensors.Clock == nil {
		return telemetry.Timestamp{}
	}
	now, err := s.sensors.Clock.Now()
	if err != nil {
		s.readError("clock", err)
		return telemetry.Timestamp{}
	}
	return telemetry.NewTimestamp(now)
}

func (s *Sampler) readError(name string, err error) {
	s.logger.Debug("sensor read failed", slog.String("sensor", name), slog.String("error", err.Error()))
}
