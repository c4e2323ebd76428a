// Package sensor holds the payload's sensor capabilities. Each capability is probed
// once at startup and is either present or absent for the rest of the process.
package sensor

import (
	"errors"
	"io"
	"math"
	"time"
)

const (
	// StandardGravity in m/s², the expected Z reading of a level, stationary payload
	StandardGravity = 9.80665

	// SeaLevelPressure is the ISA sea-level reference in hPa
	SeaLevelPressure = 1013.25
)

var (
	// ErrUnavailable is returned when a sensor has no reading to offer
	ErrUnavailable = errors.New("sensor unavailable")

	// ErrUnexpectedDevice is returned when the probed device identifies as something else
	ErrUnexpectedDevice = errors.New("unexpected device")
)

// IMU reports acceleration on three axes in m/s²
type IMU interface {
	Acceleration() (x, y, z float64, err error)
}

// Barometer reports pressure in hPa and temperature in °C
type Barometer interface {
	Read() (pressure, temperature float64, err error)
}

// PowerMonitor reports battery voltage in V and load current in A
type PowerMonitor interface {
	Read() (voltage, current float64, err error)
}

// Clock reports the current wall-clock time
type Clock interface {
	Now() (time.Time, error)
}

// Positioner exposes the most recent position fix. It is read, never triggered.
type Positioner interface {
	Fix() (Fix, bool)
}

// Fix is a decoded position
type Fix struct {
	Latitude   float64 // Decimal degrees, south negative
	Longitude  float64 // Decimal degrees, west negative
	Satellites int     // Satellites in use
	Valid      bool    // Whether Latitude and Longitude are usable
}

// Set is the fixed set of named capabilities; a nil field is an absent sensor
type Set struct {
	IMU        IMU
	Barometer  Barometer
	Power      PowerMonitor
	Clock      Clock
	Positioner Positioner
}

// Close releases every present sensor that holds resources
func (s *Set) Close() error {
	var errs []error
	for _, c := range []any{s.IMU, s.Barometer, s.Power, s.Clock, s.Positioner} {
		if closer, ok := c.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Altitude converts pressure to altitude in meters using the international
// barometric formula against the given sea-level reference (both in hPa).
func Altitude(pressure, seaLevel float64) float64 {
	if seaLevel <= 0 {
		seaLevel = SeaLevelPressure
	}
	return 44330 * (1 - math.Pow(pressure/seaLevel, 1/5.255))
}

// SystemClock reads the host clock in UTC
type SystemClock struct{}

func (SystemClock) Now() (time.Time, error) {
	return time.Now().UTC(), nil
}
