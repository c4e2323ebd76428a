package sensor

import (
	"context"
	"log/slog"
	"time"
)

// CalibrationConfig controls the startup sample-and-average loops
type CalibrationConfig struct {
	Samples          int           // Samples per loop
	Interval         time.Duration // Pause between samples
	ReferenceVoltage float64       // Known battery voltage at startup; 0 skips voltage scaling
}

// Calibration holds the offsets derived at startup. The zero value applies no
// correction.
type Calibration struct {
	IMUOffset     [3]float64 // Subtracted from raw X, Y, Z
	CurrentOffset float64    // Subtracted from raw current
	VoltageScale  float64    // Multiplies raw voltage; 0 means 1
}

// AccelerationCorrected applies the IMU offsets
func (c Calibration) AccelerationCorrected(x, y, z float64) (float64, float64, float64) {
	return x - c.IMUOffset[0], y - c.IMUOffset[1], z - c.IMUOffset[2]
}

// PowerCorrected applies the voltage scale and current offset
func (c Calibration) PowerCorrected(voltage, current float64) (float64, float64) {
	scale := c.VoltageScale
	if scale == 0 {
		scale = 1
	}
	return voltage * scale, current - c.CurrentOffset
}

// Calibrate runs the fixed-count averaging loops for every present sensor.
// The payload is expected to be level and stationary with no load. Samples
// that fail to read are left out of the average; a loop with no good samples
// leaves its offsets at zero.
func Calibrate(ctx context.Context, set Set, cfg CalibrationConfig, logger *slog.Logger) Calibration {
	cal := Calibration{}
	if cfg.Samples <= 0 {
		return cal
	}

	if set.IMU != nil {
		var sum [3]float64
		n := sample(ctx, cfg, func() bool {
			x, y, z, err := set.IMU.Acceleration()
			if err != nil {
				return false
			}
			sum[0], sum[1], sum[2] = sum[0]+x, sum[1]+y, sum[2]+z
			return true
		})
		if n > 0 {
			cal.IMUOffset = [3]float64{sum[0] / n, sum[1] / n, sum[2]/n - StandardGravity}
		}
		logger.Info("IMU calibrated",
			slog.Int("samples", int(n)),
			slog.Float64("offset_x", cal.IMUOffset[0]),
			slog.Float64("offset_y", cal.IMUOffset[1]),
			slog.Float64("offset_z", cal.IMUOffset[2]))
	}

	if set.Power != nil {
		var sum float64
		n := sample(ctx, cfg, func() bool {
			_, c, err := set.Power.Read()
			if err != nil {
				return false
			}
			sum += c
			return true
		})
		if n > 0 {
			cal.CurrentOffset = sum / n
		}
		logger.Info("current sensor calibrated", slog.Int("samples", int(n)), slog.Float64("offset", cal.CurrentOffset))
	}

	if set.Power != nil && cfg.ReferenceVoltage != 0 {
		var sum float64
		n := sample(ctx, cfg, func() bool {
			v, _, err := set.Power.Read()
			if err != nil {
				return false
			}
			sum += v
			return true
		})
		if mean := sum / n; n > 0 && mean != 0 {
			cal.VoltageScale = cfg.ReferenceVoltage / mean
		}
		logger.Info("voltage calibrated", slog.Int("samples", int(n)), slog.Float64("scale", cal.VoltageScale))
	}

	return cal
}

// sample calls read cfg.Samples times and returns the number of good reads
func sample(ctx context.Context, cfg CalibrationConfig, read func() bool) float64 {
	var n float64
	for i := 0; i < cfg.Samples; i++ {
		if read() {
			n++
		}
		if cfg.Interval > 0 && i < cfg.Samples-1 {
			select {
			case <-ctx.Done():
				return n
			case <-time.After(cfg.Interval):
			}
		}
	}
	return n
}
