package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/roman-kulish/cansat-telemetry/internal/link"
	"github.com/roman-kulish/cansat-telemetry/internal/sampler"
	"github.com/roman-kulish/cansat-telemetry/internal/sensor"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	out, err := openOutput(&config.Output, logger)
	if err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}
	defer out.Close()

	sensors, busOpen := openSensors(config, logger)
	defer func() {
		if err := sensors.Close(); err != nil {
			logger.Warn("error closing sensors", slog.String("error", err.Error()))
		}
		if busOpen {
			if err := sensor.CloseI2C(); err != nil {
				logger.Warn("error closing I2C bus", slog.String("error", err.Error()))
			}
		}
	}()

	var wg sync.WaitGroup
	if gps := openGPS(&config.GPS, logger); gps != nil {
		positioner := sensor.NewNMEAPositioner(sensor.WithGPSLogger(logger))
		sensors.Positioner = positioner

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := positioner.Run(ctx, gps); err != nil {
				logger.Warn("GPS drain stopped", slog.String("error", err.Error()))
			}
		}()

		// closing the port unblocks the drain goroutine
		defer wg.Wait()
		defer gps.Close()
	}

	logger.Info("calibrating, keep the payload level and still", slog.Int("samples", config.Calibration.Samples))
	calibration := sensor.Calibrate(ctx, sensors, sensor.CalibrationConfig{
		Samples:          config.Calibration.Samples,
		Interval:         config.Calibration.Interval.Std(),
		ReferenceVoltage: config.Power.ReferenceVoltage,
	}, logger)

	s := sampler.New(out, sensors,
		sampler.WithLogger(logger),
		sampler.WithCadence(config.Cadence.High.Std(), config.Cadence.Low.Std()),
		sampler.WithCalibration(calibration),
		sampler.WithSeaLevelPressure(config.Barometer.SeaLevelHPa),
	)

	return s.Run(ctx)
}

// openOutput opens the serial link to the relay, or stdout when no port is set
func openOutput(config *SerialConfig, logger *slog.Logger) (io.WriteCloser, error) {
	if config.Port == "" {
		logger.Info("writing records to stdout")
		return nopCloser{os.Stdout}, nil
	}

	port, err := link.OpenSerial(config.linkConfig())
	if err != nil {
		return nil, err
	}
	logger.Info("writing records to serial port", slog.String("port", config.Port), slog.Int("baudRate", config.BaudRate))
	return port, nil
}

// openGPS returns nil if the GPS is not configured or cannot be opened
func openGPS(config *SerialConfig, logger *slog.Logger) io.ReadCloser {
	if config.Port == "" {
		logger.Warn("sensor unavailable, readings will be NaN", slog.String("sensor", "gps"), slog.String("error", "no port configured"))
		return nil
	}

	port, ok := sensor.Open(logger, "gps", func() (io.ReadWriteCloser, error) {
		return link.OpenSerial(config.linkConfig())
	})
	if !ok {
		return nil
	}
	return port
}

// openSensors probes every I2C capability and reports whether the bus was opened
func openSensors(config *Config, logger *slog.Logger) (sensor.Set, bool) {
	var set sensor.Set

	if config.Clock.Source == ClockSystem {
		set.Clock = sensor.SystemClock{}
	}

	bus, err := sensor.OpenI2C(config.I2C.Bus)
	if err != nil {
		logger.Warn("I2C bus unavailable, all I2C sensors are absent", slog.String("error", err.Error()))
		return set, false
	}

	if imu, ok := sensor.Open(logger, "imu", func() (*sensor.MPU6050, error) {
		return sensor.NewMPU6050(bus, config.IMU.Address)
	}); ok {
		set.IMU = imu
	}

	if baro, ok := sensor.Open(logger, "barometer", func() (*sensor.BMP280, error) {
		return sensor.NewBMP280(&bus, config.Barometer.Address)
	}); ok {
		set.Barometer = baro
	}

	if power, ok := sensor.Open(logger, "power", func() (*sensor.ADS1115, error) {
		return sensor.NewADS1115(bus, config.Power.Address, config.Power.sensorConfig())
	}); ok {
		set.Power = power
	}

	if config.Clock.Source == ClockDS3231 {
		if clock, ok := sensor.Open(logger, "clock", func() (*sensor.DS3231, error) {
			return sensor.NewDS3231(bus, config.Clock.Address)
		}); ok {
			set.Clock = clock
		}
	}

	return set, true
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error {
	return nil
}
