package app

import (
	"fmt"
	"time"

	"github.com/roman-kulish/cansat-telemetry/internal/config"
	"github.com/roman-kulish/cansat-telemetry/internal/link"
	"github.com/roman-kulish/cansat-telemetry/internal/sampler"
	"github.com/roman-kulish/cansat-telemetry/internal/sensor"
)

const (
	ClockDS3231 ClockSource = "ds3231"
	ClockSystem ClockSource = "system"
	ClockNone   ClockSource = "none"
)

const (
	defaultI2CBus           = 1
	defaultIMUAddress       = 0x69 // AD0 high, 0x68 belongs to the RTC
	defaultBarometerAddress = 0x76
	defaultPowerAddress     = 0x48
	defaultClockAddress     = 0x68
	defaultGPSBaudRate      = 9600

	defaultCalibrationSamples  = 50
	defaultCalibrationInterval = 10 * time.Millisecond
)

type ClockSource string

// Config represents the sampler configuration
type Config struct {
	Settings    config.Settings   `yaml:"settings"`
	Output      SerialConfig      `yaml:"output"`
	I2C         I2CConfig         `yaml:"i2c"`
	IMU         DeviceConfig      `yaml:"imu"`
	Barometer   BarometerConfig   `yaml:"barometer"`
	Power       PowerConfig       `yaml:"power"`
	Clock       ClockConfig       `yaml:"clock"`
	GPS         SerialConfig      `yaml:"gps"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Cadence     CadenceConfig     `yaml:"cadence"`
}

// SerialConfig represents a serial port. An empty port disables it.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baudRate"`
}

type I2CConfig struct {
	Bus uint8 `yaml:"bus"`
}

type DeviceConfig struct {
	Address uint8 `yaml:"address"`
}

type BarometerConfig struct {
	Address     uint8   `yaml:"address"`
	SeaLevelHPa float64 `yaml:"seaLevelHPa"`
}

type PowerConfig struct {
	Address            uint8   `yaml:"address"`
	VoltageChannel     int     `yaml:"voltageChannel"`
	CurrentChannel     int     `yaml:"currentChannel"`
	DividerRatio       float64 `yaml:"dividerRatio"`
	CalibrationFactor  float64 `yaml:"calibrationFactor"`
	CurrentSensitivity float64 `yaml:"currentSensitivity"`
	CurrentZeroVolts   float64 `yaml:"currentZeroVolts"`
	ReferenceVoltage   float64 `yaml:"referenceVoltage"`
}

type ClockConfig struct {
	Source  ClockSource `yaml:"source"`
	Address uint8       `yaml:"address"`
}

type CalibrationConfig struct {
	Samples  int             `yaml:"samples"`
	Interval config.Duration `yaml:"interval"`
}

type CadenceConfig struct {
	High config.Duration `yaml:"high"`
	Low  config.Duration `yaml:"low"`
}

// LoadConfig reads the file at path, applies environment overrides and defaults
// and validates the result
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Output.Port != "" && c.Output.BaudRate == 0 {
		c.Output.BaudRate = link.DefaultBaudRate
	}
	if c.I2C.Bus == 0 {
		c.I2C.Bus = defaultI2CBus
	}
	if c.IMU.Address == 0 {
		c.IMU.Address = defaultIMUAddress
	}
	if c.Barometer.Address == 0 {
		c.Barometer.Address = defaultBarometerAddress
	}
	if c.Barometer.SeaLevelHPa == 0 {
		c.Barometer.SeaLevelHPa = sensor.SeaLevelPressure
	}
	if c.Power.Address == 0 {
		c.Power.Address = defaultPowerAddress
	}
	if c.Power.VoltageChannel == c.Power.CurrentChannel && c.Power.VoltageChannel == 0 {
		c.Power.CurrentChannel = 1
	}
	if c.Power.DividerRatio == 0 {
		c.Power.DividerRatio = 1
	}
	if c.Power.CurrentSensitivity == 0 {
		c.Power.CurrentSensitivity = 0.185 // ACS712-05B
	}
	if c.Clock.Source == "" {
		c.Clock.Source = ClockDS3231
	}
	if c.Clock.Address == 0 {
		c.Clock.Address = defaultClockAddress
	}
	if c.GPS.Port != "" && c.GPS.BaudRate == 0 {
		c.GPS.BaudRate = defaultGPSBaudRate
	}
	if c.Calibration.Samples == 0 {
		c.Calibration.Samples = defaultCalibrationSamples
	}
	if c.Calibration.Interval == 0 {
		c.Calibration.Interval = config.NewDuration(defaultCalibrationInterval)
	}
	if c.Cadence.High == 0 {
		c.Cadence.High = config.NewDuration(sampler.DefaultHighInterval)
	}
	if c.Cadence.Low == 0 {
		c.Cadence.Low = config.NewDuration(sampler.DefaultLowInterval)
	}
}

// Validate checks the configuration after defaults have been applied
func (c *Config) Validate() error {
	switch c.Clock.Source {
	case ClockDS3231, ClockSystem, ClockNone:
	default:
		return config.NewConfigError(fmt.Sprintf("clock.source: unknown source '%s'", c.Clock.Source))
	}

	if c.Power.VoltageChannel == c.Power.CurrentChannel {
		return config.NewConfigError("power: voltage and current must use different channels")
	}
	if c.Calibration.Samples < 0 {
		return config.NewConfigError(fmt.Sprintf("calibration.samples: must not be negative: %d given", c.Calibration.Samples))
	}
	if err := c.Calibration.Interval.Validate(); err != nil {
		return config.NewConfigError(fmt.Sprintf("calibration.interval: %s", err))
	}
	if err := c.Cadence.High.Validate(); err != nil {
		return config.NewConfigError(fmt.Sprintf("cadence.high: %s", err))
	}
	if err := c.Cadence.Low.Validate(); err != nil {
		return config.NewConfigError(fmt.Sprintf("cadence.low: %s", err))
	}

	return nil
}

func (c *PowerConfig) sensorConfig() sensor.PowerConfig {
	return sensor.PowerConfig{
		VoltageChannel:     c.VoltageChannel,
		CurrentChannel:     c.CurrentChannel,
		DividerRatio:       c.DividerRatio,
		CalibrationFactor:  c.CalibrationFactor,
		CurrentSensitivity: c.CurrentSensitivity,
		CurrentZeroVolts:   c.CurrentZeroVolts,
	}
}

func (c *SerialConfig) linkConfig() link.SerialConfig {
	return link.SerialConfig{Port: c.Port, BaudRate: c.BaudRate}
}
