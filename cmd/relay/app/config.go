package app

import (
	"fmt"
	"time"

	"github.com/roman-kulish/cansat-telemetry/internal/config"
	"github.com/roman-kulish/cansat-telemetry/internal/link"
	"github.com/roman-kulish/cansat-telemetry/internal/relay"
)

const DefaultRestartDelay = 5 * time.Second

// Config represents the relay configuration
type Config struct {
	Settings     config.Settings `yaml:"settings"`
	Input        InputConfig     `yaml:"input"`
	Radio        RadioConfig     `yaml:"radio"`
	Retry        RetryConfig     `yaml:"retry"`
	Checksum     ChecksumConfig  `yaml:"checksum"`
	RestartDelay config.Duration `yaml:"restartDelay"`
	Metrics      MetricsConfig   `yaml:"metrics"`
}

// InputConfig represents the serial link from the sampler
type InputConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baudRate"`
}

// RadioConfig represents the rf95modem and the adaptive power policy
type RadioConfig struct {
	Device          string  `yaml:"device"`
	FrequencyMHz    float64 `yaml:"frequencyMHz"`
	Mode            int     `yaml:"mode"`
	MaxPowerDBm     int     `yaml:"maxPowerDBm"`
	PowerStepDB     int     `yaml:"powerStepDB"`
	PowerFloorDBm   int     `yaml:"powerFloorDBm"`
	StrongSignalDBm int     `yaml:"strongSignalDBm"`
}

type RetryConfig struct {
	Attempts   int             `yaml:"attempts"`
	BackoffMin config.Duration `yaml:"backoffMin"`
	BackoffMax config.Duration `yaml:"backoffMax"`
}

type ChecksumConfig struct {
	Mode relay.ChecksumMode `yaml:"mode"`
}

// MetricsConfig represents the Prometheus endpoint. An empty address disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
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
	if c.Input.BaudRate == 0 {
		c.Input.BaudRate = link.DefaultBaudRate
	}

	power := relay.DefaultPowerPolicy()
	if c.Radio.MaxPowerDBm == 0 {
		c.Radio.MaxPowerDBm = power.MaxPower
	}
	if c.Radio.PowerStepDB == 0 {
		c.Radio.PowerStepDB = power.Step
	}
	if c.Radio.PowerFloorDBm == 0 {
		c.Radio.PowerFloorDBm = power.Floor
	}
	if c.Radio.StrongSignalDBm == 0 {
		c.Radio.StrongSignalDBm = power.StrongSignalDBm
	}

	if c.Retry.Attempts == 0 {
		c.Retry.Attempts = relay.DefaultAttempts
	}
	if c.Retry.BackoffMin == 0 {
		c.Retry.BackoffMin = config.NewDuration(relay.DefaultBackoffMin)
	}
	if c.Retry.BackoffMax == 0 {
		c.Retry.BackoffMax = config.NewDuration(relay.DefaultBackoffMax)
	}

	if c.Checksum.Mode == "" {
		c.Checksum.Mode = relay.ChecksumCRC16
	}
	if c.RestartDelay == 0 {
		c.RestartDelay = config.NewDuration(DefaultRestartDelay)
	}
}

// Validate checks the configuration after defaults have been applied
func (c *Config) Validate() error {
	if c.Input.Port == "" {
		return config.NewConfigError("input.port: required")
	}
	if c.Radio.Device == "" {
		return config.NewConfigError("radio.device: required")
	}
	if c.Radio.PowerFloorDBm > c.Radio.MaxPowerDBm {
		return config.NewConfigError(fmt.Sprintf("radio.powerFloorDBm: %d exceeds radio.maxPowerDBm %d", c.Radio.PowerFloorDBm, c.Radio.MaxPowerDBm))
	}
	if c.Radio.PowerStepDB < 0 {
		return config.NewConfigError(fmt.Sprintf("radio.powerStepDB: must not be negative: %d given", c.Radio.PowerStepDB))
	}
	if c.Retry.Attempts < 1 {
		return config.NewConfigError(fmt.Sprintf("retry.attempts: must be at least 1: %d given", c.Retry.Attempts))
	}
	if err := c.Retry.BackoffMin.Validate(); err != nil {
		return config.NewConfigError(fmt.Sprintf("retry.backoffMin: %s", err))
	}
	if c.Retry.BackoffMax < c.Retry.BackoffMin {
		return config.NewConfigError(fmt.Sprintf("retry.backoffMax: %s is less than retry.backoffMin %s", c.Retry.BackoffMax, c.Retry.BackoffMin))
	}
	if _, err := relay.NewChecksummer(c.Checksum.Mode); err != nil {
		return config.NewConfigError(fmt.Sprintf("checksum.mode: %s", err))
	}
	if err := c.RestartDelay.Validate(); err != nil {
		return config.NewConfigError(fmt.Sprintf("restartDelay: %s", err))
	}

	return nil
}

func (c *Config) retryPolicy() relay.RetryPolicy {
	return relay.RetryPolicy{
		Attempts:   c.Retry.Attempts,
		BackoffMin: c.Retry.BackoffMin.Std(),
		BackoffMax: c.Retry.BackoffMax.Std(),
	}
}

func (c *Config) powerPolicy() relay.PowerPolicy {
	return relay.PowerPolicy{
		MaxPower:        c.Radio.MaxPowerDBm,
		Step:            c.Radio.PowerStepDB,
		Floor:           c.Radio.PowerFloorDBm,
		StrongSignalDBm: c.Radio.StrongSignalDBm,
	}
}
