package app

import (
	"fmt"

	"github.com/roman-kulish/cansat-telemetry/internal/config"
	"github.com/roman-kulish/cansat-telemetry/internal/groundstation"
	"github.com/roman-kulish/cansat-telemetry/internal/link"
)

const (
	SourceSerial RadioSource = "serial"
	SourceRF95   RadioSource = "rf95"
)

const (
	defaultLogPath  = "telemetry_log.csv"
	defaultPlotFile = "temperature.png"
)

type RadioSource string

// Config represents the ground station configuration
type Config struct {
	Settings       config.Settings `yaml:"settings"`
	Radio          RadioConfig     `yaml:"radio"`
	Log            LogConfig       `yaml:"log"`
	Window         WindowConfig    `yaml:"window"`
	Display        DisplayConfig   `yaml:"display"`
	VerifyChecksum bool            `yaml:"verifyChecksum"`
	Storage        StorageConfig   `yaml:"storage"`
	Metrics        MetricsConfig   `yaml:"metrics"`
}

// RadioConfig represents the receiving end of the link. With the serial source
// the port carries already demodulated frames; with rf95 it is the modem itself.
type RadioConfig struct {
	Source       RadioSource `yaml:"source"`
	Port         string      `yaml:"port"`
	BaudRate     int         `yaml:"baudRate"`
	FrequencyMHz float64     `yaml:"frequencyMHz"`
	Mode         int         `yaml:"mode"`
}

type LogConfig struct {
	Path string `yaml:"path"`
}

type WindowConfig struct {
	MaxRecords int `yaml:"maxRecords"`
}

type DisplayConfig struct {
	TableRows  int             `yaml:"tableRows"`
	Refresh    config.Duration `yaml:"refresh"`
	PlotFile   string          `yaml:"plotFile"`
	PlotWidth  int             `yaml:"plotWidth"`
	PlotHeight int             `yaml:"plotHeight"`
}

// StorageConfig represents the SQLite archive. An empty path disables it.
type StorageConfig struct {
	Path string `yaml:"path"`
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
	if c.Radio.Source == "" {
		c.Radio.Source = SourceSerial
	}
	if c.Radio.BaudRate == 0 {
		c.Radio.BaudRate = link.DefaultBaudRate
	}
	if c.Log.Path == "" {
		c.Log.Path = defaultLogPath
	}
	if c.Window.MaxRecords == 0 {
		c.Window.MaxRecords = groundstation.DefaultMaxRecords
	}
	if c.Display.TableRows == 0 {
		c.Display.TableRows = groundstation.DefaultTableRows
	}
	if c.Display.Refresh == 0 {
		c.Display.Refresh = config.NewDuration(groundstation.DefaultRefresh)
	}
	if c.Display.PlotFile == "" {
		c.Display.PlotFile = defaultPlotFile
	}
	if c.Display.PlotWidth == 0 {
		c.Display.PlotWidth = groundstation.DefaultPlotWidth
	}
	if c.Display.PlotHeight == 0 {
		c.Display.PlotHeight = groundstation.DefaultPlotHeight
	}
}

// Validate checks the configuration after defaults have been applied
func (c *Config) Validate() error {
	switch c.Radio.Source {
	case SourceSerial, SourceRF95:
	default:
		return config.NewConfigError(fmt.Sprintf("radio.source: unknown source '%s'", c.Radio.Source))
	}

	if c.Radio.Port == "" {
		return config.NewConfigError("radio.port: required")
	}
	if c.Window.MaxRecords < 1 {
		return config.NewConfigError(fmt.Sprintf("window.maxRecords: must be at least 1: %d given", c.Window.MaxRecords))
	}
	if c.Display.TableRows < 1 {
		return config.NewConfigError(fmt.Sprintf("display.tableRows: must be at least 1: %d given", c.Display.TableRows))
	}
	if err := c.Display.Refresh.Validate(); err != nil {
		return config.NewConfigError(fmt.Sprintf("display.refresh: %s", err))
	}
	if c.Display.PlotWidth < 0 || c.Display.PlotHeight < 0 {
		return config.NewConfigError("display: plot size must not be negative")
	}

	return nil
}
