package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/roman-kulish/cansat-telemetry/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "groundstation.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "radio:\n  port: /dev/ttyUSB0\n"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Radio.Source != SourceSerial || cfg.Radio.BaudRate != 115200 {
		t.Errorf("unexpected radio defaults %+v", cfg.Radio)
	}
	if cfg.Log.Path != "telemetry_log.csv" {
		t.Errorf("unexpected log path %q", cfg.Log.Path)
	}
	if cfg.Window.MaxRecords != 500 || cfg.Display.TableRows != 20 {
		t.Errorf("unexpected window %d or table rows %d", cfg.Window.MaxRecords, cfg.Display.TableRows)
	}
	if cfg.Display.Refresh.Std() != time.Second {
		t.Errorf("unexpected refresh %s", cfg.Display.Refresh)
	}
	if cfg.VerifyChecksum || cfg.Storage.Path != "" || cfg.Metrics.Addr != "" {
		t.Errorf("optional features should be off by default: %+v", cfg)
	}
	if got := cfg.Radio.source(); got != "serial:/dev/ttyUSB0" {
		t.Errorf("unexpected session source %q", got)
	}
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("CANSAT_RADIO_SOURCE", "rf95")
	t.Setenv("CANSAT_RADIO_PORT", "/dev/ttyACM0")
	t.Setenv("CANSAT_VERIFYCHECKSUM", "true")
	t.Setenv("CANSAT_WINDOW_MAXRECORDS", "50")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Radio.Source != SourceRF95 || cfg.Radio.Port != "/dev/ttyACM0" {
		t.Errorf("unexpected radio %+v", cfg.Radio)
	}
	if !cfg.VerifyChecksum {
		t.Error("expected checksum verification on")
	}
	if cfg.Window.MaxRecords != 50 {
		t.Errorf("expected 50 records, got %d", cfg.Window.MaxRecords)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing port", "radio:\n  source: serial\n"},
		{"unknown source", "radio:\n  source: tcp\n  port: x\n"},
		{"negative window", "radio:\n  port: x\nwindow:\n  maxRecords: -1\n"},
		{"bad refresh", "radio:\n  port: x\ndisplay:\n  refresh: -1s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))

			var configErr *config.ConfigError
			if !errors.As(err, &configErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
		})
	}
}

func TestLoadConfig_Sample(t *testing.T) {
	if _, err := LoadConfig(filepath.Join("..", "..", "..", "configs", "groundstation.yaml")); err != nil {
		t.Fatalf("sample configuration does not load: %v", err)
	}
}
