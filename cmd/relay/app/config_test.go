package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/roman-kulish/cansat-telemetry/internal/config"
	"github.com/roman-kulish/cansat-telemetry/internal/relay"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relay.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

const minimalConfig = `
input:
  port: /dev/ttyUSB0
radio:
  device: /dev/ttyUSB1
`

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if got, want := cfg.powerPolicy(), relay.DefaultPowerPolicy(); got != want {
		t.Errorf("expected power policy %+v, got %+v", want, got)
	}
	if got, want := cfg.retryPolicy(), relay.DefaultRetryPolicy(); got != want {
		t.Errorf("expected retry policy %+v, got %+v", want, got)
	}
	if cfg.Checksum.Mode != relay.ChecksumCRC16 {
		t.Errorf("expected crc16 checksum, got %s", cfg.Checksum.Mode)
	}
	if cfg.RestartDelay.Std() != 5*time.Second {
		t.Errorf("expected 5s restart delay, got %s", cfg.RestartDelay)
	}
	if cfg.Metrics.Addr != "" {
		t.Errorf("metrics should be disabled by default")
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("CANSAT_CHECKSUM_MODE", "legacy")
	t.Setenv("CANSAT_RADIO_STRONGSIGNALDBM", "-70")
	t.Setenv("CANSAT_METRICS_ADDR", ":9102")

	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Checksum.Mode != relay.ChecksumLegacy {
		t.Errorf("expected legacy checksum, got %s", cfg.Checksum.Mode)
	}
	if cfg.Radio.StrongSignalDBm != -70 {
		t.Errorf("expected -70 dBm threshold, got %d", cfg.Radio.StrongSignalDBm)
	}
	if cfg.Metrics.Addr != ":9102" {
		t.Errorf("unexpected metrics address %q", cfg.Metrics.Addr)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing input", "radio:\n  device: /dev/ttyUSB1\n"},
		{"missing radio", "input:\n  port: /dev/ttyUSB0\n"},
		{"unknown checksum", minimalConfig + "checksum:\n  mode: xor\n"},
		{"floor above max", minimalConfig + "  maxPowerDBm: 10\n  powerFloorDBm: 15\n"},
		{"inverted backoff", minimalConfig + "retry:\n  backoffMin: 300ms\n  backoffMax: 100ms\n"},
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
	if _, err := LoadConfig(filepath.Join("..", "..", "..", "configs", "relay.yaml")); err != nil {
		t.Fatalf("sample configuration does not load: %v", err)
	}
}
