package sampler

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/roman-kulish/cansat-telemetry/internal/sensor"
	"github.com/roman-kulish/cansat-telemetry/internal/telemetry"
)

var errRead = errors.New("read failed")

type fakeIMU struct{ x, y, z float64 }

func (f fakeIMU) Acceleration() (float64, float64, float64, error) { return f.x, f.y, f.z, nil }

type failingIMU struct{}

func (failingIMU) Acceleration() (float64, float64, float64, error) { return 0, 0, 0, errRead }

type fakeBarometer struct{ pressure, temperature float64 }

func (f fakeBarometer) Read() (float64, float64, error) { return f.pressure, f.temperature, nil }

type fakePower struct {
	voltage, current float64
	err              error
}

func (f fakePower) Read() (float64, float64, error) { return f.voltage, f.current, f.err }

type fakeClock struct{ now time.Time }

func (f fakeClock) Now() (time.Time, error) { return f.now, nil }

type fakePositioner struct {
	fix sensor.Fix
	ok  bool
}

func (f fakePositioner) Fix() (sensor.Fix, bool) { return f.fix, f.ok }

var flightTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestSampler_HighPriority(t *testing.T) {
	tests := []struct {
		name    string
		sensors sensor.Set
		cal     sensor.Calibration
		want    string
	}{
		{
			name: "all sensors present",
			sensors: sensor.Set{
				IMU:        fakeIMU{0.01, 0.02, 9.81},
				Barometer:  fakeBarometer{1013.25, 25.5},
				Clock:      fakeClock{flightTime},
				Positioner: fakePositioner{sensor.Fix{Latitude: 12.345678, Longitude: 98.765432, Satellites: 7, Valid: true}, true},
			},
			want: "H,20240101-120000,0.0100,0.0200,9.8100,1013.25,0.00,25.50,12.345678,98.765432,7",
		},
		{
			name:    "no sensors",
			sensors: sensor.Set{},
			want:    "H,00000000-000000,NaN,NaN,NaN,NaN,NaN,NaN,NaN,NaN,0",
		},
		{
			name: "calibrated imu and fix without position",
			sensors: sensor.Set{
				IMU:        fakeIMU{0.5, -0.5, 10},
				Clock:      fakeClock{flightTime},
				Positioner: fakePositioner{sensor.Fix{Satellites: 3}, true},
			},
			cal:  sensor.Calibration{IMUOffset: [3]float64{0.5, -0.5, 10 - sensor.StandardGravity}},
			want: "H,20240101-120000,0.0000,0.0000,9.8066,NaN,NaN,NaN,NaN,NaN,3",
		},
		{
			name:    "failing imu read",
			sensors: sensor.Set{IMU: failingIMU{}, Clock: fakeClock{flightTime}},
			want:    "H,20240101-120000,NaN,NaN,NaN,NaN,NaN,NaN,NaN,NaN,0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(&bytes.Buffer{}, tt.sensors, WithCalibration(tt.cal))
			got := s.HighPriority()

			if got.String() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got.String())
			}
			if n := len(got.Fields()); n != telemetry.HighPriorityFields {
				t.Errorf("expected %d fields, got %d", telemetry.HighPriorityFields, n)
			}
		})
	}
}

func TestSampler_LowPriority(t *testing.T) {
	tests := []struct {
		name    string
		sensors sensor.Set
		cal     sensor.Calibration
		want    string
	}{
		{
			name:    "power monitor present",
			sensors: sensor.Set{Power: fakePower{voltage: 7.2, current: 0.173}, Clock: fakeClock{flightTime}},
			cal:     sensor.Calibration{CurrentOffset: 0.05, VoltageScale: 1.025},
			want:    "L,20240101-120000,7.38,0.123",
		},
		{
			name:    "power monitor failing",
			sensors: sensor.Set{Power: fakePower{err: errRead}, Clock: fakeClock{flightTime}},
			want:    "L,20240101-120000,NaN,NaN",
		},
		{
			name:    "no clock",
			sensors: sensor.Set{Power: fakePower{voltage: 7.4, current: 0.1}},
			want:    "L,00000000-000000,7.40,0.100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(&bytes.Buffer{}, tt.sensors, WithCalibration(tt.cal))
			if got := s.LowPriority().String(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSampler_AltitudeUsesSeaLevelReference(t *testing.T) {
	sensors := sensor.Set{Barometer: fakeBarometer{1000, 20}}

	standard := New(&bytes.Buffer{}, sensors).HighPriority()
	local := New(&bytes.Buffer{}, sensors, WithSeaLevelPressure(1000)).HighPriority()

	if !standard.Altitude.Valid || standard.Altitude.Value < 100 {
		t.Errorf("expected altitude above 100 m, got %+v", standard.Altitude)
	}
	if local.Altitude.Value != 0 {
		t.Errorf("expected 0 m against local reference, got %v", local.Altitude.Value)
	}
}

// syncBuffer is written by the sampler goroutine and read by the test
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Split(strings.TrimSuffix(b.buf.String(), "\n"), "\n")
}

func TestSampler_Run(t *testing.T) {
	high := make(chan time.Time)
	low := make(chan time.Time)
	tickers := map[time.Duration]chan time.Time{DefaultHighInterval: high, DefaultLowInterval: low}

	out := &syncBuffer{}
	s := New(out, sensor.Set{Clock: fakeClock{flightTime}})
	s.newTicker = func(d time.Duration) (<-chan time.Time, func()) {
		return tickers[d], func() {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	for i := 0; i < 10; i++ {
		high <- time.Now()
	}
	low <- time.Now()
	high <- time.Now() // ensures the low tick has been written

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	lines := out.Lines()
	if len(lines) != 12 {
		t.Fatalf("expected 12 records, got %d: %v", len(lines), lines)
	}

	var highCount, lowCount int
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "H,"):
			highCount++
		case strings.HasPrefix(line, "L,"):
			lowCount++
		}
	}
	if highCount != 11 || lowCount != 1 {
		t.Errorf("expected 11 H and 1 L records, got %d and %d", highCount, lowCount)
	}
	if lines[10] != "L,20240101-120000,NaN,NaN" {
		t.Errorf("unexpected low priority record %q", lines[10])
	}
}

type failingWriter struct{ calls int }

func (w *failingWriter) Write([]byte) (int, error) {
	w.calls++
	return 0, errors.New("port closed")
}

func TestSampler_RunContinuesAfterWriteError(t *testing.T) {
	high := make(chan time.Time)

	out := &failingWriter{}
	s := New(out, sensor.Set{})
	s.newTicker = func(d time.Duration) (<-chan time.Time, func()) {
		if d == DefaultHighInterval {
			return high, func() {}
		}
		return nil, func() {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	high <- time.Now()
	high <- time.Now()
	high <- time.Now()
	cancel()
	<-done

	if out.calls < 2 {
		t.Errorf("expected sampling to continue after write errors, got %d writes", out.calls)
	}
}
