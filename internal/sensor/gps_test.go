package sensor

import (
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"testing"
	"time"
)

const (
	ggaFix     = "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"
	rmcValid   = "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A"
	ggaNoFix   = "$GPGGA,123520,4807.038,N,01131.000,E,0,03,0.9,545.4,M,46.9,M,,*47"
	rmcVoid    = "$GPRMC,123520,V,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*77"
	ggaSouth   = "$GPGGA,123521,3345.678,S,15112.345,E,1,11,0.8,30.0,M,20.0,M,,*6C"
	badChecksm = "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*00"
)

func TestNMEAPositioner_Process(t *testing.T) {
	tests := []struct {
		name      string
		sentences []string
		wantOK    bool
		want      Fix
	}{
		{
			name: "no sentences",
		},
		{
			name:      "gga fix",
			sentences: []string{ggaFix},
			wantOK:    true,
			want:      Fix{Latitude: 48.1173, Longitude: 11.516667, Satellites: 8, Valid: true},
		},
		{
			name:      "rmc fix",
			sentences: []string{rmcValid},
			wantOK:    true,
			want:      Fix{Latitude: 48.1173, Longitude: 11.516667, Valid: true},
		},
		{
			name:      "fix lost keeps satellite count",
			sentences: []string{ggaFix, ggaNoFix},
			wantOK:    true,
			want:      Fix{Latitude: 48.1173, Longitude: 11.516667, Satellites: 3},
		},
		{
			name:      "void rmc invalidates",
			sentences: []string{ggaFix, rmcVoid},
			wantOK:    true,
			want:      Fix{Latitude: 48.1173, Longitude: 11.516667, Satellites: 8},
		},
		{
			name:      "southern hemisphere",
			sentences: []string{ggaSouth},
			wantOK:    true,
			want:      Fix{Latitude: -33.7613, Longitude: 151.205750, Satellites: 11, Valid: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewNMEAPositioner()
			for _, s := range tt.sentences {
				if err := p.Process(s); err != nil {
					t.Fatalf("Process(%q) error = %v", s, err)
				}
			}

			got, ok := p.Fix()
			if ok != tt.wantOK {
				t.Fatalf("Fix() ok = %v, want %v", ok, tt.wantOK)
			}
			if got.Valid != tt.want.Valid || got.Satellites != tt.want.Satellites {
				t.Errorf("Fix() = %+v, want %+v", got, tt.want)
			}
			if math.Abs(got.Latitude-tt.want.Latitude) > 1e-5 || math.Abs(got.Longitude-tt.want.Longitude) > 1e-5 {
				t.Errorf("Fix() position = %v, %v, want %v, %v", got.Latitude, got.Longitude, tt.want.Latitude, tt.want.Longitude)
			}
		})
	}
}

func TestNMEAPositioner_ProcessErrors(t *testing.T) {
	p := NewNMEAPositioner()

	if err := p.Process(badChecksm); err == nil {
		t.Error("expected checksum error")
	}
	if err := p.Process("garbage"); err == nil {
		t.Error("expected parse error")
	}
	if err := p.Process("   "); err != nil {
		t.Errorf("blank line error = %v", err)
	}
	if _, ok := p.Fix(); ok {
		t.Error("errors must not publish a fix")
	}
}

func waitForFix(t *testing.T, p *NMEAPositioner, want func(Fix) bool) Fix {
	t.Helper()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if f, ok := p.Fix(); ok && want(f) {
			return f
		}
		time.Sleep(time.Millisecond)
	}
	f, _ := p.Fix()
	t.Fatalf("fix not published in time, last %+v", f)
	return f
}

func TestNMEAPositioner_Run(t *testing.T) {
	pr, pw := io.Pipe()

	p := NewNMEAPositioner()
	done := make(chan error, 1)
	go func() {
		done <- p.Run(context.Background(), pr)
	}()

	stream := strings.Join([]string{"garbage", ggaNoFix, "", ggaFix, badChecksm}, "\r\n") + "\r\n"
	if _, err := io.WriteString(pw, stream); err != nil {
		t.Fatalf("writing stream: %v", err)
	}

	waitForFix(t, p, func(f Fix) bool { return f.Valid && f.Satellites == 8 })

	_ = pw.Close()
	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// nothing feeds the fix once the drain has stopped
	if got, _ := p.Fix(); got.Valid || got.Satellites != 0 {
		t.Errorf("Fix() after Run = %+v, want invalid", got)
	}
}

func TestNMEAPositioner_RunKeepsDrainingAfterGarbage(t *testing.T) {
	pr, pw := io.Pipe()

	p := NewNMEAPositioner()
	done := make(chan error, 1)
	go func() {
		done <- p.Run(context.Background(), pr)
	}()

	stream := rmcValid + "\n" + strings.Repeat("$GPXXX,garbage*00\n", maxParseErrors+5) + ggaSouth + "\n"
	if _, err := io.WriteString(pw, stream); err != nil {
		t.Fatalf("writing stream: %v", err)
	}

	got := waitForFix(t, p, func(f Fix) bool { return f.Valid && f.Latitude < 0 })
	if got.Satellites != 11 {
		t.Errorf("Fix() = %+v, want the fix after the garbage", got)
	}

	_ = pw.Close()
	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestNMEAPositioner_GarbageMakesFixStale(t *testing.T) {
	p := NewNMEAPositioner()
	if err := p.Process(rmcValid); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	var count int
	for i := 0; i < maxParseErrors-1; i++ {
		count = p.parseFailed(count, errors.New("garbage"))
	}
	if got, _ := p.Fix(); !got.Valid {
		t.Fatalf("fix went stale after %d errors", count)
	}

	if count = p.parseFailed(count, errors.New("garbage")); count != 0 {
		t.Errorf("expected the error count to restart, got %d", count)
	}
	if got, ok := p.Fix(); !ok || got.Valid {
		t.Errorf("Fix() = %+v, %v, want an invalid fix", got, ok)
	}
}

func TestNMEAPositioner_RunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewNMEAPositioner()
	if err := p.Run(ctx, strings.NewReader(ggaFix+"\n")); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, ok := p.Fix(); ok {
		t.Error("cancelled run must not publish a fix")
	}
}
