package link

import (
	"bufio"
	"testing"

	"github.com/dtn7/rf95modem-go/rf95"
)

func TestRF95_Receive(t *testing.T) {
	r := newRF95(nil)

	go func() {
		r.handleRx(rf95.RxMessage{Payload: []byte("000000,0,ABCD|L,20240101-120000,7.40,0.123"), Rssi: -87, Snr: 9})
		r.handleRx(rf95.RxMessage{Payload: []byte("000001,-87,1234|L,20240101-120001,7.39,0.120\n"), Rssi: -55, Snr: 11})
		_ = r.Close()
	}()

	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scanner error: %v", err)
	}

	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), lines)
	}
	if lines[0] != "000000,0,ABCD|L,20240101-120000,7.40,0.123" {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if got := r.LastRSSI(); got != -55 {
		t.Errorf("expected last RSSI -55, got %d", got)
	}
}

func TestRF95_LastRSSIBeforeReceive(t *testing.T) {
	r := newRF95(nil)
	defer r.Close()

	if got := r.LastRSSI(); got != 0 {
		t.Errorf("expected 0 before any packet, got %d", got)
	}
}

func TestRF95_RSSIOnly(t *testing.T) {
	r := newRF95(nil, WithRSSIOnly())

	// would block on the pipe if the payload were kept
	r.handleRx(rf95.RxMessage{Payload: []byte("ack"), Rssi: -48})
	_ = r.Close()

	if got := r.LastRSSI(); got != -48 {
		t.Errorf("expected last RSSI -48, got %d", got)
	}

	n, err := r.Read(make([]byte, 16))
	if n != 0 || err == nil {
		t.Errorf("expected empty closed stream, got %d bytes, err %v", n, err)
	}
}

func TestOpenSerial_NoPort(t *testing.T) {
	if _, err := OpenSerial(SerialConfig{}); err == nil {
		t.Error("expected error for empty port")
	}
}
