package relay

import (
	"errors"
	"strings"
)

var errAir = errors.New("no ack from modem")

// fakeRadio fails the attempts listed in failOn (1-based, counted across packets)
type fakeRadio struct {
	rssi     int
	failOn   map[int]bool
	attempts int
	sent     []string
	powers   []int
}

func (f *fakeRadio) Transmit(packet []byte, powerDBm int) error {
	f.attempts++
	f.powers = append(f.powers, powerDBm)
	if f.failOn[f.attempts] {
		return errAir
	}
	f.sent = append(f.sent, strings.TrimSuffix(string(packet), "\n"))
	return nil
}

func (f *fakeRadio) LastRSSI() int { return f.rssi }
func (f *fakeRadio) Close() error  { return nil }
