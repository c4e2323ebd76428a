// Package link opens the byte streams between the three processes: plain serial
// ports and the LoRa radio modem.
package link

import (
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

const DefaultBaudRate = 115200

// SerialConfig describes a serial port
type SerialConfig struct {
	Port        string
	BaudRate    int
	ReadTimeout time.Duration // 0 blocks until data arrives
}

// OpenSerial opens the port in raw 8N1 mode
func OpenSerial(cfg SerialConfig) (io.ReadWriteCloser, error) {
	if cfg.Port == "" {
		return nil, fmt.Errorf("serial port is not set")
	}
	baud := cfg.BaudRate
	if baud <= 0 {
		baud = DefaultBaudRate
	}

	p, err := serial.OpenPort(&serial.Config{Name: cfg.Port, Baud: baud, ReadTimeout: cfg.ReadTimeout})
	if err != nil {
		return nil, fmt.Errorf("error opening serial port %s: %w", cfg.Port, err)
	}
	return p, nil
}
