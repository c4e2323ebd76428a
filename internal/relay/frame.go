package relay

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roman-kulish/cansat-telemetry/internal/telemetry"
)

const (
	// MinLineLength is the length a record line must exceed to be framed
	MinLineLength = 10

	// SequenceModulus is where the sequence counter wraps back to zero
	SequenceModulus = 1_000_000

	// HeaderDelimiter separates the frame header from the payload
	HeaderDelimiter = "|"
)

var ErrInvalidLine = errors.New("invalid record line")

// ValidateLine checks that a Sampler line is long enough and carries a known tag
// prefix. It returns the line without surrounding whitespace.
func ValidateLine(line string) (string, error) {
	line = strings.TrimSpace(line)

	if len(line) <= MinLineLength {
		return "", fmt.Errorf("%w: %d bytes, need more than %d", ErrInvalidLine, len(line), MinLineLength)
	}
	if !strings.HasPrefix(line, telemetry.TagHigh.Prefix()) && !strings.HasPrefix(line, telemetry.TagLow.Prefix()) {
		return "", fmt.Errorf("%w: unknown tag prefix", ErrInvalidLine)
	}

	return line, nil
}

// Packet is one framed record as sent over the air
type Packet struct {
	Sequence uint32
	RSSI     int16
	Checksum uint16
	Payload  string
}

// Header renders seq,rssi,checksum
func (p Packet) Header() string {
	return fmt.Sprintf("%06d,%d,%04X", p.Sequence%SequenceModulus, p.RSSI, p.Checksum)
}

// String renders the full frame without a line terminator
func (p Packet) String() string {
	return p.Header() + HeaderDelimiter + p.Payload
}

// Bytes renders the frame as transmitted, newline-terminated
func (p Packet) Bytes() []byte {
	return []byte(p.String() + "\n")
}
