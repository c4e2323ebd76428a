// Package groundstation receives framed telemetry, logs it and keeps the most
// recent rows for display.
package groundstation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/roman-kulish/cansat-telemetry/internal/relay"
	"github.com/roman-kulish/cansat-telemetry/internal/telemetry"
)

var (
	ErrNoDelimiter      = errors.New("frame has no header delimiter")
	ErrFieldCount       = errors.New("unexpected field count")
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// Header is the relay metadata in front of the payload. Valid is false when any
// of the three values failed to decode.
type Header struct {
	Sequence uint32
	RSSI     int16
	Checksum uint16
	Valid    bool
}

// Frame is a received line split into its header and a structurally valid record
type Frame struct {
	Header  Header
	Payload string
	Tag     telemetry.Tag
	Fields  []string
}

// ParseFrame splits line on the first delimiter and checks the payload's tag
// and field count. The header is decoded best-effort and never rejects a frame.
func ParseFrame(line string) (Frame, error) {
	line = strings.TrimSpace(line)

	head, payload, ok := strings.Cut(line, relay.HeaderDelimiter)
	if !ok {
		return Frame{}, ErrNoDelimiter
	}

	tag, fields, err := telemetry.Split(payload)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %w", ErrFieldCount, err)
	}

	return Frame{
		Header:  parseHeader(head),
		Payload: payload,
		Tag:     tag,
		Fields:  fields,
	}, nil
}

func parseHeader(head string) Header {
	parts := strings.Split(head, ",")
	if len(parts) != 3 {
		return Header{}
	}

	seq, errSeq := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 32)
	rssi, errRSSI := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 16)
	sum, errSum := strconv.ParseUint(strings.TrimSpace(parts[2]), 16, 16)

	return Header{
		Sequence: uint32(seq),
		RSSI:     int16(rssi),
		Checksum: uint16(sum),
		Valid:    errSeq == nil && errRSSI == nil && errSum == nil,
	}
}

// VerifyChecksum compares the header checksum with the CRC of the payload. Only
// meaningful when the relay runs in per-packet checksum mode.
func (f Frame) VerifyChecksum() error {
	if !f.Header.Valid {
		return fmt.Errorf("%w: header could not be decoded", ErrChecksumMismatch)
	}
	if got := relay.Checksum(f.Payload); got != f.Header.Checksum {
		return fmt.Errorf("%w: header %04X, payload %04X", ErrChecksumMismatch, f.Header.Checksum, got)
	}
	return nil
}
