package relay

import (
	"fmt"

	"github.com/sigurn/crc16"
)

type ChecksumMode string

const (
	// ChecksumCRC16 computes CRC-16/CCITT-FALSE over each payload on its own
	ChecksumCRC16 ChecksumMode = "crc16"

	// ChecksumLegacy carries one CRC-16/CCITT-FALSE register across every
	// accepted payload, so each value depends on all payloads before it
	ChecksumLegacy ChecksumMode = "legacy"
)

var crcTable = crc16.MakeTable(crc16.CRC16_CCITT_FALSE)

// Checksum returns the CRC-16/CCITT-FALSE of a single payload
func Checksum(payload string) uint16 {
	return crc16.Checksum([]byte(payload), crcTable)
}

// Checksummer produces the header checksum of each accepted payload
type Checksummer struct {
	mode     ChecksumMode
	register uint16
}

func NewChecksummer(mode ChecksumMode) (*Checksummer, error) {
	switch mode {
	case "":
		mode = ChecksumCRC16
	case ChecksumCRC16, ChecksumLegacy:
	default:
		return nil, fmt.Errorf("unknown checksum mode %q", mode)
	}
	return &Checksummer{mode: mode, register: crc16.Init(crcTable)}, nil
}

func (c *Checksummer) Mode() ChecksumMode {
	return c.mode
}

// Sum returns the checksum for payload. In legacy mode it also advances the
// running register.
func (c *Checksummer) Sum(payload string) uint16 {
	if c.mode == ChecksumLegacy {
		c.register = crc16.Update(c.register, []byte(payload), crcTable)
		return crc16.Complete(c.register, crcTable)
	}
	return Checksum(payload)
}
