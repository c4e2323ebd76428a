package sensor

import (
	"fmt"
	"time"
)

const ds3231RegSeconds = 0x00

// DS3231 is a battery-backed real-time clock
type DS3231 struct {
	bus     registerBus
	address byte
}

// NewDS3231 probes the clock by reading the time once
func NewDS3231(bus registerBus, address byte) (*DS3231, error) {
	c := &DS3231{bus: bus, address: address}
	if _, err := c.Now(); err != nil {
		return nil, fmt.Errorf("no DS3231 at address %#x: %w", address, err)
	}
	return c, nil
}

func (c *DS3231) Now() (time.Time, error) {
	buf := make([]byte, 7)
	if err := c.bus.ReadFromReg(c.address, ds3231RegSeconds, buf); err != nil {
		return time.Time{}, fmt.Errorf("reading time registers: %w", err)
	}
	return decodeDS3231(buf)
}

func decodeDS3231(b []byte) (time.Time, error) {
	sec := fromBCD(b[0] & 0x7F)
	minute := fromBCD(b[1] & 0x7F)

	var hour int
	if b[2]&0x40 != 0 { // 12 hour mode
		hour = fromBCD(b[2]&0x1F) % 12
		if b[2]&0x20 != 0 {
			hour += 12
		}
	} else {
		hour = fromBCD(b[2] & 0x3F)
	}

	day := fromBCD(b[4] & 0x3F)
	month := fromBCD(b[5] & 0x1F)
	year := 2000 + fromBCD(b[6])
	if b[5]&0x80 != 0 {
		year += 100
	}

	if sec > 59 || minute > 59 || hour > 23 || day < 1 || day > 31 || month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("%w: invalid rtc time %02d-%02d %02d:%02d:%02d", ErrUnavailable, month, day, hour, minute, sec)
	}

	return time.Date(year, time.Month(month), day, hour, minute, sec, 0, time.UTC), nil
}

func fromBCD(b byte) int {
	return int(b>>4)*10 + int(b&0x0F)
}
