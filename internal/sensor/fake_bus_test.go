package sensor

import (
	"errors"
	"fmt"
)

// fakeBus serves register reads from a map keyed by device address and
// register, and records writes
type fakeBus struct {
	regs   map[byte]map[byte][]byte
	writes []fakeWrite
	read   func(addr, reg byte, value []byte) error // overrides regs when set
}

type fakeWrite struct {
	addr, reg byte
	value     []byte
}

var errNoDevice = errors.New("no device")

func newFakeBus() *fakeBus {
	return &fakeBus{regs: make(map[byte]map[byte][]byte)}
}

func (b *fakeBus) set(addr, reg byte, value ...byte) {
	if b.regs[addr] == nil {
		b.regs[addr] = make(map[byte][]byte)
	}
	b.regs[addr][reg] = value
}

func (b *fakeBus) ReadFromReg(addr, reg byte, value []byte) error {
	if b.read != nil {
		return b.read(addr, reg, value)
	}
	dev, ok := b.regs[addr]
	if !ok {
		return fmt.Errorf("%w at %#x", errNoDevice, addr)
	}
	copy(value, dev[reg])
	return nil
}

func (b *fakeBus) ReadByteFromReg(addr, reg byte) (byte, error) {
	buf := make([]byte, 1)
	if err := b.ReadFromReg(addr, reg, buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (b *fakeBus) WriteToReg(addr, reg byte, value []byte) error {
	if b.read == nil {
		if _, ok := b.regs[addr]; !ok {
			return fmt.Errorf("%w at %#x", errNoDevice, addr)
		}
	}
	b.writes = append(b.writes, fakeWrite{addr: addr, reg: reg, value: append([]byte(nil), value...)})
	return nil
}

func (b *fakeBus) WriteByteToReg(addr, reg, value byte) error {
	return b.WriteToReg(addr, reg, []byte{value})
}
