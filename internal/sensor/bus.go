package sensor

import (
	"fmt"

	"github.com/kidoman/embd"
	_ "github.com/kidoman/embd/host/rpi" // registers the Raspberry Pi I2C driver
)

// registerBus is the part of embd.I2CBus the register-level drivers use
type registerBus interface {
	ReadFromReg(addr, reg byte, value []byte) error
	ReadByteFromReg(addr, reg byte) (byte, error)
	WriteToReg(addr, reg byte, value []byte) error
	WriteByteToReg(addr, reg, value byte) error
}

// OpenI2C initialises the host I2C driver and returns the numbered bus
func OpenI2C(bus byte) (embd.I2CBus, error) {
	if err := embd.InitI2C(); err != nil {
		return nil, fmt.Errorf("initialising i2c: %w", err)
	}
	return embd.NewI2CBus(bus), nil
}

// CloseI2C releases the host I2C driver
func CloseI2C() error {
	return embd.CloseI2C()
}
