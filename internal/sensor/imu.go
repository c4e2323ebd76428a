package sensor

import (
	"encoding/binary"
	"fmt"
)

const (
	mpuRegAccelConfig = 0x1C
	mpuRegAccelXOutH  = 0x3B
	mpuRegPwrMgmt1    = 0x6B
	mpuRegWhoAmI      = 0x75

	mpuLSBPerG = 16384.0 // ±2 g full scale
)

// known WHO_AM_I answers of the MPU-6050 family
var mpuIdentities = map[byte]string{
	0x68: "MPU-6050",
	0x70: "MPU-6500",
	0x71: "MPU-9250",
}

// MPU6050 is an accelerometer of the MPU-6050 family on an I2C bus
type MPU6050 struct {
	bus     registerBus
	address byte
	model   string
}

// NewMPU6050 probes the device, wakes it up and selects the ±2 g range
func NewMPU6050(bus registerBus, address byte) (*MPU6050, error) {
	id, err := bus.ReadByteFromReg(address, mpuRegWhoAmI)
	if err != nil {
		return nil, fmt.Errorf("reading WHO_AM_I at %#x: %w", address, err)
	}
	model, ok := mpuIdentities[id]
	if !ok {
		return nil, fmt.Errorf("%w: WHO_AM_I %#x at %#x", ErrUnexpectedDevice, id, address)
	}

	if err = bus.WriteByteToReg(address, mpuRegPwrMgmt1, 0x00); err != nil {
		return nil, fmt.Errorf("waking %s: %w", model, err)
	}
	if err = bus.WriteByteToReg(address, mpuRegAccelConfig, 0x00); err != nil {
		return nil, fmt.Errorf("configuring %s range: %w", model, err)
	}

	return &MPU6050{bus: bus, address: address, model: model}, nil
}

// Model returns the identified chip name
func (m *MPU6050) Model() string {
	return m.model
}

func (m *MPU6050) Acceleration() (x, y, z float64, err error) {
	buf := make([]byte, 6)
	if err = m.bus.ReadFromReg(m.address, mpuRegAccelXOutH, buf); err != nil {
		return 0, 0, 0, fmt.Errorf("reading acceleration: %w", err)
	}

	x = rawToAcceleration(buf[0:2])
	y = rawToAcceleration(buf[2:4])
	z = rawToAcceleration(buf[4:6])
	return x, y, z, nil
}

func rawToAcceleration(b []byte) float64 {
	raw := int16(binary.BigEndian.Uint16(b))
	return float64(raw) / mpuLSBPerG * StandardGravity
}
