package sensor

import (
	"encoding/binary"
	"fmt"
	"time"
)

const (
	adsRegConversion = 0x00
	adsRegConfig     = 0x01

	adsFullScaleVolts = 4.096 // PGA ±4.096 V
	adsConversionTime = 9 * time.Millisecond
)

// PowerConfig describes the analog front end of the power monitor
type PowerConfig struct {
	VoltageChannel     int     // ADC input wired to the battery voltage divider
	CurrentChannel     int     // ADC input wired to the hall current sensor
	DividerRatio       float64 // Battery volts per ADC volt
	CalibrationFactor  float64 // Static correction applied to the divided voltage
	CurrentSensitivity float64 // Current sensor output in V/A
	CurrentZeroVolts   float64 // Current sensor output at 0 A
}

// ADS1115 reads battery voltage and load current through a 16-bit I2C ADC
type ADS1115 struct {
	bus     registerBus
	address byte
	config  PowerConfig
	wait    func(time.Duration)
}

// NewADS1115 probes the ADC with one conversion on the voltage channel
func NewADS1115(bus registerBus, address byte, config PowerConfig) (*ADS1115, error) {
	if config.VoltageChannel < 0 || config.VoltageChannel > 3 || config.CurrentChannel < 0 || config.CurrentChannel > 3 {
		return nil, fmt.Errorf("ads1115: channels must be between 0 and 3: %d, %d given", config.VoltageChannel, config.CurrentChannel)
	}
	if config.CurrentSensitivity == 0 {
		return nil, fmt.Errorf("ads1115: current sensitivity must not be zero")
	}

	a := &ADS1115{bus: bus, address: address, config: config, wait: time.Sleep}
	if _, err := a.channelVolts(config.VoltageChannel); err != nil {
		return nil, fmt.Errorf("no ADS1115 at address %#x: %w", address, err)
	}
	return a, nil
}

func (a *ADS1115) Read() (voltage, current float64, err error) {
	vIn, err := a.channelVolts(a.config.VoltageChannel)
	if err != nil {
		return 0, 0, fmt.Errorf("reading voltage channel: %w", err)
	}
	cIn, err := a.channelVolts(a.config.CurrentChannel)
	if err != nil {
		return 0, 0, fmt.Errorf("reading current channel: %w", err)
	}

	return BatteryVoltage(vIn, a.config), LoadCurrent(cIn, a.config), nil
}

// channelVolts runs a single-shot conversion of one single-ended input
func (a *ADS1115) channelVolts(channel int) (float64, error) {
	if err := a.bus.WriteToReg(a.address, adsRegConfig, adsSingleShotConfig(channel)); err != nil {
		return 0, fmt.Errorf("starting conversion: %w", err)
	}

	a.wait(adsConversionTime)

	buf := make([]byte, 2)
	if err := a.bus.ReadFromReg(a.address, adsRegConversion, buf); err != nil {
		return 0, fmt.Errorf("reading conversion: %w", err)
	}

	raw := int16(binary.BigEndian.Uint16(buf))
	return float64(raw) * adsFullScaleVolts / 32768, nil
}

// adsSingleShotConfig: OS=1, MUX=AINx/GND, PGA ±4.096 V, single-shot, 128 SPS, comparator off
func adsSingleShotConfig(channel int) []byte {
	cfg := uint16(0x8000) | uint16(0x4+channel)<<12 | 0x0200 | 0x0100 | 0x0080 | 0x0003
	return []byte{byte(cfg >> 8), byte(cfg)}
}

// BatteryVoltage scales the ADC input back through the divider
func BatteryVoltage(adcVolts float64, c PowerConfig) float64 {
	factor := c.CalibrationFactor
	if factor == 0 {
		factor = 1
	}
	return adcVolts * c.DividerRatio * factor
}

// LoadCurrent converts the hall sensor output to amperes
func LoadCurrent(adcVolts float64, c PowerConfig) float64 {
	return (adcVolts - c.CurrentZeroVolts) / c.CurrentSensitivity
}
