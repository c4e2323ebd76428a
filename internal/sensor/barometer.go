package sensor

import (
	"fmt"

	"github.com/kidoman/embd"
	"github.com/westphae/goflying/bmp280"
)

// BMP280 adapts the goflying driver, which pushes samples on a channel, to the
// pull-style Barometer capability. The newest pending sample wins.
type BMP280 struct {
	dev  *bmp280.BMP280
	last *bmp280.BMPData
}

// NewBMP280 starts the sensor in normal mode with 16x oversampling
func NewBMP280(bus *embd.I2CBus, address byte) (*BMP280, error) {
	dev, err := bmp280.NewBMP280(bus, address,
		bmp280.NormalMode, bmp280.StandbyTime63ms, bmp280.FilterCoeff16, bmp280.Oversamp16x, bmp280.Oversamp16x)
	if err != nil {
		return nil, fmt.Errorf("no BMP280 at address %#x: %w", address, err)
	}
	return &BMP280{dev: dev}, nil
}

func (b *BMP280) Read() (pressure, temperature float64, err error) {
drain:
	for {
		select {
		case data, ok := <-b.dev.C:
			if !ok {
				return 0, 0, fmt.Errorf("%w: bmp280 stopped", ErrUnavailable)
			}
			b.last = data
		default:
			break drain
		}
	}

	if b.last == nil {
		return 0, 0, fmt.Errorf("%w: bmp280 has no sample yet", ErrUnavailable)
	}
	return b.last.Pressure, b.last.Temperature, nil
}

func (b *BMP280) Close() error {
	b.dev.Close()
	return nil
}
