package sensor

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/roman-kulish/cansat-telemetry/internal/config"
)

const epsilon = 1e-6

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestAltitude(t *testing.T) {
	tests := []struct {
		name     string
		pressure float64
		seaLevel float64
		want     float64
	}{
		{"at sea level", 1013.25, 1013.25, 0},
		{"default reference", 1013.25, 0, 0},
		{"low pressure", 899.0, 1013.25, 1000.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Altitude(tt.pressure, tt.seaLevel)
			if math.Abs(got-tt.want) > 5 {
				t.Errorf("Altitude(%v, %v) = %.2f, want about %.2f", tt.pressure, tt.seaLevel, got, tt.want)
			}
		})
	}

	if Altitude(1000, 1013.25) <= Altitude(1010, 1013.25) {
		t.Error("altitude must grow as pressure drops")
	}
}

func TestMPU6050(t *testing.T) {
	bus := newFakeBus()
	bus.set(0x69, mpuRegWhoAmI, 0x68)
	bus.set(0x69, mpuRegAccelXOutH, 0xE0, 0x00, 0x00, 0x00, 0x40, 0x00)

	imu, err := NewMPU6050(bus, 0x69)
	if err != nil {
		t.Fatalf("NewMPU6050() error = %v", err)
	}
	if imu.Model() != "MPU-6050" {
		t.Errorf("Model() = %q", imu.Model())
	}

	wantWrites := []fakeWrite{
		{addr: 0x69, reg: mpuRegPwrMgmt1, value: []byte{0}},
		{addr: 0x69, reg: mpuRegAccelConfig, value: []byte{0}},
	}
	if len(bus.writes) != len(wantWrites) {
		t.Fatalf("got %d register writes, want %d", len(bus.writes), len(wantWrites))
	}
	for i, w := range wantWrites {
		if bus.writes[i].reg != w.reg || bus.writes[i].value[0] != w.value[0] {
			t.Errorf("write %d = %+v, want %+v", i, bus.writes[i], w)
		}
	}

	x, y, z, err := imu.Acceleration()
	if err != nil {
		t.Fatalf("Acceleration() error = %v", err)
	}
	if !almostEqual(x, -StandardGravity/2) || y != 0 || !almostEqual(z, StandardGravity) {
		t.Errorf("Acceleration() = %v, %v, %v", x, y, z)
	}
}

func TestMPU6050_Probe(t *testing.T) {
	t.Run("missing device", func(t *testing.T) {
		if _, err := NewMPU6050(newFakeBus(), 0x69); !errors.Is(err, errNoDevice) {
			t.Errorf("NewMPU6050() error = %v, want %v", err, errNoDevice)
		}
	})

	t.Run("wrong identity", func(t *testing.T) {
		bus := newFakeBus()
		bus.set(0x68, mpuRegWhoAmI, 0x12)
		if _, err := NewMPU6050(bus, 0x68); !errors.Is(err, ErrUnexpectedDevice) {
			t.Errorf("NewMPU6050() error = %v, want %v", err, ErrUnexpectedDevice)
		}
	})
}

func TestADS1115(t *testing.T) {
	raw := map[int][]byte{
		0: {0x3E, 0x80}, // 16000 -> 2.0 V
		1: {0x54, 0x60}, // 21600 -> 2.7 V
	}

	bus := newFakeBus()
	var channel int
	bus.read = func(addr, reg byte, value []byte) error {
		copy(value, raw[channel])
		return nil
	}

	cfg := PowerConfig{
		VoltageChannel:     0,
		CurrentChannel:     1,
		DividerRatio:       4,
		CalibrationFactor:  1,
		CurrentSensitivity: 0.1,
		CurrentZeroVolts:   2.5,
	}

	adc := &ADS1115{bus: &channelBus{fakeBus: bus, channel: &channel}, address: 0x48, config: cfg, wait: func(time.Duration) {}}

	v, c, err := adc.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !almostEqual(v, 8.0) {
		t.Errorf("voltage = %v, want 8.0", v)
	}
	if !almostEqual(c, 2.0) {
		t.Errorf("current = %v, want 2.0", c)
	}
}

// channelBus tracks the multiplexer selection of the last config write
type channelBus struct {
	*fakeBus
	channel *int
}

func (b *channelBus) WriteToReg(addr, reg byte, value []byte) error {
	if reg == adsRegConfig {
		*b.channel = int((value[0]>>4)&0x07) - 4
	}
	return b.fakeBus.WriteToReg(addr, reg, value)
}

func TestADS1115_Config(t *testing.T) {
	tests := []struct {
		channel int
		want    []byte
	}{
		{0, []byte{0xC3, 0x83}},
		{1, []byte{0xD3, 0x83}},
		{3, []byte{0xF3, 0x83}},
	}

	for _, tt := range tests {
		got := adsSingleShotConfig(tt.channel)
		if got[0] != tt.want[0] || got[1] != tt.want[1] {
			t.Errorf("adsSingleShotConfig(%d) = %#x, want %#x", tt.channel, got, tt.want)
		}
	}
}

func TestPowerConversion(t *testing.T) {
	cfg := PowerConfig{DividerRatio: 3, CurrentSensitivity: 0.185, CurrentZeroVolts: 2.5}

	if got := BatteryVoltage(2.5, cfg); !almostEqual(got, 7.5) {
		t.Errorf("BatteryVoltage() without factor = %v, want 7.5", got)
	}

	cfg.CalibrationFactor = 1.02
	if got := BatteryVoltage(2.5, cfg); !almostEqual(got, 7.65) {
		t.Errorf("BatteryVoltage() with factor = %v, want 7.65", got)
	}

	if got := LoadCurrent(2.5, cfg); got != 0 {
		t.Errorf("LoadCurrent() at zero point = %v, want 0", got)
	}
	if got := LoadCurrent(2.685, cfg); !almostEqual(got, 1.0) {
		t.Errorf("LoadCurrent() = %v, want 1.0", got)
	}
}

func TestNewADS1115_InvalidChannels(t *testing.T) {
	if _, err := NewADS1115(newFakeBus(), 0x48, PowerConfig{VoltageChannel: 4, CurrentSensitivity: 1}); err == nil {
		t.Error("expected error for channel 4")
	}
	if _, err := NewADS1115(newFakeBus(), 0x48, PowerConfig{}); err == nil {
		t.Error("expected error for zero sensitivity")
	}
}

func TestDS3231(t *testing.T) {
	tests := []struct {
		name    string
		regs    []byte
		want    time.Time
		wantErr bool
	}{
		{
			name: "24 hour mode",
			regs: []byte{0x58, 0x59, 0x23, 0x01, 0x30, 0x06, 0x24},
			want: time.Date(2024, 6, 30, 23, 59, 58, 0, time.UTC),
		},
		{
			name: "12 hour mode pm",
			regs: []byte{0x00, 0x15, 0x71, 0x02, 0x01, 0x01, 0x24},
			want: time.Date(2024, 1, 1, 23, 15, 0, 0, time.UTC),
		},
		{
			name: "12 hour mode midnight",
			regs: []byte{0x05, 0x00, 0x52, 0x02, 0x01, 0x01, 0x24},
			want: time.Date(2024, 1, 1, 0, 0, 5, 0, time.UTC),
		},
		{
			name:    "uninitialised registers",
			regs:    []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := newFakeBus()
			bus.set(0x68, ds3231RegSeconds, tt.regs...)

			clock, err := NewDS3231(bus, 0x68)
			if tt.wantErr {
				if !errors.Is(err, ErrUnavailable) {
					t.Fatalf("NewDS3231() error = %v, want %v", err, ErrUnavailable)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewDS3231() error = %v", err)
			}

			got, err := clock.Now()
			if err != nil {
				t.Fatalf("Now() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Now() = %v, want %v", got, tt.want)
			}
		})
	}
}

type closerSensor struct {
	closed bool
	err    error
}

func (c *closerSensor) Now() (time.Time, error) { return time.Time{}, nil }
func (c *closerSensor) Close() error {
	c.closed = true
	return c.err
}

func TestSet_Close(t *testing.T) {
	boom := errors.New("boom")
	clock := &closerSensor{err: boom}
	set := Set{Clock: clock, Positioner: NewNMEAPositioner()}

	if err := set.Close(); !errors.Is(err, boom) {
		t.Errorf("Close() error = %v, want %v", err, boom)
	}
	if !clock.closed {
		t.Error("clock was not closed")
	}
}

func TestOpen(t *testing.T) {
	logger := config.DiscardLogger()

	clock, ok := Open(logger, "clock", func() (Clock, error) { return SystemClock{}, nil })
	if !ok || clock == nil {
		t.Fatalf("Open() = %v, %v, want present clock", clock, ok)
	}

	imu, ok := Open(logger, "imu", func() (*MPU6050, error) { return nil, errNoDevice })
	if ok || imu != nil {
		t.Errorf("Open() = %v, %v, want absent imu", imu, ok)
	}
}
