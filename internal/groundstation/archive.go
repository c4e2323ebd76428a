package groundstation

import (
	"context"
	"time"

	"github.com/roman-kulish/cansat-telemetry/internal/storage"
	"github.com/roman-kulish/cansat-telemetry/internal/telemetry"
)

// Archiver stores accepted packets beyond the CSV log
type Archiver interface {
	StorePacket(ctx context.Context, p *storage.Packet) (int64, error)
}

// toPacket converts an accepted frame into an archive record. Fields that fail
// to parse are stored as NULL.
func toPacket(sessionID string, receivedAt time.Time, f Frame, r Row) *storage.Packet {
	p := storage.Packet{
		SessionID:  sessionID,
		ReceivedAt: receivedAt,
		Type:       string(f.Tag),
		Payload:    f.Payload,
	}

	if f.Header.Valid {
		seq, rssi, sum := int64(f.Header.Sequence), int64(f.Header.RSSI), int64(f.Header.Checksum)
		p.Sequence, p.RSSI, p.Checksum = &seq, &rssi, &sum
	}
	if ts, err := r.Time(); err == nil {
		p.Timestamp = &ts
	}

	switch f.Tag {
	case telemetry.TagHigh:
		p.Temperature = r.floatPtr(ColTemperature)
		p.Pressure = r.floatPtr(ColPressure)
		p.Altitude = r.floatPtr(ColAltitude)
		p.Latitude = r.floatPtr(ColLatitude)
		p.Longitude = r.floatPtr(ColLongitude)
		if sats, ok := r.Float(ColSats); ok {
			n := int64(sats)
			p.Satellites = &n
		}
	case telemetry.TagLow:
		p.Voltage = r.floatPtr(ColVoltage)
		p.Current = r.floatPtr(ColCurrent)
	}

	return &p
}

func (r Row) floatPtr(col int) *float64 {
	v, ok := r.Float(col)
	if !ok {
		return nil
	}
	return &v
}
