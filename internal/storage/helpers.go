package storage

import (
	"database/sql"
	"time"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func toPacketData(p *Packet) *packetData {
	return &packetData{
		SessionID:  p.SessionID,
		ReceivedAt: p.ReceivedAt.UTC(),
		Sequence:   toNullInt64(p.Sequence),
		RSSI:       toNullInt64(p.RSSI),
		Checksum:   toNullInt64(p.Checksum),
		Type:       p.Type,
		Timestamp: sql.NullTime{
			Time:  toSQLNullType[time.Time](p.Timestamp),
			Valid: p.Timestamp != nil,
		},
		Temperature: toNullFloat64(p.Temperature),
		Pressure:    toNullFloat64(p.Pressure),
		Altitude:    toNullFloat64(p.Altitude),
		Latitude:    toNullFloat64(p.Latitude),
		Longitude:   toNullFloat64(p.Longitude),
		Satellites:  toNullInt64(p.Satellites),
		Voltage:     toNullFloat64(p.Voltage),
		Current:     toNullFloat64(p.Current),
		Payload:     p.Payload,
	}
}

func fromPacketData(d *packetData) *Packet {
	p := Packet{
		ID:          d.ID,
		SessionID:   d.SessionID,
		ReceivedAt:  d.ReceivedAt,
		Sequence:    fromNull(d.Sequence.Int64, d.Sequence.Valid),
		RSSI:        fromNull(d.RSSI.Int64, d.RSSI.Valid),
		Checksum:    fromNull(d.Checksum.Int64, d.Checksum.Valid),
		Type:        d.Type,
		Timestamp:   fromNull(d.Timestamp.Time, d.Timestamp.Valid),
		Temperature: fromNull(d.Temperature.Float64, d.Temperature.Valid),
		Pressure:    fromNull(d.Pressure.Float64, d.Pressure.Valid),
		Altitude:    fromNull(d.Altitude.Float64, d.Altitude.Valid),
		Latitude:    fromNull(d.Latitude.Float64, d.Latitude.Valid),
		Longitude:   fromNull(d.Longitude.Float64, d.Longitude.Valid),
		Satellites:  fromNull(d.Satellites.Int64, d.Satellites.Valid),
		Voltage:     fromNull(d.Voltage.Float64, d.Voltage.Valid),
		Current:     fromNull(d.Current.Float64, d.Current.Valid),
		Payload:     d.Payload,
	}
	return &p
}

func toNullInt64(v *int64) sql.NullInt64 {
	return sql.NullInt64{Int64: toSQLNullType[int64](v), Valid: v != nil}
}

func toNullFloat64(v *float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: toSQLNullType[float64](v), Valid: v != nil}
}

func toSQLNullType[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}

func fromNull[T any](v T, valid bool) *T {
	if !valid {
		return nil
	}
	return &v
}
