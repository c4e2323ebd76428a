package storage

import (
	"database/sql"
	"time"
)

// Session is one run of the ground station
type Session struct {
	ID        string // UUID
	StartTime time.Time
	Source    string  // Radio input, e.g. "serial:/dev/ttyUSB0"
	Config    *string // JSON of the effective configuration
}

// Packet is one accepted frame. Nil fields were absent on the wire, could not
// be parsed, or do not apply to the record type.
type Packet struct {
	ID         int64
	SessionID  string
	ReceivedAt time.Time

	Sequence *int64
	RSSI     *int64
	Checksum *int64

	Type        string // "H" or "L"
	Timestamp   *time.Time
	Temperature *float64
	Pressure    *float64
	Altitude    *float64
	Latitude    *float64
	Longitude   *float64
	Satellites  *int64
	Voltage     *float64
	Current     *float64

	Payload string
}

type packetData struct {
	ID          int64
	SessionID   string
	ReceivedAt  time.Time
	Sequence    sql.NullInt64
	RSSI        sql.NullInt64
	Checksum    sql.NullInt64
	Type        string
	Timestamp   sql.NullTime
	Temperature sql.NullFloat64
	Pressure    sql.NullFloat64
	Altitude    sql.NullFloat64
	Latitude    sql.NullFloat64
	Longitude   sql.NullFloat64
	Satellites  sql.NullInt64
	Voltage     sql.NullFloat64
	Current     sql.NullFloat64
	Payload     string
}
