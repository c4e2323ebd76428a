package telemetry

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	TagHigh Tag = "H" // 100 ms cadence: motion, atmosphere and position
	TagLow  Tag = "L" // 1 s cadence: power

	// HighPriorityFields is the fixed field count of a serialized HighPriorityRecord
	HighPriorityFields = 11

	// LowPriorityFields is the fixed field count of a serialized LowPriorityRecord
	LowPriorityFields = 4

	// TimestampLayout is the wire layout of record timestamps
	TimestampLayout = "20060102-150405"

	// TimestampSentinel is sent when the clock is unavailable
	TimestampSentinel = "00000000-000000"

	// NaN is the wire token of an unavailable reading
	NaN = "NaN"

	Separator = ","
)

// Decimal precision of each numeric field on the wire
const (
	PrecisionIMU         = 4
	PrecisionPressure    = 2
	PrecisionAltitude    = 2
	PrecisionTemperature = 2
	PrecisionCoordinate  = 6
	PrecisionVoltage     = 2
	PrecisionCurrent     = 3
)

var (
	ErrMalformedTimestamp = errors.New("malformed timestamp")
	ErrMalformedRecord    = errors.New("malformed record")
)

// Tag discriminates the two record variants on the wire
type Tag string

func (t Tag) String() string {
	return string(t)
}

// Prefix returns the tag followed by the field separator, the way every line starts
func (t Tag) Prefix() string {
	return string(t) + Separator
}

// Record is a serializable sensor record
type Record interface {
	Tag() Tag
	Fields() []string
}

// Reading is a sensor value that is either present or explicitly unavailable
type Reading struct {
	Value float64
	Valid bool
}

// Unavailable is the reading of an absent or failed sensor
var Unavailable = Reading{}

// Value wraps v as a present reading. NaN and infinities are treated as unavailable.
func Value(v float64) Reading {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Unavailable
	}
	return Reading{Value: v, Valid: true}
}

// Format renders the reading with prec decimals, or NaN when unavailable
func (r Reading) Format(prec int) string {
	if !r.Valid {
		return NaN
	}
	return strconv.FormatFloat(r.Value, 'f', prec, 64)
}

// Vector is a three-axis reading, each axis independently optional
type Vector struct {
	X, Y, Z Reading
}

// UnavailableVector is the IMU value of an absent accelerometer
var UnavailableVector = Vector{}

// Timestamp is the record time; the zero value means the clock is unavailable
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// Valid reports whether the timestamp came from a working clock
func (t Timestamp) Valid() bool {
	return !t.IsZero()
}

func (t Timestamp) String() string {
	if !t.Valid() {
		return TimestampSentinel
	}
	return t.Format(TimestampLayout)
}

// ParseTimestamp parses a wire timestamp. The sentinel is reported as ErrMalformedTimestamp
// because it does not carry a point in time.
func ParseTimestamp(s string) (time.Time, error) {
	if s == TimestampSentinel {
		return time.Time{}, fmt.Errorf("%w: clock unavailable", ErrMalformedTimestamp)
	}
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrMalformedTimestamp, err)
	}
	return t, nil
}

// HighPriorityRecord is emitted every 100 ms
type HighPriorityRecord struct {
	Timestamp   Timestamp
	IMU         Vector  // Acceleration in m/s², zero-offset corrected
	Pressure    Reading // Barometric pressure in hPa
	Altitude    Reading // Barometric altitude in meters
	Temperature Reading // Temperature in °C
	Latitude    Reading // GPS latitude in degrees
	Longitude   Reading // GPS longitude in degrees
	Satellites  int     // Satellites in use, 0 without a fix
}

func (r *HighPriorityRecord) Tag() Tag {
	return TagHigh
}

// Fields returns exactly HighPriorityFields fields
func (r *HighPriorityRecord) Fields() []string {
	return []string{
		TagHigh.String(),
		r.Timestamp.String(),
		r.IMU.X.Format(PrecisionIMU),
		r.IMU.Y.Format(PrecisionIMU),
		r.IMU.Z.Format(PrecisionIMU),
		r.Pressure.Format(PrecisionPressure),
		r.Altitude.Format(PrecisionAltitude),
		r.Temperature.Format(PrecisionTemperature),
		r.Latitude.Format(PrecisionCoordinate),
		r.Longitude.Format(PrecisionCoordinate),
		strconv.Itoa(max(r.Satellites, 0)),
	}
}

func (r *HighPriorityRecord) String() string {
	return strings.Join(r.Fields(), Separator)
}

// LowPriorityRecord is emitted every second
type LowPriorityRecord struct {
	Timestamp Timestamp
	Voltage   Reading // Battery voltage in V
	Current   Reading // Load current in A
}

func (r *LowPriorityRecord) Tag() Tag {
	return TagLow
}

// Fields returns exactly LowPriorityFields fields
func (r *LowPriorityRecord) Fields() []string {
	return []string{
		TagLow.String(),
		r.Timestamp.String(),
		r.Voltage.Format(PrecisionVoltage),
		r.Current.Format(PrecisionCurrent),
	}
}

func (r *LowPriorityRecord) String() string {
	return strings.Join(r.Fields(), Separator)
}

// Encode writes the record as a single newline-terminated line
func Encode(w io.Writer, r Record) error {
	line := strings.Join(r.Fields(), Separator) + "\n"
	if _, err := io.WriteString(w, line); err != nil {
		return fmt.Errorf("writing %s record: %w", r.Tag(), err)
	}
	return nil
}

// Split breaks a record line into fields and checks the tag and the structural
// field count. Field contents are not validated.
func Split(line string) (Tag, []string, error) {
	fields := strings.Split(strings.TrimSpace(line), Separator)

	switch tag := Tag(fields[0]); tag {
	case TagHigh:
		if len(fields) != HighPriorityFields {
			return "", nil, fmt.Errorf("%w: %s record has %d fields, want %d", ErrMalformedRecord, tag, len(fields), HighPriorityFields)
		}
		return tag, fields, nil
	case TagLow:
		if len(fields) != LowPriorityFields {
			return "", nil, fmt.Errorf("%w: %s record has %d fields, want %d", ErrMalformedRecord, tag, len(fields), LowPriorityFields)
		}
		return tag, fields, nil
	default:
		return "", nil, fmt.Errorf("%w: unknown tag %q", ErrMalformedRecord, fields[0])
	}
}
