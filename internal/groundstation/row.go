package groundstation

import (
	"math"
	"strconv"
	"time"

	"github.com/roman-kulish/cansat-telemetry/internal/telemetry"
)

// Columns of a logged row
const (
	ColType = iota
	ColTimestamp
	ColIMUX
	ColIMUY
	ColIMUZ
	ColPressure
	ColAltitude
	ColTemperature
	ColLatitude
	ColLongitude
	ColSats
	ColVoltage
	ColCurrent

	Columns
)

// CSVHeader is the first line of the CSV log
var CSVHeader = []string{
	"type", "timestamp",
	"imu_x", "imu_y", "imu_z",
	"pressure", "altitude", "temperature",
	"latitude", "longitude", "sats",
	"voltage", "current",
}

// Row is one logged record. Columns that do not apply to the record's tag are empty.
type Row [Columns]string

// NewRow lays out the fields of a parsed frame
func NewRow(f Frame) Row {
	var r Row

	switch f.Tag {
	case telemetry.TagHigh:
		copy(r[:telemetry.HighPriorityFields], f.Fields)
	case telemetry.TagLow:
		r[ColType] = f.Fields[0]
		r[ColTimestamp] = f.Fields[1]
		r[ColVoltage] = f.Fields[2]
		r[ColCurrent] = f.Fields[3]
	}

	return r
}

func (r Row) Tag() telemetry.Tag {
	return telemetry.Tag(r[ColType])
}

func (r Row) Strings() []string {
	return r[:]
}

// Time parses the timestamp column
func (r Row) Time() (time.Time, error) {
	return telemetry.ParseTimestamp(r[ColTimestamp])
}

// Float parses a numeric column. NaN, blanks and garbage report false.
func (r Row) Float(col int) (float64, bool) {
	v, err := strconv.ParseFloat(r[col], 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
