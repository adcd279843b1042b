package instrument

import (
	"time"

	"codeberg.org/mutker/dewkd/internal/mjd"
)

// Reading is one dual-channel measurement reported by the instrument.
// It is immutable after construction; MJD is always derived from
// Timestamp and never set independently.
type Reading struct {
	Timestamp     time.Time
	MJD           float64
	TemperatureS1 float64
	HumidityS1    float64
	TemperatureS2 float64
	HumidityS2    float64
}

// NewReading builds a Reading from parsed fields, deriving its
// Modified Julian Date from the timestamp.
func NewReading(ts time.Time, tempS1, humS1, tempS2, humS2 float64) Reading {
	return Reading{
		Timestamp:     ts,
		MJD:           mjd.FromTime(ts),
		TemperatureS1: tempS1,
		HumidityS1:    humS1,
		TemperatureS2: tempS2,
		HumidityS2:    humS2,
	}
}
