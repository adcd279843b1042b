// Package mjd converts calendar timestamps to Modified Julian Dates.
package mjd

import (
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// jdOffset is the offset between a Julian Date and a Modified Julian
// Date (MJD epoch: 1858-11-17 00:00 UTC).
const jdOffset = 2400000.5

// FromTime converts t to a Modified Julian Date. Instrument timestamps
// carry no zone, so callers construct them in UTC; the conversion is a
// pure function of the calendar fields.
func FromTime(t time.Time) float64 {
	return julian.TimeToJD(t.UTC()) - jdOffset
}
