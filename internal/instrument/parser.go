package instrument

import (
	"strconv"
	"strings"
	"time"

	"codeberg.org/mutker/dewkd/internal/errors"
	"codeberg.org/mutker/dewkd/internal/logger"
)

const (
	// Instrument record layout: timestamp, then value/label token pairs
	// for sensor 1 temperature, sensor 1 humidity, sensor 2 temperature
	// and sensor 2 humidity. Label tokens carry no data.
	minRecordFields = 8

	timestampLayout = "02/01/2006 15:04:05"

	fieldDelimiter = ","
)

// Parse turns one raw instrument response into readings, one per
// well-formed line. Malformed lines are logged and skipped; they never
// abort the batch. Readings are emitted in source-line order.
func Parse(response string) []Reading {
	var readings []Reading

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		reading, err := parseRecord(line)
		if err != nil {
			logger.Warn().Err(err).Str("line", line).Msg("Skipping malformed record")
			continue
		}

		readings = append(readings, reading)
	}

	return readings
}

// parseRecord parses a single comma-separated record. A Reading is
// all-or-nothing: any field failure discards the whole line.
func parseRecord(line string) (Reading, error) {
	errFactory := errors.New()

	fields := strings.Split(line, fieldDelimiter)
	if len(fields) < minRecordFields {
		return Reading{}, errFactory.WithData(ErrShortRecord, len(fields))
	}

	// Instrument timestamps carry no zone; construct in UTC so the MJD
	// derivation is deterministic.
	ts, err := time.ParseInLocation(timestampLayout, strings.TrimSpace(fields[0]), time.UTC)
	if err != nil {
		return Reading{}, errFactory.Wrap(ErrBadTimestamp, err)
	}

	tempS1, err := parseValue(fields[1], "C")
	if err != nil {
		return Reading{}, err
	}
	humS1, err := parseValue(fields[3], "%")
	if err != nil {
		return Reading{}, err
	}
	tempS2, err := parseValue(fields[5], "C")
	if err != nil {
		return Reading{}, err
	}
	humS2, err := parseValue(fields[7], "%")
	if err != nil {
		return Reading{}, err
	}

	return NewReading(ts, tempS1, humS1, tempS2, humS2), nil
}

// parseValue parses a numeric field after stripping its trailing unit
// suffix ("C" for temperature, "%" for humidity).
func parseValue(field, unit string) (float64, error) {
	s := strings.TrimSuffix(strings.TrimSpace(field), unit)

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		errFactory := errors.New()
		return 0, errFactory.Wrap(ErrBadValue, err)
	}

	return value, nil
}
