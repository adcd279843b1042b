// Package filesink appends readings to a per-day CSV file, rotating at
// calendar-day boundaries.
package filesink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"codeberg.org/mutker/dewkd/internal/errors"
	"codeberg.org/mutker/dewkd/internal/instrument"
	"codeberg.org/mutker/dewkd/internal/logger"
	"github.com/jszwec/csvutil"
)

const (
	dayLayout       = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
	filePattern     = "sensor_dataset_%s.csv"

	filePerm = 0o644
	dirPerm  = 0o755
)

// row is the on-disk record. The date column is distinct from the full
// timestamp; the header comes from the csv tags.
type row struct {
	Date          string  `csv:"date"`
	Timestamp     string  `csv:"timestamp"`
	MJD           float64 `csv:"mjd"`
	TemperatureS1 float64 `csv:"temperature_s1"`
	HumidityS1    float64 `csv:"humidity_s1"`
	TemperatureS2 float64 `csv:"temperature_s2"`
	HumidityS2    float64 `csv:"humidity_s2"`
}

// Sink holds the rotation state: the current calendar day and the open
// handle for that day's file. The open file's date always equals the
// current day; a failed rotation leaves the handle nil until the next
// cycle's rollover check retries it.
type Sink struct {
	dir    string
	day    string
	closed bool

	file    *os.File
	writer  *csv.Writer
	encoder *csvutil.Encoder
}

// Open establishes the sink for the day containing now, creating the
// data directory if needed.
func Open(dir string, now time.Time) (*Sink, error) {
	errFactory := errors.New()

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, errFactory.Wrap(ErrRotateFailed, err)
	}

	s := &Sink{dir: dir}
	if err := s.rotate(now); err != nil {
		return nil, err
	}

	return s, nil
}

// CheckRollover rotates to a new file when the calendar day has
// changed. Called once per acquisition cycle, so the rotation may lag
// into the new day by up to one poll interval; that is accepted. A nil
// handle on an unclosed sink means an earlier rotation failed, so the
// rotation is retried rather than giving up: a transient fault at a
// day boundary must not disable the sink for the rest of the process.
func (s *Sink) CheckRollover(now time.Time) error {
	if s.closed {
		errFactory := errors.New()
		return errFactory.New(ErrSinkClosed)
	}

	if s.file != nil && now.Format(dayLayout) == s.day {
		return nil
	}

	return s.rotate(now)
}

// rotate closes the current handle, if any, and opens the file for the
// day containing now in append mode, writing the header row only when
// the file is newly created. Existing files are never truncated.
func (s *Sink) rotate(now time.Time) error {
	errFactory := errors.New()

	day := now.Format(dayLayout)
	path := filepath.Join(s.dir, fmt.Sprintf(filePattern, day))

	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	if s.file != nil {
		if err := s.file.Close(); err != nil {
			logger.Warn().Err(err).Str("day", s.day).Msg("Failed to close previous day's file")
		}
		s.file = nil
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return errFactory.Wrap(ErrRotateFailed, err)
	}

	writer := csv.NewWriter(file)
	encoder := csvutil.NewEncoder(writer)
	encoder.AutoHeader = false

	if isNew {
		if err := encoder.EncodeHeader(row{}); err != nil {
			file.Close()
			return errFactory.Wrap(ErrRotateFailed, err)
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			file.Close()
			return errFactory.Wrap(ErrRotateFailed, err)
		}
	}

	s.file = file
	s.writer = writer
	s.encoder = encoder
	s.day = day

	logger.Info().Str("file", path).Bool("created", isNew).Msg("File sink rotated")

	return nil
}

// Append writes one reading to the current day's file, flushed to disk
// per row.
func (s *Sink) Append(reading instrument.Reading) error {
	errFactory := errors.New()

	if s.file == nil {
		return errFactory.New(ErrSinkClosed)
	}

	record := row{
		Date:          reading.Timestamp.Format(dayLayout),
		Timestamp:     reading.Timestamp.Format(timestampLayout),
		MJD:           reading.MJD,
		TemperatureS1: reading.TemperatureS1,
		HumidityS1:    reading.HumidityS1,
		TemperatureS2: reading.TemperatureS2,
		HumidityS2:    reading.HumidityS2,
	}

	if err := s.encoder.Encode(record); err != nil {
		return errFactory.Wrap(ErrWriteFailed, err)
	}

	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return errFactory.Wrap(ErrWriteFailed, err)
	}

	return nil
}

// Close releases the file handle. Safe to call more than once.
func (s *Sink) Close() error {
	s.closed = true

	if s.file == nil {
		return nil
	}

	err := s.file.Close()
	s.file = nil
	if err != nil {
		errFactory := errors.New()
		return errFactory.Wrap(ErrCloseFailed, err)
	}

	return nil
}
