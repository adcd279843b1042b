package acquisition

import (
	"time"

	"codeberg.org/mutker/dewkd/internal/errors"
	"codeberg.org/mutker/dewkd/internal/logger"
)

// Openers produce the loop's three resources, in the order the
// Starting phase acquires them: serial port, then database, then file
// sink.
type Openers struct {
	Transport func() (Transport, error)
	Store     func() (Store, error)
	FileSink  func() (FileSink, error)
}

// Start performs the Starting phase. Resources open in dependency
// order; a failure at any step releases whatever was already open and
// returns before any data is processed, so a refused serial port
// leaves no file created and no database connection behind. On success
// the returned loop owns all three resources.
func Start(open Openers, interval time.Duration, labels Labels) (*Loop, error) {
	errFactory := errors.New()

	if open.Transport == nil || open.Store == nil || open.FileSink == nil {
		return nil, errFactory.New(ErrMissingSink)
	}

	transport, err := open.Transport()
	if err != nil {
		return nil, err
	}

	store, err := open.Store()
	if err != nil {
		closeQuietly(transport.Close, "serial port")
		return nil, err
	}

	sink, err := open.FileSink()
	if err != nil {
		closeQuietly(store.Close, "data store")
		closeQuietly(transport.Close, "serial port")
		return nil, err
	}

	loop, err := NewLoop(transport, store, sink, interval, labels)
	if err != nil {
		closeQuietly(sink.Close, "file sink")
		closeQuietly(store.Close, "data store")
		closeQuietly(transport.Close, "serial port")
		return nil, err
	}

	return loop, nil
}

// closeQuietly releases a resource during Starting-phase rollback,
// where the open error already on its way out is the one that matters.
func closeQuietly(close func() error, name string) {
	if err := close(); err != nil {
		logger.Warn().Err(err).Str("resource", name).Msg("Failed to release resource during startup rollback")
	}
}
