package acquisition

import (
	"context"
	"time"

	"codeberg.org/mutker/dewkd/internal/instrument"
)

// Transport is the instrument connection. Any error it returns is
// fatal to the loop; an empty response is a normal empty cycle.
type Transport interface {
	Send(cmd string) (string, error)
	Close() error
}

// Store is the relational sink. Insert failures are recoverable.
type Store interface {
	Insert(ctx context.Context, reading instrument.Reading) error
	Close() error
}

// FileSink is the rotating per-day file sink. All its failures are
// recoverable.
type FileSink interface {
	CheckRollover(now time.Time) error
	Append(reading instrument.Reading) error
	Close() error
}

// Labels carries the operator-configured sensor display names used in
// log output.
type Labels struct {
	Sensor1 string
	Sensor2 string
}
