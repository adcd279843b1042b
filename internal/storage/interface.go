package storage

import (
	"context"
	"time"

	"codeberg.org/mutker/dewkd/internal/instrument"
)

// Repository is the durable store for readings. Downstream consumers
// query sensor_data over timestamp ranges, so the column set is a
// stable interface.
type Repository interface {
	Insert(ctx context.Context, reading instrument.Reading) error
	ReadRange(ctx context.Context, from, to time.Time) ([]instrument.Reading, error)
	Close() error
}
