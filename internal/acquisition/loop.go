// Package acquisition drives the poll-parse-persist cycle against the
// instrument and both sinks.
package acquisition

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/dewkd/internal/errors"
	"codeberg.org/mutker/dewkd/internal/instrument"
	"codeberg.org/mutker/dewkd/internal/logger"
)

// Loop owns the acquisition cycle and the lifecycle of the resources
// handed to it. It is single-threaded: transport I/O, parsing and both
// sink writes run sequentially, so no cycle overlaps another and
// readings reach both sinks in parse order.
type Loop struct {
	transport Transport
	store     Store
	sink      FileSink
	interval  time.Duration
	labels    Labels

	releaseOnce sync.Once
}

// NewLoop wires the loop. The caller has already performed the
// Starting phase: all three resources are open and healthy.
func NewLoop(transport Transport, store Store, sink FileSink, interval time.Duration, labels Labels) (*Loop, error) {
	errFactory := errors.New()

	if transport == nil || store == nil || sink == nil {
		return nil, errFactory.New(ErrMissingSink)
	}
	if interval <= 0 {
		return nil, errFactory.WithData(ErrInvalidInterval, interval)
	}

	return &Loop{
		transport: transport,
		store:     store,
		sink:      sink,
		interval:  interval,
		labels:    labels,
	}, nil
}

// Run polls until the context is canceled or the transport fails.
// Every path out of Run releases the file handle, the database
// connection and the serial port exactly once. Only transport errors
// are fatal; everything else is logged and the next cycle proceeds.
func (l *Loop) Run(ctx context.Context) error {
	defer l.release()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		if err := l.cycle(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// cycle performs one acquisition pass: rollover check, one instrument
// exchange, then both sink writes per reading in parse order.
func (l *Loop) cycle(ctx context.Context) error {
	if err := l.sink.CheckRollover(time.Now()); err != nil {
		logger.Error().Err(err).Msg("File rotation failed")
	}

	response, err := l.transport.Send(instrument.ReadRecordsCommand)
	if err != nil {
		// The serial link does not recover within the process lifetime.
		return err
	}
	if response == "" {
		logger.Debug().Msg("No data this cycle")
		return nil
	}

	for _, reading := range instrument.Parse(response) {
		// The two writes are independent: a database hiccup must not
		// cost the file row, and vice versa.
		if err := l.store.Insert(ctx, reading); err != nil {
			logger.Error().Err(err).Time("timestamp", reading.Timestamp).Msg("Database insert failed")
		}

		if err := l.sink.Append(reading); err != nil {
			logger.Error().Err(err).Time("timestamp", reading.Timestamp).Msg("File append failed")
		}

		logger.Debug().
			Time("timestamp", reading.Timestamp).
			Float64("mjd", reading.MJD).
			Str("sensor_1", l.labels.Sensor1).
			Float64("temperature_s1", reading.TemperatureS1).
			Float64("humidity_s1", reading.HumidityS1).
			Str("sensor_2", l.labels.Sensor2).
			Float64("temperature_s2", reading.TemperatureS2).
			Float64("humidity_s2", reading.HumidityS2).
			Msg("Reading persisted")
	}

	return nil
}

// release closes all owned resources. Guarded so that every exit path
// into Stopped releases them exactly once.
func (l *Loop) release() {
	l.releaseOnce.Do(func() {
		if err := l.sink.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close file sink")
		}
		if err := l.store.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close data store")
		}
		if err := l.transport.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close serial port")
		}
		logger.Info().Msg("Acquisition stopped")
	})
}
