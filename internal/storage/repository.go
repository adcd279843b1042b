package storage

import (
	"context"
	"database/sql"
	"time"

	"codeberg.org/mutker/dewkd/internal/errors"
	"codeberg.org/mutker/dewkd/internal/instrument"
	"codeberg.org/mutker/dewkd/internal/logger"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

type sqlRepository struct {
	db *sql.DB
}

// Open connects to the configured database, verifies the connection
// and ensures the schema exists.
func Open(cfg Config) (Repository, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Debug().Str("driver", cfg.Driver).Msg("Opening sensor data store")

	db, err := sql.Open(cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	if err := ensureSchema(db, cfg.Driver); err != nil {
		db.Close()
		return nil, err
	}

	return &sqlRepository{db: db}, nil
}

// Insert writes one reading in its own transaction. One reading, one
// transaction: the read cadence is low, so durability wins over
// throughput. On any failure the transaction is rolled back and the
// error surfaces to the caller as recoverable.
func (r *sqlRepository) Insert(ctx context.Context, reading instrument.Reading) error {
	errFactory := errors.New()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	_, err = tx.ExecContext(ctx, `
        INSERT INTO sensor_data (timestamp, mjd, temperature_s1, humidity_s1, temperature_s2, humidity_s2)
        VALUES ($1, $2, $3, $4, $5, $6)
    `,
		reading.Timestamp,
		reading.MJD,
		reading.TemperatureS1,
		reading.HumidityS1,
		reading.TemperatureS2,
		reading.HumidityS2,
	)
	if err != nil {
		tx.Rollback()
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	return nil
}

// ReadRange returns readings with timestamps in [from, to], ordered by
// timestamp ascending. This is the query surface the visualization
// consumer depends on.
func (r *sqlRepository) ReadRange(ctx context.Context, from, to time.Time) ([]instrument.Reading, error) {
	errFactory := errors.New()

	rows, err := r.db.QueryContext(ctx, `
        SELECT timestamp, mjd, temperature_s1, humidity_s1, temperature_s2, humidity_s2
        FROM sensor_data
        WHERE timestamp BETWEEN $1 AND $2
        ORDER BY timestamp ASC
    `, from, to)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}
	defer rows.Close()

	var readings []instrument.Reading
	for rows.Next() {
		var reading instrument.Reading
		if err := rows.Scan(
			&reading.Timestamp,
			&reading.MJD,
			&reading.TemperatureS1,
			&reading.HumidityS1,
			&reading.TemperatureS2,
			&reading.HumidityS2,
		); err != nil {
			return nil, errFactory.Wrap(ErrStorageAccess, err)
		}
		readings = append(readings, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}

	return readings, nil
}

func (r *sqlRepository) Close() error {
	if err := r.db.Close(); err != nil {
		errFactory := errors.New()
		return errFactory.Wrap(ErrStorageClose, err)
	}

	return nil
}
