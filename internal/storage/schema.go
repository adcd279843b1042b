package storage

import (
	"database/sql"
	"fmt"

	"codeberg.org/mutker/dewkd/internal/errors"
)

// ensureSchema creates the sensor_data table if absent. Idempotent and
// safe to run on every startup; there are no migrations beyond this.
func ensureSchema(db *sql.DB, driver string) error {
	idColumn := "SERIAL PRIMARY KEY"
	if driver == DriverSQLite {
		idColumn = "INTEGER PRIMARY KEY AUTOINCREMENT"
	}

	_, err := db.Exec(fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS sensor_data (
            id %s,
            timestamp TIMESTAMP NOT NULL,
            mjd FLOAT,
            temperature_s1 NUMERIC,
            humidity_s1 NUMERIC,
            temperature_s2 NUMERIC,
            humidity_s2 NUMERIC
        )
    `, idColumn))
	if err != nil {
		errFactory := errors.New()
		return errFactory.Wrap(ErrSchemaInit, err)
	}

	return nil
}
