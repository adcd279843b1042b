package storage

import (
	"fmt"

	"codeberg.org/mutker/dewkd/internal/errors"
)

// Supported database/sql driver names.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

type Config struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	// Path is the database file path, sqlite3 only.
	Path string
}

func (c Config) Validate() error {
	errFactory := errors.New()

	switch c.Driver {
	case DriverPostgres:
		if c.Host == "" || c.Name == "" || c.User == "" {
			return errFactory.New(ErrInvalidConfig)
		}
	case DriverSQLite:
		if c.Path == "" {
			return errFactory.New(ErrInvalidConfig)
		}
	default:
		return errFactory.WithData(ErrInvalidDriver, c.Driver)
	}

	return nil
}

// DSN builds the driver-specific connection string.
func (c Config) DSN() string {
	if c.Driver == DriverSQLite {
		return c.Path
	}

	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)
}
