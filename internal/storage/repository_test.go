package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/dewkd/internal/instrument"
	"codeberg.org/mutker/dewkd/internal/logger"
	"codeberg.org/mutker/dewkd/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := logger.Init("error", true); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func sqliteConfig(t *testing.T) storage.Config {
	t.Helper()
	return storage.Config{
		Driver: storage.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "sensor_data.db"),
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     storage.Config
		wantErr string
	}{
		{
			name:    "unknown driver",
			cfg:     storage.Config{Driver: "oracle"},
			wantErr: "storage_invalid_driver",
		},
		{
			name:    "sqlite without path",
			cfg:     storage.Config{Driver: storage.DriverSQLite},
			wantErr: "storage_invalid_config",
		},
		{
			name:    "postgres without host",
			cfg:     storage.Config{Driver: storage.DriverPostgres, Name: "db", User: "u"},
			wantErr: "storage_invalid_config",
		},
		{
			name: "valid postgres",
			cfg: storage.Config{
				Driver: storage.DriverPostgres,
				Host:   "localhost",
				Port:   5432,
				Name:   "fluke_1620a",
				User:   "postgres",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInsertAndReadRange(t *testing.T) {
	repo, err := storage.Open(sqliteConfig(t))
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	first := instrument.NewReading(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), 21.5, 45.2, 22.0, 46.0)
	second := instrument.NewReading(time.Date(2024, 1, 1, 10, 0, 10, 0, time.UTC), 21.6, 45.3, 22.1, 46.1)

	require.NoError(t, repo.Insert(ctx, first))
	require.NoError(t, repo.Insert(ctx, second))

	from := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC)
	readings, err := repo.ReadRange(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, readings, 2)

	assert.True(t, readings[0].Timestamp.Equal(first.Timestamp))
	assert.True(t, readings[1].Timestamp.Equal(second.Timestamp))
	assert.InDelta(t, first.MJD, readings[0].MJD, 1e-6)
	assert.InDelta(t, 21.5, readings[0].TemperatureS1, 1e-9)
	assert.InDelta(t, 45.2, readings[0].HumidityS1, 1e-9)
	assert.InDelta(t, 22.1, readings[1].TemperatureS2, 1e-9)
	assert.InDelta(t, 46.1, readings[1].HumidityS2, 1e-9)
}

func TestReadRangeExcludesOutsideWindow(t *testing.T) {
	repo, err := storage.Open(sqliteConfig(t))
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	inside := instrument.NewReading(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), 21.5, 45.2, 22.0, 46.0)
	outside := instrument.NewReading(time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC), 20.0, 40.0, 20.5, 41.0)

	require.NoError(t, repo.Insert(ctx, inside))
	require.NoError(t, repo.Insert(ctx, outside))

	readings, err := repo.ReadRange(ctx,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 23, 59, 59, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.True(t, readings[0].Timestamp.Equal(inside.Timestamp))
}

func TestSchemaIsIdempotent(t *testing.T) {
	cfg := sqliteConfig(t)

	repo, err := storage.Open(cfg)
	require.NoError(t, err)

	ctx := context.Background()
	reading := instrument.NewReading(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), 21.5, 45.2, 22.0, 46.0)
	require.NoError(t, repo.Insert(ctx, reading))
	require.NoError(t, repo.Close())

	// Reopening must not clobber existing rows.
	repo, err = storage.Open(cfg)
	require.NoError(t, err)
	defer repo.Close()

	readings, err := repo.ReadRange(ctx,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, readings, 1)
}
