package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/dewkd/internal/acquisition"
	"codeberg.org/mutker/dewkd/internal/config"
	"codeberg.org/mutker/dewkd/internal/errors"
	"codeberg.org/mutker/dewkd/internal/filesink"
	"codeberg.org/mutker/dewkd/internal/instrument"
	"codeberg.org/mutker/dewkd/internal/logger"
	"codeberg.org/mutker/dewkd/internal/pid"
	"codeberg.org/mutker/dewkd/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogLevel, logger.IsService()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug().Msg("Config loaded")

	if err := pid.Write(); err != nil {
		logger.Fatal().Err(err).Msg("failed to acquire PID file")
	}
	defer pid.Remove()

	if err := run(cfg); err != nil {
		logger.Error().
			Str("error_code", string(errors.CodeOf(err))).
			Err(err).
			Msg("error in acquisition loop")
		pid.Remove()
		os.Exit(1)
	}
}

// run performs the Starting phase and hands off to the loop.
func run(cfg *config.Config) error {
	openers := acquisition.Openers{
		Transport: func() (acquisition.Transport, error) {
			return instrument.OpenTransport(
				cfg.Serial.Port,
				cfg.Serial.Baud,
				time.Duration(cfg.Serial.Timeout)*time.Second,
				time.Duration(cfg.Serial.Settle)*time.Millisecond,
			)
		},
		Store: func() (acquisition.Store, error) {
			return storage.Open(storage.Config{
				Driver:   cfg.Database.Driver,
				Host:     cfg.Database.Host,
				Port:     cfg.Database.Port,
				Name:     cfg.Database.Name,
				User:     cfg.Database.User,
				Password: cfg.Database.Password,
				Path:     cfg.Database.Path,
			})
		},
		FileSink: func() (acquisition.FileSink, error) {
			return filesink.Open(cfg.File.DataDir, time.Now())
		},
	}

	loop, err := acquisition.Start(
		openers,
		time.Duration(cfg.Interval)*time.Second,
		acquisition.Labels{
			Sensor1: cfg.Sensors.Name1,
			Sensor2: cfg.Sensors.Name2,
		},
	)
	if err != nil {
		return err
	}

	logger.Info().
		Str("port", cfg.Serial.Port).
		Int("interval_s", cfg.Interval).
		Str("sensor_1", cfg.Sensors.Name1).
		Str("sensor_2", cfg.Sensors.Name2).
		Msg("Starting acquisition")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	// Run owns the three resources from here on and releases them on
	// every exit path.
	return loop.Run(ctx)
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}
