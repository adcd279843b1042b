package acquisition_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"codeberg.org/mutker/dewkd/internal/acquisition"
	"codeberg.org/mutker/dewkd/internal/instrument"
	"codeberg.org/mutker/dewkd/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := logger.Init("error", true); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fakeTransport struct {
	responses []string
	finalErr  error
	sends     int
	closes    int
}

func (f *fakeTransport) Send(string) (string, error) {
	f.sends++
	if len(f.responses) == 0 {
		return "", f.finalErr
	}
	response := f.responses[0]
	f.responses = f.responses[1:]
	return response, nil
}

func (f *fakeTransport) Close() error {
	f.closes++
	return nil
}

type fakeStore struct {
	inserted []instrument.Reading
	failNext int
	closes   int
}

func (f *fakeStore) Insert(_ context.Context, reading instrument.Reading) error {
	if f.failNext > 0 {
		f.failNext--
		return fmt.Errorf("database unavailable")
	}
	f.inserted = append(f.inserted, reading)
	return nil
}

func (f *fakeStore) Close() error {
	f.closes++
	return nil
}

type fakeSink struct {
	appended  []instrument.Reading
	rollovers int
	closes    int
}

func (f *fakeSink) CheckRollover(time.Time) error {
	f.rollovers++
	return nil
}

func (f *fakeSink) Append(reading instrument.Reading) error {
	f.appended = append(f.appended, reading)
	return nil
}

func (f *fakeSink) Close() error {
	f.closes++
	return nil
}

func newLoop(t *testing.T, transport *fakeTransport, store *fakeStore, sink *fakeSink) *acquisition.Loop {
	t.Helper()
	loop, err := acquisition.NewLoop(transport, store, sink, time.Millisecond, acquisition.Labels{
		Sensor1: "s1",
		Sensor2: "s2",
	})
	require.NoError(t, err)
	return loop
}

func TestNewLoopValidation(t *testing.T) {
	transport := &fakeTransport{}
	store := &fakeStore{}
	sink := &fakeSink{}

	_, err := acquisition.NewLoop(nil, store, sink, time.Second, acquisition.Labels{})
	require.Error(t, err)

	_, err = acquisition.NewLoop(transport, store, sink, 0, acquisition.Labels{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acquisition_invalid_interval")
}

func TestTransportErrorIsFatal(t *testing.T) {
	fatal := fmt.Errorf("port gone")
	transport := &fakeTransport{finalErr: fatal}
	store := &fakeStore{}
	sink := &fakeSink{}

	err := newLoop(t, transport, store, sink).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, fatal, err)

	// Every exit path releases all three resources exactly once.
	assert.Equal(t, 1, transport.closes)
	assert.Equal(t, 1, store.closes)
	assert.Equal(t, 1, sink.closes)
}

func TestReadingsReachBothSinksInOrder(t *testing.T) {
	response := "01/01/2024 10:00:00,21.5C,x,45.2%,x,22.0C,x,46.0%\r\n" +
		"01/01/2024 10:00:10,21.6C,x,45.3%,x,22.1C,x,46.1%"
	transport := &fakeTransport{
		responses: []string{response},
		finalErr:  fmt.Errorf("port gone"),
	}
	store := &fakeStore{}
	sink := &fakeSink{}

	err := newLoop(t, transport, store, sink).Run(context.Background())
	require.Error(t, err)

	require.Len(t, store.inserted, 2)
	require.Len(t, sink.appended, 2)
	assert.True(t, store.inserted[0].Timestamp.Before(store.inserted[1].Timestamp))
	assert.True(t, sink.appended[0].Timestamp.Before(sink.appended[1].Timestamp))

	// Rollover is checked once per cycle, before the exchange.
	assert.Equal(t, transport.sends, sink.rollovers)
}

func TestInsertFailureDoesNotSkipAppendOrHaltLoop(t *testing.T) {
	transport := &fakeTransport{
		responses: []string{
			"01/01/2024 10:00:00,21.5C,x,45.2%,x,22.0C,x,46.0%",
			"01/01/2024 10:00:10,21.6C,x,45.3%,x,22.1C,x,46.1%",
		},
		finalErr: fmt.Errorf("port gone"),
	}
	store := &fakeStore{failNext: 1}
	sink := &fakeSink{}

	err := newLoop(t, transport, store, sink).Run(context.Background())
	require.Error(t, err)

	// The failed insert cost the database row only: both file appends
	// happened and the second cycle still ran.
	assert.Len(t, sink.appended, 2)
	require.Len(t, store.inserted, 1)
	assert.True(t, store.inserted[0].Timestamp.Equal(time.Date(2024, 1, 1, 10, 0, 10, 0, time.UTC)))
}

func TestEmptyResponseIsNotAnError(t *testing.T) {
	transport := &fakeTransport{
		responses: []string{""},
		finalErr:  fmt.Errorf("port gone"),
	}
	store := &fakeStore{}
	sink := &fakeSink{}

	err := newLoop(t, transport, store, sink).Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, 2, transport.sends)
	assert.Empty(t, store.inserted)
	assert.Empty(t, sink.appended)
}

func TestContextCancelStopsCleanly(t *testing.T) {
	transport := &fakeTransport{}
	store := &fakeStore{}
	sink := &fakeSink{}
	loop := newLoop(t, transport, store, sink)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- loop.Run(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after cancellation")
	}

	assert.Equal(t, 1, transport.closes)
	assert.Equal(t, 1, store.closes)
	assert.Equal(t, 1, sink.closes)
}
