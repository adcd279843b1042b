package instrument

import (
	"bytes"
	"io"
	"strings"
	"time"

	"codeberg.org/mutker/dewkd/internal/errors"
	"codeberg.org/mutker/dewkd/internal/logger"
	serial "github.com/tarm/goserial"
)

// ReadRecordsCommand asks the instrument to dump all buffered records.
const ReadRecordsCommand = "DATa:RECord:READ?"

const (
	lineTerminator = "\r\n"
	readChunkSize  = 512
)

// Transport owns the serial connection to the instrument and exposes a
// single command/response primitive.
type Transport struct {
	port   io.ReadWriteCloser
	settle time.Duration
}

// OpenTransport opens the serial device. Failure here is fatal to the
// caller: the port is not expected to become available later, so there
// is no automatic retry.
func OpenTransport(device string, baud int, readTimeout, settle time.Duration) (*Transport, error) {
	errFactory := errors.New()

	sc := &serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: readTimeout,
	}

	port, err := serial.OpenPort(sc)
	if err != nil {
		return nil, errFactory.Wrap(ErrPortOpen, err)
	}

	logger.Info().Str("device", device).Int("baud", baud).Msg("Serial port open")

	return &Transport{
		port:   port,
		settle: settle,
	}, nil
}

// Send writes cmd followed by the line terminator, waits the settle
// delay for the instrument to fill its response buffer (the protocol
// has no response terminator, so settle-then-drain is the contract),
// then drains and decodes everything available. An empty string means
// the read timed out with no data this cycle; that is not an error.
func (t *Transport) Send(cmd string) (string, error) {
	errFactory := errors.New()

	if t.port == nil {
		return "", errFactory.New(ErrPortNotOpen)
	}

	if _, err := t.port.Write([]byte(cmd + lineTerminator)); err != nil {
		return "", errFactory.Wrap(ErrPortWrite, err)
	}

	time.Sleep(t.settle)

	var buf bytes.Buffer
	chunk := make([]byte, readChunkSize)
	for {
		n, err := t.port.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
		}
		if err == io.EOF || n == 0 {
			break
		}
		if err != nil {
			return "", errFactory.Wrap(ErrPortRead, err)
		}
	}

	response := strings.TrimSpace(buf.String())
	logger.Debug().Str("command", cmd).Int("response_bytes", len(response)).Msg("Command exchanged")

	return response, nil
}

// Close releases the serial port. Safe to call more than once.
func (t *Transport) Close() error {
	if t.port == nil {
		return nil
	}

	err := t.port.Close()
	t.port = nil
	if err != nil {
		errFactory := errors.New()
		return errFactory.Wrap(ErrPortClose, err)
	}

	return nil
}
