package instrument

import "codeberg.org/mutker/dewkd/internal/errors"

const (
	// Transport errors. These are fatal: a missing or permission-denied
	// port does not self-heal within the process lifetime.
	ErrPortOpen    = errors.ErrorCode("instrument_port_open_failed")
	ErrPortNotOpen = errors.ErrorCode("instrument_port_not_open")
	ErrPortWrite   = errors.ErrorCode("instrument_port_write_failed")
	ErrPortRead    = errors.ErrorCode("instrument_port_read_failed")
	ErrPortClose   = errors.ErrorCode("instrument_port_close_failed")

	// Record errors. These are per-line recoverable: the offending line
	// is skipped and its siblings are still parsed.
	ErrShortRecord  = errors.ErrorCode("instrument_short_record")
	ErrBadTimestamp = errors.ErrorCode("instrument_bad_timestamp")
	ErrBadValue     = errors.ErrorCode("instrument_bad_value")
)
