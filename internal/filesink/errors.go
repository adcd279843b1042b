package filesink

import "codeberg.org/mutker/dewkd/internal/errors"

const (
	// All file sink errors are recoverable at the acquisition loop: the
	// reading for that cycle is still in the database even when the
	// file write failed.
	ErrSinkClosed   = errors.ErrorCode("filesink_not_open")
	ErrRotateFailed = errors.ErrorCode("filesink_rotate_failed")
	ErrWriteFailed  = errors.ErrorCode("filesink_write_failed")
	ErrCloseFailed  = errors.ErrorCode("filesink_close_failed")
)
