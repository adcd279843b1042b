package acquisition

import "codeberg.org/mutker/dewkd/internal/errors"

const (
	ErrInvalidInterval = errors.ErrorCode("acquisition_invalid_interval")
	ErrMissingSink     = errors.ErrorCode("acquisition_missing_sink")
)
