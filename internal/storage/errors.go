package storage

import "codeberg.org/mutker/dewkd/internal/errors"

const (
	// Configuration errors
	ErrInvalidConfig = errors.ErrorCode("storage_invalid_config")
	ErrInvalidDriver = errors.ErrorCode("storage_invalid_driver")

	// Lifecycle errors
	ErrStorageInit  = errors.ErrorCode("storage_init_failed")
	ErrStorageClose = errors.ErrorCode("storage_close_failed")
	ErrSchemaInit   = errors.ErrorCode("storage_schema_init_failed")

	// Access errors. Recoverable at the acquisition loop: the insert is
	// rolled back, logged, and polling continues.
	ErrStorageAccess = errors.ErrorCode("storage_access_failed")
)
