package prefs

import (
	"git.home.luguber.info/inful/partsd/internal/foundation/errors"
)

var (
	// ErrDatabaseOpenFailed indicates the SQLite database could not be opened.
	ErrDatabaseOpenFailed = errors.StorageError("could not open preferences database").Fatal().Build()

	// ErrInitializeSchemaFailed indicates the database schema could not be initialized.
	ErrInitializeSchemaFailed = errors.StorageError("failed to initialize preferences schema").Fatal().Build()

	// ErrReadFailed indicates a preference could not be read.
	ErrReadFailed = errors.StorageError("failed to read preference").Build()

	// ErrWriteFailed indicates a preference could not be written.
	ErrWriteFailed = errors.StorageError("failed to write preference").Build()

	// ErrKindMismatch indicates a key holds a value of a different kind.
	ErrKindMismatch = errors.StorageError("preference holds a different value kind").Build()
)
