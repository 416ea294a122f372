package service

import (
	"errors"
	"fmt"

	"sheetstand/internal/storage"
)

var (
	// ErrNotFound is returned when a referenced sheet, setlist or
	// membership does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a sheet is already a member of the
	// target setlist.
	ErrConflict = errors.New("conflict")
)

// ValidationError represents malformed or missing input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// StorageError wraps a store-level failure (I/O error, transaction abort).
// The core never retries these; retry policy belongs to the caller.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error in %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// mapStoreErr translates errors coming back from the store into the service
// taxonomy. Service errors produced inside mutate callbacks pass through
// unchanged; storage.ErrNotFound keeps its message (it may name the
// offending sheet id) while gaining the service sentinel; anything else is
// a StorageError.
func mapStoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
		return err
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return err
	}
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%v: %w", err, ErrNotFound)
	}
	return &StorageError{Op: op, Err: err}
}
