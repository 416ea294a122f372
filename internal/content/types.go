// Package content stores the uploaded document bytes behind a small
// driver-selectable interface. Sheet metadata (title, size, kind) lives in
// the relational store; this package only ever sees opaque keys.
package content

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_store.go -package=mocks sheetstand/internal/content Store

import (
	"context"
	"errors"
	"io"
)

// Driver identifies a concrete content storage backend.
type Driver string

const (
	// DriverFilesystem stores documents under a local directory (default).
	DriverFilesystem Driver = "fs"
	// DriverS3 stores documents in an S3 / MinIO compatible bucket.
	DriverS3 Driver = "s3"
	// DriverMemory keeps documents in process memory (tests).
	DriverMemory Driver = "memory"
)

// Info describes a stored document.
type Info struct {
	Key       string
	SizeBytes int64
}

// ErrNotFound is returned when no document exists under a key.
var ErrNotFound = errors.New("content not found")

// Store reads and writes document bytes by key.
type Store interface {
	// Put writes the document under key. Keys are write-once; writing an
	// existing key is an error.
	Put(ctx context.Context, key string, r io.Reader) (Info, error)
	// Open returns the document for streaming. The caller closes the reader.
	Open(ctx context.Context, key string) (Info, io.ReadCloser, error)
	// Delete removes the document. Deleting a missing key returns ErrNotFound.
	Delete(ctx context.Context, key string) error
	Driver() Driver
}
