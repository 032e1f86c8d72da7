// Package storage defines the Backend interface used for thumbnail
// objects and provides a factory over the configured backend type.
package storage

import (
	"context"
	"io"
)

// Backend is the interface for thumbnail object storage. Implementations
// handle raw object I/O (local filesystem, S3-compatible stores).
type Backend interface {
	// GetObject retrieves an object by key along with its size.
	GetObject(ctx context.Context, key string) (io.ReadCloser, int64, error)

	// PutObject uploads content to the given key.
	PutObject(ctx context.Context, key string, body io.Reader, size int64) error

	// DeleteObject removes an object by key. Missing objects are not an
	// error.
	DeleteObject(ctx context.Context, key string) error

	// ObjectExists checks if an object exists at the given key.
	ObjectExists(ctx context.Context, key string) (bool, error)

	// Type returns the backend type identifier ("local", "s3").
	Type() string

	// Close releases any resources held by the backend.
	Close() error
}
