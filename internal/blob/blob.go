// Package blob provides uniform access to file content storage.
//
// Blobs are addressed by an opaque key chosen by the caller. Two backends
// implement the same contract: MinIO object storage and the local filesystem.
// Neither backend knows anything about file metadata.
package blob

import (
	"context"
	"io"
)

// Error codes returned by blob stores.
const (
	// CodeBlobNotFound is returned by Get when no blob exists under the key.
	CodeBlobNotFound = "BLOB_NOT_FOUND"
)

// Store is the capability contract shared by all blob backends.
//
// Implementations must be safe for concurrent use. A Put that returns nil
// guarantees a subsequent Get with the same key returns byte-identical
// content.
type Store interface {
	// Put streams the content of r to storage under key and returns the
	// number of bytes written. size is the expected content length, or -1
	// when unknown.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (int64, error)

	// Get returns a streaming reader over the blob stored under key.
	// The caller must close the returned reader. A key that was never
	// written yields an error with code CodeBlobNotFound.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the blob stored under key. Deleting a missing key
	// is not an error.
	Delete(ctx context.Context, key string) error

	// Ping reports whether the backend is reachable and usable.
	Ping(ctx context.Context) error
}
