// Package metadata persists per-file records describing catalogued uploads.
package metadata

import (
	"context"
	"time"
)

// Error codes returned by metadata stores.
const (
	// CodeRecordNotFound is returned by GetByID when no record exists.
	CodeRecordNotFound = "RECORD_NOT_FOUND"

	// CodeDuplicateID is returned by Insert on a file id collision.
	// Ids come from a strong random source, so this is not expected
	// to occur in practice.
	CodeDuplicateID = "DUPLICATE_FILE_ID"
)

// FileRecord describes one successfully catalogued file. Records are
// immutable once inserted.
type FileRecord struct {
	// ID is the public handle clients use to download the file.
	ID string `bson:"file_id"`

	// Filename is the original client-supplied name. Display only;
	// never used as a storage key.
	Filename string `bson:"filename"`

	// ContentType is the MIME type derived from the filename extension.
	ContentType string `bson:"content_type"`

	// Size is the byte length of the stored blob at write time.
	Size int64 `bson:"size"`

	// StorageKey addresses the blob inside the blob store. Distinct
	// from ID so backend key naming stays decoupled from public ids.
	StorageKey string `bson:"storage_key"`

	// UploadedAt is set by the catalog at insert time.
	UploadedAt time.Time `bson:"uploaded_at"`
}

// Store is the contract for metadata persistence.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Insert persists a new record. A colliding id yields an error with
	// code CodeDuplicateID.
	Insert(ctx context.Context, rec *FileRecord) error

	// GetByID returns the record for the given file id, or an error with
	// code CodeRecordNotFound.
	GetByID(ctx context.Context, id string) (*FileRecord, error)

	// ListAll returns every record, newest upload first.
	ListAll(ctx context.Context) ([]*FileRecord, error)

	// Ping reports whether the backing database is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}
