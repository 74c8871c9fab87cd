// Package catalog orchestrates file uploads, listing and downloads across
// the blob store and the metadata store.
//
// The catalog owns the consistency contract between the two stores: a
// metadata record is only written after its blob is durably stored, so every
// record that exists points at a readable blob. The inverse does not hold; a
// metadata write that fails after a successful blob write leaves an orphaned
// blob behind (see Upload).
package catalog

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/code19m/errx"
	"github.com/google/uuid"

	"filedrop/internal/blob"
	"filedrop/internal/metadata"
)

// Error codes returned by catalog operations.
const (
	// CodeUnsupportedType rejects filenames outside the allowed extensions.
	CodeUnsupportedType = "UNSUPPORTED_FILE_TYPE"

	// CodeTooLarge rejects uploads whose declared size exceeds the maximum.
	CodeTooLarge = "FILE_TOO_LARGE"

	// CodeStorageWriteFailed reports a blob write failure. No metadata
	// record exists for the failed upload.
	CodeStorageWriteFailed = "STORAGE_WRITE_FAILED"

	// CodeMetadataWriteFailed reports a metadata write failure after the
	// blob was already stored. The blob is orphaned; the error details
	// carry the orphaned storage key.
	CodeMetadataWriteFailed = "METADATA_WRITE_FAILED"

	// CodeFileNotFound reports a download for an id with no record.
	CodeFileNotFound = "FILE_NOT_FOUND"

	// CodeBlobMissing reports a record whose blob is gone. Distinct from
	// CodeFileNotFound so operators can tell storage-layer data loss from
	// a file that never existed.
	CodeBlobMissing = "BLOB_MISSING"
)

// Catalog coordinates the blob store and the metadata store.
type Catalog struct {
	blobs       blob.Store
	records     metadata.Store
	maxFileSize int64
}

// New creates a Catalog. maxFileSize caps accepted uploads in bytes.
func New(blobs blob.Store, records metadata.Store, maxFileSize int64) *Catalog {
	return &Catalog{
		blobs:       blobs,
		records:     records,
		maxFileSize: maxFileSize,
	}
}

// Upload validates the file, stores its content, then records its metadata.
//
// The two writes are strictly ordered: the blob must be durable before the
// metadata insert begins. On a metadata failure the already-written blob is
// not deleted; the upload fails with CodeMetadataWriteFailed and the orphaned
// key is reported in the error details for out-of-band reconciliation.
//
// The returned record carries the byte count actually written, not the
// caller-declared size.
func (c *Catalog) Upload(ctx context.Context, filename string, declaredSize int64, content io.Reader) (*metadata.FileRecord, error) {
	if err := ValidateUpload(filename, declaredSize, c.maxFileSize); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	key := newStorageKey(filename)
	contentType := contentTypeFor(filename)

	written, err := c.blobs.Put(ctx, key, content, declaredSize, contentType)
	if err != nil {
		return nil, errx.New(
			"failed to store file content",
			errx.WithCode(CodeStorageWriteFailed),
			errx.WithType(errx.T_Internal),
			errx.WithDetails(errx.D{"error": err, "storage_key": key}),
		)
	}

	rec := &metadata.FileRecord{
		ID:          id,
		Filename:    filename,
		ContentType: contentType,
		Size:        written,
		StorageKey:  key,
		UploadedAt:  time.Now().UTC(),
	}

	if err := c.records.Insert(ctx, rec); err != nil {
		return nil, errx.New(
			"failed to record file metadata",
			errx.WithCode(CodeMetadataWriteFailed),
			errx.WithType(errx.T_Internal),
			errx.WithDetails(errx.D{"error": err, "orphaned_key": key}),
		)
	}

	return rec, nil
}

// List returns every catalogued record, newest upload first. Listing is
// metadata-only; blob presence is not verified per item.
func (c *Catalog) List(ctx context.Context) ([]*metadata.FileRecord, error) {
	records, err := c.records.ListAll(ctx)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return records, nil
}

// Download resolves the record for id and opens a stream over its blob.
// The caller must close the returned stream.
func (c *Catalog) Download(ctx context.Context, id string) (*metadata.FileRecord, io.ReadCloser, error) {
	rec, err := c.records.GetByID(ctx, id)
	if err != nil {
		if errx.IsCodeIn(err, metadata.CodeRecordNotFound) {
			return nil, nil, errx.New(
				"file not found",
				errx.WithCode(CodeFileNotFound),
				errx.WithType(errx.T_NotFound),
				errx.WithDetails(errx.D{"file_id": id}),
			)
		}
		return nil, nil, errx.Wrap(err)
	}

	content, err := c.blobs.Get(ctx, rec.StorageKey)
	if err != nil {
		if errx.IsCodeIn(err, blob.CodeBlobNotFound) {
			return nil, nil, errx.New(
				"content missing for catalogued file",
				errx.WithCode(CodeBlobMissing),
				errx.WithType(errx.T_Internal),
				errx.WithDetails(errx.D{"file_id": id, "storage_key": rec.StorageKey}),
			)
		}
		return nil, nil, errx.Wrap(err)
	}

	return rec, content, nil
}

// ComponentHealth reports the reachability of one dependency.
type ComponentHealth struct {
	Healthy bool
	Err     error
}

// Health pings both stores independently.
func (c *Catalog) Health(ctx context.Context) map[string]ComponentHealth {
	storageErr := c.blobs.Ping(ctx)
	metadataErr := c.records.Ping(ctx)

	return map[string]ComponentHealth{
		"storage": {Healthy: storageErr == nil, Err: storageErr},
		"mongodb": {Healthy: metadataErr == nil, Err: metadataErr},
	}
}

// newStorageKey derives a backend key for a new blob. The key is generated
// independently of the public file id; the extension is kept as a suffix so
// stored objects stay recognizable by type.
func newStorageKey(filename string) string {
	return uuid.New().String() + strings.ToLower(filepath.Ext(filename))
}
