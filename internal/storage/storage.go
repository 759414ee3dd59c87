// Package storage provides object storage for catalog snapshots.
package storage

import (
	"context"
	"errors"
)

// Common errors for storage operations.
var (
	ErrObjectNotFound     = errors.New("object not found")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrUploadFailed       = errors.New("upload failed")
	ErrDownloadFailed     = errors.New("download failed")
	ErrDeleteFailed       = errors.New("delete failed")
)

// ObjectStorage abstracts the object store snapshots are written to.
// Implementations are S3 and the local filesystem.
type ObjectStorage interface {
	// Put stores data under key and returns the new ETag.
	Put(ctx context.Context, key string, data []byte) (string, error)

	// PutIfMatch stores data only if the current object's ETag equals etag.
	// An empty etag requires that the object does not exist yet.
	PutIfMatch(ctx context.Context, key string, data []byte, etag string) (string, error)

	// Get returns the object's content and ETag.
	Get(ctx context.Context, key string) ([]byte, string, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists in storage.
	Exists(ctx context.Context, key string) (bool, error)

	// List returns all keys under the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// New builds the ObjectStorage selected by storageType ("local" or "s3").
func New(ctx context.Context, storageType, localPath, bucket string, s3cfg S3Config) (ObjectStorage, error) {
	switch storageType {
	case "", "local":
		return NewLocalStorage(localPath)
	case "s3":
		return NewS3Storage(ctx, bucket, s3cfg)
	default:
		return nil, errors.New("unsupported storage type: " + storageType)
	}
}
