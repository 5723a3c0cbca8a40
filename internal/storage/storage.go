package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Package storage contains the blob store abstraction for photo payloads
// and index documents. Implementations rely on streaming I/O only; no
// local disk is used.

// ErrNotFound is returned by Get for keys that do not exist. Callers use
// it to distinguish an absent index document (a valid, empty partition)
// from a real storage failure.
var ErrNotFound = errors.New("object not found")

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1
// and the implementation will buffer/chunk as supported by the backend.
// CacheControl is set on originals and thumbnails, which never change
// under a given id.
type PutObjectOptions struct {
	Size         int64
	ContentType  string
	CacheControl string
	Metadata     map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is the blob store adapter. Objects are addressed by
// caller-chosen opaque keys; Put to an existing key overwrites silently.
// Photo refs are freshly generated per upload so overwrite is never
// relied upon, except for the index document, which is intentionally
// replaced whole on every mutation.
type Storage interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	// Missing keys yield ErrNotFound.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// ListDirs returns the top-level key prefixes, without trailing slash.
	// Partition discovery lists these and filters by the naming scheme.
	ListDirs(ctx context.Context) ([]string, error)
	// PresignGet returns a time-limited URL that can be used to download the object without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
