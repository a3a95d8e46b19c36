// Package storage resolves the blobs a product draft points at (product and
// variant images) and receives exported stock reports.
//
// Two drivers are available:
//   - "local"  local filesystem (default)
//   - "s3"     S3-compatible object storage (AWS S3, MinIO, R2, Spaces)
//
// Quick start:
//
//	disks := storage.FromConfig(ctx)
//	rc, err := disks.Open(ctx, "s3", "catalog/tee-red.jpg")
//	err = disks.Default().Put(ctx, "reports/2024-03.csv", data)
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned (wrapped) when a path does not exist on a disk.
var ErrNotFound = errors.New("storage: file not found")

// Disk is the filesystem driver interface. Every driver must implement this.
type Disk interface {
	// Put writes content to path, creating parent directories as needed.
	Put(ctx context.Context, path string, content []byte) error

	// PutStream writes from r to path.
	PutStream(ctx context.Context, path string, r io.Reader) error

	// Get returns the full content of the file at path.
	Get(ctx context.Context, path string) ([]byte, error)

	// Open returns a ReadCloser for the file. Caller must close it.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Exists reports whether a file exists at path.
	Exists(ctx context.Context, path string) bool

	// Size returns the byte size of the file.
	Size(ctx context.Context, path string) (int64, error)

	// Delete removes a file. Returns nil if the file did not exist.
	Delete(ctx context.Context, path string) error

	// URL returns the public URL for path.
	URL(path string) string
}
