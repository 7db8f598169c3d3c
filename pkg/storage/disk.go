// Package storage is the filesystem abstraction product images are written
// through.
//
// Two drivers are available:
//   - "local": a directory on the local filesystem
//   - "s3":    S3-compatible object storage (AWS S3, MinIO, R2, Spaces)
//
//	disk, err := storage.New(storage.Options{Driver: "local", Root: "static/product_images", BaseURL: "/media"})
//	err = disk.Put(ctx, "ab12cd34ef56ab78.jpg", r, "image/jpeg")
//	url := disk.URL("ab12cd34ef56ab78.jpg")
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNotFound is returned by Get when path does not exist.
var ErrNotFound = errors.New("storage: file not found")

// Disk is the driver interface.
type Disk interface {
	// Put writes r to path, replacing any existing file.
	Put(ctx context.Context, path string, r io.Reader, contentType string) error
	// Get opens path for reading. The caller closes it.
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	// Exists reports whether path exists.
	Exists(ctx context.Context, path string) bool
	// Delete removes path. A missing file is not an error.
	Delete(ctx context.Context, path string) error
	// URL returns the public URL of path.
	URL(path string) string
}

// Options selects and configures a driver.
type Options struct {
	Driver  string // "local" (default) or "s3"
	Root    string // local root directory
	BaseURL string // public URL prefix

	S3Bucket   string
	S3Region   string
	S3Endpoint string // empty for real AWS
	S3Key      string
	S3Secret   string
}

// New builds the disk named by opts.Driver.
func New(ctx context.Context, opts Options) (Disk, error) {
	switch strings.ToLower(opts.Driver) {
	case "", "local":
		return NewLocal(opts.Root, opts.BaseURL)
	case "s3":
		return NewS3(ctx, opts)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q (supported: local, s3)", opts.Driver)
	}
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
