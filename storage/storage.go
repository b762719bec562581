package storage

import (
	"context"
	"io"
	"time"
)

// FileInfo contains metadata about a stored object.
type FileInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// Storage defines the object storage operations.
type Storage interface {
	// Upload writes data from reader to the given path.
	Upload(ctx context.Context, path string, reader io.Reader) error

	// Download returns a reader for the object at the given path.
	// The caller is responsible for closing the returned ReadCloser.
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the object at the given path.
	// Returns nil if the object does not exist.
	Delete(ctx context.Context, path string) error

	// Exists checks whether an object exists at the given path.
	Exists(ctx context.Context, path string) (bool, error)

	// URL returns a URL for accessing the object at the given path.
	URL(ctx context.Context, path string) (string, error)

	// List returns metadata for all objects whose path starts with prefix.
	List(ctx context.Context, prefix string) ([]FileInfo, error)
}

// SignedURLProvider is implemented by backends that can issue
// time-limited URLs for private objects.
type SignedURLProvider interface {
	SignedURL(ctx context.Context, path string, expiry time.Duration) (string, error)
}

// ResolveURL returns a signed URL when s supports it and a plain URL
// otherwise.
func ResolveURL(ctx context.Context, s Storage, path string, expiry time.Duration) (string, error) {
	if sp, ok := s.(SignedURLProvider); ok {
		return sp.SignedURL(ctx, path, expiry)
	}
	return s.URL(ctx, path)
}
