package storage

import (
	"bytes"
	"context"
	"io"
)

// PutBytes stores data at path.
func PutBytes(ctx context.Context, s Storage, path string, data []byte) error {
	return s.Upload(ctx, path, bytes.NewReader(data))
}

// GetBytes reads the whole object at path.
func GetBytes(ctx context.Context, s Storage, path string) ([]byte, error) {
	rc, err := s.Download(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
