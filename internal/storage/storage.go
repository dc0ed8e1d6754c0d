package storage

import (
	"context"
	"io"
)

// Storage is the blob store the pipeline reads and writes raw file bytes
// through. Keys are opaque to callers.
type Storage interface {
	Put(ctx context.Context, key string, data io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
