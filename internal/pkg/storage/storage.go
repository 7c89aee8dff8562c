package storage

import (
	"context"
	"io"
)

// Storage abstracts the object store holding product images
type Storage interface {
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}
