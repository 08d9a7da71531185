package storage

import (
	"context"
	"io"
	"time"
)

// ObjectStore is the subset of an object storage backend the portal relies on.
type ObjectStore interface {
	Bucket() string
	Put(ctx context.Context, path string, body io.Reader, contentType string) error
	Delete(ctx context.Context, path string) error
	SignedURL(ctx context.Context, path string, expires time.Duration) (string, error)
}
