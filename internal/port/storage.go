package port

import (
	"context"
	"io"
)

// PutObjectInput describes an object to stage in storage.
type PutObjectInput struct {
	Key         string
	Body        io.Reader
	ContentType string
	Size        int64
}

// ObjectStorage stages documents in a bucket so the upstream can fetch them
// through a short-lived URL.
type ObjectStorage interface {
	Put(ctx context.Context, input PutObjectInput) error
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, expirySeconds int64) (string, error)
}
