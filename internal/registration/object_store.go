package registration

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/google/uuid"

	"creditocr/internal/domain"
	"creditocr/internal/invoker"
	"creditocr/internal/port"
)

// NameObjectStore identifies the object storage registrar.
const NameObjectStore = "object_store"

// ObjectStore stages documents in a bucket and cites them by presigned URL.
type ObjectStore struct {
	storage       port.ObjectStorage
	presignExpiry int64
	log           *slog.Logger
}

// NewObjectStore creates an object storage registrar. presignExpiry is in seconds.
func NewObjectStore(storage port.ObjectStorage, presignExpiry int64, log *slog.Logger) *ObjectStore {
	if presignExpiry <= 0 {
		presignExpiry = 900
	}
	if log == nil {
		log = slog.Default()
	}
	return &ObjectStore{storage: storage, presignExpiry: presignExpiry, log: log}
}

// Register uploads doc under staging/<uuid>/<name> and returns a presigned GET URL.
func (r *ObjectStore) Register(ctx context.Context, doc *domain.UploadedDocument) (*domain.Registration, error) {
	key := path.Join("staging", uuid.NewString(), safeName(doc.Filename()))

	if err := r.storage.Put(ctx, port.PutObjectInput{
		Key:         key,
		Body:        bytes.NewReader(doc.Bytes),
		ContentType: doc.MediaType,
		Size:        int64(len(doc.Bytes)),
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRegistrationFailed, invoker.Unavailable(NameObjectStore, err))
	}

	url, err := r.storage.PresignGet(ctx, key, r.presignExpiry)
	if err != nil {
		if delErr := r.storage.Delete(ctx, key); delErr != nil {
			r.log.Warn("registration.cleanup_failed", "registrar", NameObjectStore, "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrRegistrationFailed, invoker.Unavailable(NameObjectStore, err))
	}

	r.log.Info("registration.registered", "registrar", NameObjectStore, "key", key, "size_bytes", doc.SizeBytes)
	return &domain.Registration{
		Reference: url,
		Kind:      domain.ReferenceURL,
		Registrar: NameObjectStore,
		Handle:    key,
	}, nil
}

// ReferenceKind reports that registrations are cited by URL.
func (r *ObjectStore) ReferenceKind() domain.ReferenceKind {
	return domain.ReferenceURL
}

// Release deletes the staged object.
func (r *ObjectStore) Release(ctx context.Context, reg *domain.Registration) error {
	return r.storage.Delete(ctx, reg.Handle)
}
