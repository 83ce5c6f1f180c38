package port

import (
	"context"

	"creditocr/internal/domain"
)

// ModelInvoker abstracts the external document-understanding model. It returns
// the service's raw text output verbatim and performs no JSON parsing.
//
// Errors wrap domain.ErrUpstreamUnavailable (transient, retryable) or
// domain.ErrUpstreamRejected (the request itself was refused).
type ModelInvoker interface {
	Invoke(ctx context.Context, req *domain.ExtractionRequest) (string, error)
	// SupportsReference reports whether the invoker can cite a registration of kind k.
	SupportsReference(k domain.ReferenceKind) bool
}

// DocumentRegistrar registers a document with the upstream ahead of
// invocation in by-reference mode.
type DocumentRegistrar interface {
	Register(ctx context.Context, doc *domain.UploadedDocument) (*domain.Registration, error)
	// ReferenceKind is the kind of reference Register produces.
	ReferenceKind() domain.ReferenceKind
	// Release removes the registered resource. It is called once per
	// successful Register on every exit path.
	Release(ctx context.Context, reg *domain.Registration) error
}
