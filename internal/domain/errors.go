package domain

import "errors"

// Admission errors. Client-caused; the external service is never called.
var (
	ErrMissingFile          = errors.New("no file uploaded")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrPayloadTooLarge      = errors.New("file exceeds maximum allowed size")
	ErrTooManyPages         = errors.New("document exceeds maximum page count")
)

// Upstream errors. Raised by registration and invocation adapters.
var (
	ErrRegistrationFailed  = errors.New("document registration with upstream failed")
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
	ErrUpstreamRejected    = errors.New("upstream service rejected the request")
)

// ErrInvalidAttachment marks an ExtractionRequest that carries both or neither
// attachment forms. It is a programming error and maps to an internal failure.
var ErrInvalidAttachment = errors.New("attachment must be either inline or by reference")

// IsAdmissionError reports whether err was produced by document admission.
func IsAdmissionError(err error) bool {
	return errors.Is(err, ErrMissingFile) ||
		errors.Is(err, ErrUnsupportedMediaType) ||
		errors.Is(err, ErrPayloadTooLarge) ||
		errors.Is(err, ErrTooManyPages)
}

// IsRetryable reports whether the caller may retry the whole request unchanged.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable) || errors.Is(err, ErrRegistrationFailed)
}
