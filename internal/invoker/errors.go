package invoker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"creditocr/internal/domain"
)

// UpstreamError is a classified failure from an upstream provider. Class is
// domain.ErrUpstreamUnavailable or domain.ErrUpstreamRejected.
type UpstreamError struct {
	Provider   string
	StatusCode int // 0 for transport failures
	Class      error
	RetryAfter time.Duration
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %v (status %d): %v", e.Provider, e.Class, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Provider, e.Class, e.Err)
}

// Unwrap exposes both the class sentinel and the underlying cause.
func (e *UpstreamError) Unwrap() []error {
	return []error{e.Class, e.Err}
}

// Unavailable wraps err as a transient upstream failure.
func Unavailable(provider string, err error) *UpstreamError {
	return &UpstreamError{Provider: provider, Class: domain.ErrUpstreamUnavailable, Err: err}
}

// Rejected builds a non-retryable upstream failure.
func Rejected(provider, format string, args ...any) *UpstreamError {
	return &UpstreamError{Provider: provider, Class: domain.ErrUpstreamRejected, Err: fmt.Errorf(format, args...)}
}

// ClassifyStatus maps a non-2xx HTTP response. 408, 429 and 5xx are transient;
// other 4xx mean the request itself was refused.
func ClassifyStatus(provider string, status int, body []byte, header http.Header) *UpstreamError {
	e := &UpstreamError{
		Provider:   provider,
		StatusCode: status,
		Err:        fmt.Errorf("%s API error: %s", provider, truncate(string(body), 500)),
	}
	switch {
	case status == http.StatusTooManyRequests:
		e.Class = domain.ErrUpstreamUnavailable
		secs := ParseRetryAfterHeader(header.Get("Retry-After"))
		if secs <= 0 {
			secs = 60
		}
		e.RetryAfter = time.Duration(secs) * time.Second
	case status == http.StatusRequestTimeout, status >= 500:
		e.Class = domain.ErrUpstreamUnavailable
	default:
		e.Class = domain.ErrUpstreamRejected
	}
	return e
}

// ClassifyTransport maps an error from http.Client.Do or body reads. Every
// transport failure, including deadline expiry, is transient.
func ClassifyTransport(provider string, err error) *UpstreamError {
	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &ne) && ne.Timeout():
		return Unavailable(provider, fmt.Errorf("timed out: %w", err))
	default:
		return Unavailable(provider, err)
	}
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return secs
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
