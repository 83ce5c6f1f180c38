package invoker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"creditocr/internal/domain"
	"creditocr/internal/port"
)

// FallbackInvoker tries invokers in order and returns the first success. It
// keeps no state between calls. Only inline attachments are portable across
// providers, so it is used in inline mode only.
type FallbackInvoker struct {
	invokers []port.ModelInvoker
	names    []string
	log      *slog.Logger
}

// NewFallbackInvoker creates a FallbackInvoker from an ordered list of invokers and their names.
func NewFallbackInvoker(invokers []port.ModelInvoker, names []string, log *slog.Logger) *FallbackInvoker {
	if log == nil {
		log = slog.Default()
	}
	return &FallbackInvoker{invokers: invokers, names: names, log: log}
}

func (f *FallbackInvoker) Invoke(ctx context.Context, req *domain.ExtractionRequest) (string, error) {
	var lastErr error
	for i, inv := range f.invokers {
		if err := ctx.Err(); err != nil {
			// The shared deadline is spent; later providers would fail the same way.
			if lastErr == nil {
				lastErr = ClassifyTransport(f.names[i], err)
			}
			break
		}

		out, err := inv.Invoke(ctx, req)
		if err == nil {
			return out, nil
		}

		f.log.Warn("invoker.fallback.provider_failed", "provider", f.names[i], "error", err)
		lastErr = err

		if !errors.Is(err, domain.ErrUpstreamUnavailable) && !errors.Is(err, domain.ErrUpstreamRejected) {
			// Not an upstream answer: a local defect that every provider would hit.
			return "", err
		}
	}
	if lastErr == nil {
		return "", fmt.Errorf("no upstream providers configured")
	}
	return "", fmt.Errorf("all upstream providers failed: %w", lastErr)
}

// SupportsReference is true only if every provider can cite the reference.
func (f *FallbackInvoker) SupportsReference(k domain.ReferenceKind) bool {
	for _, inv := range f.invokers {
		if !inv.SupportsReference(k) {
			return false
		}
	}
	return len(f.invokers) > 0
}
