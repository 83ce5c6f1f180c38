package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"creditocr/internal/admission"
	"creditocr/internal/domain"
	"creditocr/internal/logging"
	"creditocr/internal/port"
	"creditocr/internal/schema"
)

const defaultReleaseTimeout = 10 * time.Second

// Options configures the pipeline. It is read-only after NewService.
type Options struct {
	AttachmentMode domain.AttachmentMode
	// Timeout bounds registration and invocation separately.
	Timeout        time.Duration
	ReleaseTimeout time.Duration
}

// ExtractionService runs one document through the extraction pipeline.
type ExtractionService interface {
	// Extract returns a result for every document the upstream answered,
	// usable or not. Errors are admission, registration or upstream failures.
	Extract(ctx context.Context, in admission.Input) (*domain.ExtractionResult, error)
	Schema() *schema.Schema
}

type extractionService struct {
	admitter  *admission.Admitter
	schema    *schema.Schema
	builder   *Builder
	invoker   port.ModelInvoker
	registrar port.DocumentRegistrar
	opts      Options
	log       *slog.Logger
}

// NewService wires the pipeline. registrar may be nil in inline mode.
func NewService(
	admitter *admission.Admitter,
	s *schema.Schema,
	invoker port.ModelInvoker,
	registrar port.DocumentRegistrar,
	opts Options,
	log *slog.Logger,
) (ExtractionService, error) {
	if admitter == nil || s == nil || invoker == nil {
		return nil, fmt.Errorf("extraction service requires an admitter, a schema and an invoker")
	}
	if opts.AttachmentMode == "" {
		opts.AttachmentMode = domain.AttachmentInline
	}
	if !opts.AttachmentMode.Valid() {
		return nil, fmt.Errorf("unknown attachment mode: %s", opts.AttachmentMode)
	}
	if opts.AttachmentMode == domain.AttachmentReference {
		if registrar == nil {
			return nil, fmt.Errorf("reference attachment mode requires a document registrar")
		}
		if kind := registrar.ReferenceKind(); !invoker.SupportsReference(kind) {
			return nil, fmt.Errorf("upstream invoker cannot cite %s references", kind)
		}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.ReleaseTimeout <= 0 {
		opts.ReleaseTimeout = defaultReleaseTimeout
	}
	if log == nil {
		log = slog.Default()
	}

	return &extractionService{
		admitter:  admitter,
		schema:    s,
		builder:   NewBuilder(s),
		invoker:   invoker,
		registrar: registrar,
		opts:      opts,
		log:       log,
	}, nil
}

func (s *extractionService) Schema() *schema.Schema {
	return s.schema
}

func (s *extractionService) Extract(ctx context.Context, in admission.Input) (*domain.ExtractionResult, error) {
	log := s.log.With("request_id", logging.RequestID(ctx))

	doc, err := s.admitter.Admit(in)
	if err != nil {
		if domain.IsAdmissionError(err) {
			log.Info("extraction.rejected", "reason", err.Error())
		} else {
			log.Error("extraction.admission.failed", "error", err)
		}
		return nil, err
	}
	log.Info("extraction.admitted",
		"media_type", doc.MediaType,
		"size_bytes", doc.SizeBytes,
		"pages", doc.PageCount,
		"mode", s.opts.AttachmentMode,
	)

	var reg *domain.Registration
	if s.opts.AttachmentMode == domain.AttachmentReference {
		reg, err = s.register(ctx, doc)
		if err != nil {
			log.Warn("extraction.register.failed", "error", err)
			return nil, err
		}
		defer s.release(ctx, reg, log)
	}

	req, err := s.builder.Build(doc, reg)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := s.invoke(ctx, req)
	if err != nil {
		log.Warn("extraction.invoke.failed", "error", err, "duration", time.Since(start))
		return nil, err
	}

	result := Interpret(raw, s.schema)
	if result.Failure != nil {
		log.Warn("extraction.output_unusable",
			"kind", result.Failure.Kind,
			"raw_bytes", len(raw),
			"duration", time.Since(start),
		)
	} else {
		log.Info("extraction.completed", "duration", time.Since(start))
	}
	return result, nil
}

func (s *extractionService) register(ctx context.Context, doc *domain.UploadedDocument) (*domain.Registration, error) {
	rctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	reg, err := s.registrar.Register(rctx, doc)
	if err != nil {
		if errors.Is(rctx.Err(), context.DeadlineExceeded) && !errors.Is(err, domain.ErrUpstreamUnavailable) {
			err = fmt.Errorf("%w: timed out after %s: %w", domain.ErrUpstreamUnavailable, s.opts.Timeout, err)
		}
		if !errors.Is(err, domain.ErrRegistrationFailed) {
			err = fmt.Errorf("%w: %w", domain.ErrRegistrationFailed, err)
		}
		return nil, err
	}
	return reg, nil
}

func (s *extractionService) invoke(ctx context.Context, req *domain.ExtractionRequest) (string, error) {
	ictx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	raw, err := s.invoker.Invoke(ictx, req)
	if err != nil {
		if errors.Is(ictx.Err(), context.DeadlineExceeded) && !errors.Is(err, domain.ErrUpstreamUnavailable) {
			err = fmt.Errorf("%w: timed out after %s: %w", domain.ErrUpstreamUnavailable, s.opts.Timeout, err)
		}
		return "", err
	}
	return raw, nil
}

// release runs on every exit path after a successful registration. It uses a
// fresh deadline so a cancelled request still cleans up.
func (s *extractionService) release(ctx context.Context, reg *domain.Registration, log *slog.Logger) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ReleaseTimeout)
	defer cancel()

	if err := s.registrar.Release(rctx, reg); err != nil {
		log.Warn("extraction.release.failed", "registrar", reg.Registrar, "handle", reg.Handle, "error", err)
	}
}
