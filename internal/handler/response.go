package handler

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"creditocr/internal/domain"
	"creditocr/internal/invoker"
)

// DefaultRawLimit bounds the raw model output echoed back on interpreter failures.
const DefaultRawLimit = 8192

// Outcome code reported for usable results.
const CodeOK = "OK"

// ErrorBody is the JSON body of every non-success response.
type ErrorBody struct {
	Error        string             `json:"error"`
	Code         string             `json:"code"`
	Details      string             `json:"details,omitempty"`
	Kind         domain.FailureKind `json:"kind,omitempty"`
	Raw          *string            `json:"raw,omitempty"`
	RawTruncated bool               `json:"raw_truncated,omitempty"`
}

// OutcomeRecorder counts pipeline outcomes by code.
type OutcomeRecorder interface {
	RecordOutcome(outcome string)
}

// Assembler turns pipeline results and errors into HTTP responses.
type Assembler struct {
	rawLimit    int
	showDetails bool
	outcomes    OutcomeRecorder
	log         *slog.Logger
}

// AssemblerOptions configures an Assembler.
type AssemblerOptions struct {
	RawLimit int
	// Production withholds error details from response bodies.
	Production bool
	Outcomes   OutcomeRecorder
}

// NewAssembler creates an Assembler. A nil logger uses slog.Default().
func NewAssembler(opts AssemblerOptions, log *slog.Logger) *Assembler {
	if opts.RawLimit <= 0 {
		opts.RawLimit = DefaultRawLimit
	}
	if log == nil {
		log = slog.Default()
	}
	return &Assembler{
		rawLimit:    opts.RawLimit,
		showDetails: !opts.Production,
		outcomes:    opts.Outcomes,
		log:         log,
	}
}

// MapDomainError translates pipeline errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrMissingFile):
		return http.StatusBadRequest, "MISSING_FILE", "No file uploaded"
	case errors.Is(err, domain.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "Unsupported file type; allowed: PDF, DOC, DOCX"
	case errors.Is(err, domain.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "File exceeds maximum allowed size"
	case errors.Is(err, domain.ErrTooManyPages):
		return http.StatusUnprocessableEntity, "TOO_MANY_PAGES", "Document exceeds maximum page count"
	case errors.Is(err, domain.ErrRegistrationFailed):
		return http.StatusServiceUnavailable, "REGISTRATION_FAILED", "Document upload to OCR service failed; try again"
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "OCR service unavailable; try again"
	case errors.Is(err, domain.ErrUpstreamRejected):
		return http.StatusBadGateway, "UPSTREAM_REJECTED", "OCR service rejected the document"
	default:
		return http.StatusInternalServerError, "INTERNAL_FAILURE", "OCR processing failed"
	}
}

// Error maps err and sends the matching response.
func (a *Assembler) Error(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	log := a.log.With("request_id", c.GetString("request_id"))
	if status >= 500 {
		log.Error("handler.request_failed", "status", status, "code", code, "retryable", domain.IsRetryable(err), "error", err)
	} else {
		log.Info("handler.request_rejected", "status", status, "code", code, "error", err)
	}

	var upstream *invoker.UpstreamError
	if errors.As(err, &upstream) && upstream.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(upstream.RetryAfter.Seconds()))))
	}

	body := ErrorBody{Error: msg, Code: code}
	if a.showDetails {
		body.Details = err.Error()
	}
	a.record(code)
	c.JSON(status, body)
}

// Result sends a pipeline result. Unusable model output is still a 200: the
// upstream answered and the caller gets the raw text to inspect.
func (a *Assembler) Result(c *gin.Context, result *domain.ExtractionResult) {
	if result == nil {
		a.Error(c, errors.New("pipeline returned no result"))
		return
	}
	if result.Failure == nil {
		a.record(CodeOK)
		c.JSON(http.StatusOK, result.Fields)
		return
	}

	code := failureCode(result.Failure.Kind)
	raw, truncated := truncateRaw(result.Failure.Raw, a.rawLimit)
	a.record(code)
	c.JSON(http.StatusOK, ErrorBody{
		Error:        result.Failure.Message,
		Code:         code,
		Kind:         result.Failure.Kind,
		Raw:          &raw,
		RawTruncated: truncated,
	})
}

func (a *Assembler) record(code string) {
	if a.outcomes != nil {
		a.outcomes.RecordOutcome(code)
	}
}

func failureCode(kind domain.FailureKind) string {
	switch kind {
	case domain.FailureNonJSONOutput:
		return "NON_JSON_OUTPUT"
	case domain.FailureSchemaMismatch:
		return "SCHEMA_MISMATCH"
	default:
		return "INTERNAL_FAILURE"
	}
}

// truncateRaw cuts s to at most limit bytes without splitting a UTF-8 sequence.
func truncateRaw(s string, limit int) (string, bool) {
	if len(s) <= limit {
		return s, false
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut], true
}
