package admission

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"creditocr/internal/domain"
)

func init() {
	// Page counting must not create a pdfcpu config directory in $HOME.
	api.DisableConfigDir()
}

// DefaultMaxSizeBytes is the upload limit used when none is configured.
const DefaultMaxSizeBytes int64 = 5 * 1024 * 1024

// Policy is the process-wide admission configuration. It is read-only after
// startup.
type Policy struct {
	AllowedMediaTypes []string
	MaxSizeBytes      int64
	// PDFOnly narrows the allow-list to PDF for deployments whose upstream
	// cannot convert Word documents.
	PDFOnly bool
	// MaxPages rejects PDFs with more pages. Zero disables the check.
	MaxPages int
}

// DefaultPolicy admits PDF and Word documents up to 5 MiB.
func DefaultPolicy() Policy {
	return Policy{
		AllowedMediaTypes: domain.DefaultAllowedMediaTypes,
		MaxSizeBytes:      DefaultMaxSizeBytes,
	}
}

// Allows reports whether mediaType passes the allow-list.
func (p Policy) Allows(mediaType string) bool {
	mt := domain.NormalizeMediaType(mediaType)
	if p.PDFOnly && mt != domain.MediaTypePDF {
		return false
	}
	for _, allowed := range p.AllowedMediaTypes {
		if domain.NormalizeMediaType(allowed) == mt {
			return true
		}
	}
	return false
}

// Input is an inbound document before admission.
type Input struct {
	Bytes        []byte
	MediaType    string
	DeclaredSize int64
	OriginalName string
}

// Admitter validates inbound documents against a Policy. It touches no
// external service and no filesystem.
type Admitter struct {
	policy Policy
	log    *slog.Logger
}

// NewAdmitter creates an Admitter. A nil logger uses slog.Default().
func NewAdmitter(policy Policy, log *slog.Logger) *Admitter {
	if policy.MaxSizeBytes <= 0 {
		policy.MaxSizeBytes = DefaultMaxSizeBytes
	}
	if len(policy.AllowedMediaTypes) == 0 {
		policy.AllowedMediaTypes = domain.DefaultAllowedMediaTypes
	}
	if log == nil {
		log = slog.Default()
	}
	return &Admitter{policy: policy, log: log}
}

// Policy returns the effective policy.
func (a *Admitter) Policy() Policy {
	return a.policy
}

// Admit applies the admission rules in order: presence, media type, size,
// then the optional PDF page limit.
func (a *Admitter) Admit(in Input) (*domain.UploadedDocument, error) {
	if len(in.Bytes) == 0 {
		return nil, domain.ErrMissingFile
	}

	mediaType := domain.NormalizeMediaType(in.MediaType)
	if !a.policy.Allows(mediaType) {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedMediaType, in.MediaType)
	}

	size := int64(len(in.Bytes))
	if size > a.policy.MaxSizeBytes || in.DeclaredSize > a.policy.MaxSizeBytes {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", domain.ErrPayloadTooLarge, max(size, in.DeclaredSize), a.policy.MaxSizeBytes)
	}

	doc := &domain.UploadedDocument{
		Bytes:        in.Bytes,
		MediaType:    mediaType,
		SizeBytes:    size,
		OriginalName: in.OriginalName,
	}

	if mediaType == domain.MediaTypePDF {
		pages, err := api.PageCount(bytes.NewReader(in.Bytes), nil)
		if err != nil {
			// The upstream model decides readability; a structurally odd PDF
			// is still worth sending.
			a.log.Warn("admission.page_count_failed", "name", in.OriginalName, "error", err)
		} else {
			doc.PageCount = pages
			if a.policy.MaxPages > 0 && pages > a.policy.MaxPages {
				return nil, fmt.Errorf("%w: %d pages (max %d)", domain.ErrTooManyPages, pages, a.policy.MaxPages)
			}
		}
	}

	return doc, nil
}
