package extraction

import (
	"encoding/base64"
	"fmt"

	"creditocr/internal/domain"
	"creditocr/internal/schema"
)

// Builder turns an admitted document into an ExtractionRequest. The
// instructions depend only on the schema and are rendered once.
type Builder struct {
	instructions string
}

// NewBuilder creates a Builder for schema s.
func NewBuilder(s *schema.Schema) *Builder {
	return &Builder{instructions: BuildInstructions(s)}
}

// Build attaches doc inline when reg is nil and by reference otherwise.
func (b *Builder) Build(doc *domain.UploadedDocument, reg *domain.Registration) (*domain.ExtractionRequest, error) {
	att := domain.Attachment{
		MediaType: doc.MediaType,
		Filename:  doc.Filename(),
	}

	if reg == nil {
		att.Mode = domain.AttachmentInline
		att.Inline = DataURI(doc.MediaType, doc.Bytes)
	} else {
		att.Mode = domain.AttachmentReference
		att.Reference = reg.Reference
		att.ReferenceKind = reg.Kind
	}

	if err := att.Validate(); err != nil {
		return nil, fmt.Errorf("building extraction request: %w", err)
	}
	return &domain.ExtractionRequest{
		Instructions: b.instructions,
		Attachment:   att,
	}, nil
}

// DataURI encodes content as "data:<mediaType>;base64,<payload>".
func DataURI(mediaType string, content []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(content)
}
