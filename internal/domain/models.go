package domain

import "reflect"

// UploadedDocument is an admitted document. It is owned by a single pipeline
// invocation and never persisted.
type UploadedDocument struct {
	Bytes        []byte
	MediaType    string
	SizeBytes    int64
	OriginalName string // advisory only
	PageCount    int    // 0 when not inspected
}

// Filename returns a name safe to send upstream, falling back to a generic
// name with the extension for the media type.
func (d *UploadedDocument) Filename() string {
	if d.OriginalName != "" {
		return d.OriginalName
	}
	return "document." + ExtensionFor(d.MediaType)
}

// Registration is the result of registering a document with the upstream
// before invocation in by-reference mode.
type Registration struct {
	Reference string
	Kind      ReferenceKind
	Registrar string
	// Handle identifies the registered resource for release (file ID, object key).
	Handle string
}

// Attachment carries the document content of an ExtractionRequest. Exactly
// one of Inline and Reference is set.
type Attachment struct {
	Mode      AttachmentMode
	MediaType string
	Filename  string

	// Inline is a "data:<media type>;base64,<payload>" URI.
	Inline string

	Reference     string
	ReferenceKind ReferenceKind
}

// Validate enforces the single-delivery-mode invariant.
func (a Attachment) Validate() error {
	hasInline := a.Inline != ""
	hasRef := a.Reference != ""
	if hasInline == hasRef {
		return ErrInvalidAttachment
	}
	if a.Mode == AttachmentInline && !hasInline {
		return ErrInvalidAttachment
	}
	if a.Mode == AttachmentReference && !hasRef {
		return ErrInvalidAttachment
	}
	return nil
}

// ExtractionRequest is what the invocation adapter sends to the upstream model.
type ExtractionRequest struct {
	Instructions string
	Attachment   Attachment
}

// Failure describes an upstream answer that could not be used.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
	Raw     string      `json:"raw"`
}

// ExtractionResult is either a success carrying Fields or a Failure.
type ExtractionResult struct {
	Fields  map[string]any
	Failure *Failure
}

// Succeeded reports whether the result carries fields.
func (r *ExtractionResult) Succeeded() bool {
	return r != nil && r.Failure == nil
}

// Equal compares two results structurally.
func (r *ExtractionResult) Equal(other *ExtractionResult) bool {
	return reflect.DeepEqual(r, other)
}
