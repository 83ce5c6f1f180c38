package domain

import "strings"

// Media types accepted for credit applications.
const (
	MediaTypePDF  = "application/pdf"
	MediaTypeDOC  = "application/msword"
	MediaTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// DefaultAllowedMediaTypes is the allow-list used when none is configured.
var DefaultAllowedMediaTypes = []string{MediaTypePDF, MediaTypeDOC, MediaTypeDOCX}

// mediaTypeExtensions maps media types to the filename extension sent upstream.
var mediaTypeExtensions = map[string]string{
	MediaTypePDF:  "pdf",
	MediaTypeDOC:  "doc",
	MediaTypeDOCX: "docx",
}

// NormalizeMediaType lower-cases a declared content type and strips parameters
// such as "; charset=binary".
func NormalizeMediaType(mediaType string) string {
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// ExtensionFor returns the file extension for a media type, or "bin".
func ExtensionFor(mediaType string) string {
	if ext, ok := mediaTypeExtensions[NormalizeMediaType(mediaType)]; ok {
		return ext
	}
	return "bin"
}

// AttachmentMode selects how document content reaches the upstream model.
type AttachmentMode string

const (
	AttachmentInline    AttachmentMode = "inline"
	AttachmentReference AttachmentMode = "reference"
)

// Valid reports whether m is a known attachment mode.
func (m AttachmentMode) Valid() bool {
	return m == AttachmentInline || m == AttachmentReference
}

// ReferenceKind describes what a registration token points at.
type ReferenceKind string

const (
	// ReferenceFileID is an identifier issued by the upstream's own file store.
	ReferenceFileID ReferenceKind = "file_id"
	// ReferenceURL is a URL the upstream fetches the document from.
	ReferenceURL ReferenceKind = "url"
)

// FailureKind classifies a response the upstream produced but which is unusable.
type FailureKind string

const (
	FailureNonJSONOutput  FailureKind = "NonJsonOutput"
	FailureSchemaMismatch FailureKind = "SchemaMismatch"
)
