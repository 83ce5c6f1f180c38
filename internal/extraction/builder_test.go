package extraction_test

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditocr/internal/domain"
	"creditocr/internal/extraction"
	"creditocr/internal/schema"
)

func TestBuildInstructions_SingleField(t *testing.T) {
	prompt := extraction.BuildInstructions(schema.LegalBusinessName)

	assert.True(t, strings.HasPrefix(prompt, "Extract ONLY the Legal Business Name from this credit application."))
	assert.Contains(t, prompt, "{\n  \"legal_business_name\": \"\"\n}")
	assert.Contains(t, prompt, "Return ONLY the JSON object.")
	assert.Contains(t, prompt, "no code fences")
	assert.Contains(t, prompt, "use an empty string")
	assert.Contains(t, prompt, "phone numbers")
}

func TestBuildInstructions_FullSchema(t *testing.T) {
	prompt := extraction.BuildInstructions(schema.CreditApplication)

	assert.Contains(t, prompt, "Extract the business details below")
	assert.Contains(t, prompt, schema.CreditApplication.TemplateJSON())
	assert.Contains(t, prompt, `"trade_references" is a list`)
}

func TestBuilder_Build_Inline(t *testing.T) {
	content := []byte("%PDF-1.4 credit application")
	doc := &domain.UploadedDocument{
		Bytes:        content,
		MediaType:    domain.MediaTypePDF,
		SizeBytes:    int64(len(content)),
		OriginalName: "application.pdf",
	}

	req, err := extraction.NewBuilder(schema.LegalBusinessName).Build(doc, nil)

	require.NoError(t, err)
	assert.Equal(t, domain.AttachmentInline, req.Attachment.Mode)
	assert.Empty(t, req.Attachment.Reference)
	assert.Equal(t, "application.pdf", req.Attachment.Filename)
	assert.Equal(t, extraction.BuildInstructions(schema.LegalBusinessName), req.Instructions)

	prefix := "data:application/pdf;base64,"
	require.True(t, strings.HasPrefix(req.Attachment.Inline, prefix))
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(req.Attachment.Inline, prefix))
	require.NoError(t, err)
	assert.Equal(t, content, decoded)
}

func TestBuilder_Build_Reference(t *testing.T) {
	doc := &domain.UploadedDocument{Bytes: []byte("x"), MediaType: domain.MediaTypeDOCX, SizeBytes: 1}
	reg := &domain.Registration{Reference: "file-abc123", Kind: domain.ReferenceFileID, Registrar: "openai_files", Handle: "file-abc123"}

	req, err := extraction.NewBuilder(schema.LegalBusinessName).Build(doc, reg)

	require.NoError(t, err)
	assert.Equal(t, domain.AttachmentReference, req.Attachment.Mode)
	assert.Empty(t, req.Attachment.Inline)
	assert.Equal(t, "file-abc123", req.Attachment.Reference)
	assert.Equal(t, domain.ReferenceFileID, req.Attachment.ReferenceKind)
	assert.Equal(t, "document.docx", req.Attachment.Filename)
}

func TestBuilder_Build_EmptyReference(t *testing.T) {
	doc := &domain.UploadedDocument{Bytes: []byte("x"), MediaType: domain.MediaTypePDF, SizeBytes: 1}

	_, err := extraction.NewBuilder(schema.LegalBusinessName).Build(doc, &domain.Registration{})

	assert.ErrorIs(t, err, domain.ErrInvalidAttachment)
}

func TestDataURI(t *testing.T) {
	assert.Equal(t, "data:application/msword;base64,aGk=", extraction.DataURI(domain.MediaTypeDOC, []byte("hi")))
}
