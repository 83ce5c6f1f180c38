package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"creditocr/internal/admission"
	"creditocr/internal/domain"
	"creditocr/internal/extraction"
)

// FileField is the multipart field carrying the document.
const FileField = "file"

// ExtractionHandler handles document OCR endpoints.
type ExtractionHandler struct {
	service   extraction.ExtractionService
	assembler *Assembler
	maxBytes  int64
}

// NewExtractionHandler creates a new ExtractionHandler. maxBytes is the
// admission size limit; the handler reads one byte past it so oversize parts
// are detected without buffering them whole.
func NewExtractionHandler(service extraction.ExtractionService, assembler *Assembler, maxBytes int64) *ExtractionHandler {
	if maxBytes <= 0 {
		maxBytes = admission.DefaultMaxSizeBytes
	}
	return &ExtractionHandler{service: service, assembler: assembler, maxBytes: maxBytes}
}

// Extract handles POST /ocr and POST /api/v1/ocr
func (h *ExtractionHandler) Extract(c *gin.Context) {
	in, err := h.readUpload(c.Request)
	if err != nil {
		h.assembler.Error(c, err)
		return
	}

	result, err := h.service.Extract(c.Request.Context(), in)
	if err != nil {
		h.assembler.Error(c, err)
		return
	}
	h.assembler.Result(c, result)
}

// readUpload streams the multipart body and returns the first "file" part.
func (h *ExtractionHandler) readUpload(r *http.Request) (admission.Input, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return admission.Input{}, fmt.Errorf("%w: %v", domain.ErrMissingFile, err)
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return admission.Input{}, domain.ErrMissingFile
		}
		if err != nil {
			return admission.Input{}, fmt.Errorf("%w: reading multipart body: %v", domain.ErrMissingFile, err)
		}
		if part.FormName() != FileField {
			_ = part.Close()
			continue
		}

		data, err := io.ReadAll(io.LimitReader(part, h.maxBytes+1))
		_ = part.Close()
		if err != nil {
			return admission.Input{}, fmt.Errorf("%w: reading upload: %v", domain.ErrMissingFile, err)
		}
		return admission.Input{
			Bytes:        data,
			MediaType:    part.Header.Get("Content-Type"),
			OriginalName: part.FileName(),
		}, nil
	}
}
