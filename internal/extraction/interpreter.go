package extraction

import (
	"encoding/json"
	"strings"

	"creditocr/internal/domain"
	"creditocr/internal/schema"
)

// Diagnostic messages for unusable model output.
const (
	MessageNonJSONOutput  = "OCR returned non-JSON output"
	MessageSchemaMismatch = "OCR output did not match the expected schema"
)

// Interpret converts raw model output into a result of guaranteed shape. It
// never returns an error: unusable output becomes a Failure carrying raw
// verbatim. Output wrapped in prose or markdown fences is not repaired.
func Interpret(raw string, s *schema.Schema) *domain.ExtractionResult {
	var decoded any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &decoded); err != nil {
		return failure(domain.FailureNonJSONOutput, MessageNonJSONOutput, raw)
	}

	obj, ok := decoded.(map[string]any)
	if !ok {
		return failure(domain.FailureSchemaMismatch, MessageSchemaMismatch, raw)
	}
	if err := s.Validate(obj); err != nil {
		return failure(domain.FailureSchemaMismatch, MessageSchemaMismatch, raw)
	}

	return &domain.ExtractionResult{Fields: s.Backfill(obj)}
}

func failure(kind domain.FailureKind, message, raw string) *domain.ExtractionResult {
	return &domain.ExtractionResult{
		Failure: &domain.Failure{Kind: kind, Message: message, Raw: raw},
	}
}
