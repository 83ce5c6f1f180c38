package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"creditocr/internal/domain"
	"creditocr/internal/invoker"
	"creditocr/internal/port"
)

const (
	providerName   = "gemini"
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultModel   = "gemini-2.0-flash"
)

func init() {
	invoker.RegisterProvider(providerName, func(cfg *invoker.ProviderConfig) (port.ModelInvoker, error) {
		return NewInvoker(cfg), nil
	})
}

// Invoker implements port.ModelInvoker using Google's Gemini API.
type Invoker struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	log      *slog.Logger
}

// NewInvoker creates a Gemini-backed invoker.
func NewInvoker(cfg *invoker.ProviderConfig) *Invoker {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Invoker{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: fmt.Sprintf("%s/%s:generateContent", strings.TrimRight(base, "/"), model),
		client:   &http.Client{Timeout: cfg.TimeoutOrDefault()},
		log:      cfg.LoggerOrDefault(),
	}
}

// SupportsReference is always false; documents go inline.
func (p *Invoker) SupportsReference(domain.ReferenceKind) bool {
	return false
}

func (p *Invoker) Invoke(ctx context.Context, req *domain.ExtractionRequest) (string, error) {
	if err := req.Attachment.Validate(); err != nil {
		return "", err
	}
	if req.Attachment.Inline == "" {
		return "", invoker.Rejected(providerName, "document references are not supported")
	}

	mimeType, payload, err := invoker.SplitDataURI(req.Attachment.Inline)
	if err != nil {
		return "", err
	}

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role": "user",
				"parts": []map[string]interface{}{
					{
						"inline_data": map[string]interface{}{
							"mime_type": mimeType,
							"data":      payload,
						},
					},
					{
						"text": req.Instructions,
					},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
			"maxOutputTokens":  4096,
		},
	}

	respBody, err := invoker.PostJSON(ctx, p.client, providerName, p.endpoint,
		map[string]string{"x-goog-api-key": p.apiKey}, reqBody)
	if err != nil {
		return "", err
	}

	return p.parseResponse(respBody)
}

// geminiResponse models the Gemini API response.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func (p *Invoker) parseResponse(body []byte) (string, error) {
	var resp geminiResponse
	if err := invoker.DecodeEnvelope(providerName, body, &resp); err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 {
		return "", invoker.Unavailable(providerName, errors.New("empty response from API: no candidates"))
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == "MAX_TOKENS" {
		p.log.Warn("invoker.gemini.output_truncated", "finish_reason", candidate.FinishReason)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}
