package openai

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"creditocr/internal/domain"
	"creditocr/internal/invoker"
	"creditocr/internal/port"
)

const (
	providerName   = "openai"
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
)

func init() {
	invoker.RegisterProvider(providerName, func(cfg *invoker.ProviderConfig) (port.ModelInvoker, error) {
		return NewInvoker(cfg), nil
	})
}

// Invoker implements port.ModelInvoker using the OpenAI Chat Completions API.
type Invoker struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	log      *slog.Logger
}

// NewInvoker creates an OpenAI-backed invoker from a provider config.
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
		endpoint: strings.TrimRight(base, "/") + "/chat/completions",
		client:   &http.Client{Timeout: cfg.TimeoutOrDefault()},
		log:      cfg.LoggerOrDefault(),
	}
}

// Model returns the model name sent upstream.
func (p *Invoker) Model() string {
	return p.model
}

// SupportsReference reports that Chat Completions can cite uploaded file IDs.
func (p *Invoker) SupportsReference(k domain.ReferenceKind) bool {
	return k == domain.ReferenceFileID
}

func (p *Invoker) Invoke(ctx context.Context, req *domain.ExtractionRequest) (string, error) {
	if err := req.Attachment.Validate(); err != nil {
		return "", err
	}

	contentBlocks, err := buildContentBlocks(req)
	if err != nil {
		return "", err
	}

	reqBody := map[string]interface{}{
		"model":                 p.model,
		"max_completion_tokens": 4096,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": contentBlocks,
			},
		},
		"response_format": map[string]interface{}{
			"type": "json_object",
		},
	}

	respBody, err := invoker.PostJSON(ctx, p.client, providerName, p.endpoint,
		map[string]string{"Authorization": "Bearer " + p.apiKey}, reqBody)
	if err != nil {
		return "", err
	}

	return p.parseResponse(respBody)
}

func buildContentBlocks(req *domain.ExtractionRequest) ([]map[string]interface{}, error) {
	att := req.Attachment
	file := map[string]interface{}{}

	switch {
	case att.Inline != "":
		file["filename"] = att.Filename
		file["file_data"] = att.Inline
	case att.ReferenceKind == domain.ReferenceFileID:
		file["file_id"] = att.Reference
	default:
		return nil, invoker.Rejected(providerName, "unsupported attachment reference kind: %q", att.ReferenceKind)
	}

	return []map[string]interface{}{
		{"type": "file", "file": file},
		{"type": "text", "text": req.Instructions},
	}, nil
}

// apiResponse models the OpenAI Chat Completions API response.
type apiResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
			Refusal *string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (p *Invoker) parseResponse(body []byte) (string, error) {
	var resp apiResponse
	if err := invoker.DecodeEnvelope(providerName, body, &resp); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", invoker.Unavailable(providerName, errors.New("no choices in response"))
	}

	choice := resp.Choices[0]
	if choice.FinishReason == "length" {
		p.log.Warn("invoker.openai.output_truncated", "finish_reason", choice.FinishReason)
	}
	switch {
	case choice.Message.Content != nil:
		return *choice.Message.Content, nil
	case choice.Message.Refusal != nil:
		// A refusal is the model's answer; the interpreter classifies it.
		return *choice.Message.Refusal, nil
	default:
		return "", nil
	}
}
