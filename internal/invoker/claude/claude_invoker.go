package claude

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
	providerName   = "claude"
	defaultBaseURL = "https://api.anthropic.com/v1"
	defaultModel   = "claude-sonnet-4-20250514"
	apiVersion     = "2023-06-01"
)

func init() {
	invoker.RegisterProvider(providerName, func(cfg *invoker.ProviderConfig) (port.ModelInvoker, error) {
		return NewInvoker(cfg), nil
	})
}

// Invoker implements port.ModelInvoker using the Anthropic Messages API.
type Invoker struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	log      *slog.Logger
}

// NewInvoker creates a Claude-backed invoker from a provider config.
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
		endpoint: strings.TrimRight(base, "/") + "/messages",
		client:   &http.Client{Timeout: cfg.TimeoutOrDefault()},
		log:      cfg.LoggerOrDefault(),
	}
}

// SupportsReference reports that document blocks can point at a URL.
func (p *Invoker) SupportsReference(k domain.ReferenceKind) bool {
	return k == domain.ReferenceURL
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
		"model":      p.model,
		"max_tokens": 4096,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": contentBlocks,
			},
		},
	}

	respBody, err := invoker.PostJSON(ctx, p.client, providerName, p.endpoint, map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": apiVersion,
	}, reqBody)
	if err != nil {
		return "", err
	}

	return p.parseResponse(respBody)
}

func buildContentBlocks(req *domain.ExtractionRequest) ([]map[string]interface{}, error) {
	att := req.Attachment
	var source map[string]interface{}

	switch {
	case att.Inline != "":
		mediaType, payload, err := invoker.SplitDataURI(att.Inline)
		if err != nil {
			return nil, err
		}
		source = map[string]interface{}{
			"type":       "base64",
			"media_type": mediaType,
			"data":       payload,
		}
	case att.ReferenceKind == domain.ReferenceURL:
		source = map[string]interface{}{
			"type": "url",
			"url":  att.Reference,
		}
	default:
		return nil, invoker.Rejected(providerName, "unsupported attachment reference kind: %q", att.ReferenceKind)
	}

	return []map[string]interface{}{
		{"type": "document", "source": source},
		{"type": "text", "text": req.Instructions},
	}, nil
}

// apiResponse models the Anthropic Messages API response.
type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func (p *Invoker) parseResponse(body []byte) (string, error) {
	var resp apiResponse
	if err := invoker.DecodeEnvelope(providerName, body, &resp); err != nil {
		return "", err
	}

	if len(resp.Content) == 0 {
		return "", invoker.Unavailable(providerName, errors.New("empty response from API"))
	}

	if resp.StopReason == "max_tokens" {
		p.log.Warn("invoker.claude.output_truncated", "stop_reason", resp.StopReason)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}
