package invoker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"creditocr/internal/domain"
)

// PostJSON sends body as JSON to url and returns the body of a 2xx reply.
// Transport and status failures come back as *UpstreamError.
func PostJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, body any) ([]byte, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, ClassifyTransport(provider, fmt.Errorf("calling %s API: %w", provider, err))
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ClassifyTransport(provider, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, ClassifyStatus(provider, resp.StatusCode, respBody, resp.Header)
	}
	return respBody, nil
}

// DecodeEnvelope unmarshals a provider's response envelope. A 2xx reply that
// does not decode means the service misbehaved, which is treated as transient.
func DecodeEnvelope(provider string, body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return Unavailable(provider, fmt.Errorf("unmarshaling response: %w", err))
	}
	return nil
}

// SplitDataURI splits a "data:<media type>;base64,<payload>" URI into its
// media type and base64 payload.
func SplitDataURI(uri string) (mediaType, payload string, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", "", fmt.Errorf("%w: inline content is not a data URI", domain.ErrInvalidAttachment)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", "", fmt.Errorf("%w: data URI has no payload", domain.ErrInvalidAttachment)
	}
	mediaType, ok = strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", "", fmt.Errorf("%w: data URI is not base64", domain.ErrInvalidAttachment)
	}
	return mediaType, payload, nil
}
