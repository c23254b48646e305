package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	llmerrors "github.com/ahrav/go-instructgen/internal/llm/errors"
	"github.com/ahrav/go-instructgen/internal/llm/transport"
)

// maxResponseBytes caps how much of a backend body is read.
const maxResponseBytes = 8 << 20

// OllamaAdapter implements transport.ProviderAdapter for Ollama's
// non-streaming /api/generate endpoint.
type OllamaAdapter struct {
	endpoint string
}

// NewOllamaAdapter creates an adapter for the Ollama server at baseURL.
// A baseURL that already ends in /api/generate is used as is.
func NewOllamaAdapter(baseURL string) *OllamaAdapter {
	endpoint := strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(endpoint, "/api/generate") {
		endpoint += "/api/generate"
	}
	return &OllamaAdapter{endpoint: endpoint}
}

// Name returns the provider name.
func (a *OllamaAdapter) Name() string { return ProviderOllama }

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// ollamaResponse uses a pointer so a missing field is distinguishable from "".
type ollamaResponse struct {
	Response *string `json:"response"`
	Error    string  `json:"error,omitempty"`
}

// Build constructs a POST to /api/generate with streaming disabled.
func (a *OllamaAdapter) Build(ctx context.Context, req *transport.Request) (*http.Request, error) {
	body, err := json.Marshal(ollamaRequest{Model: req.Model, Prompt: req.Prompt, Stream: false})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if req.RequestID != "" {
		httpReq.Header.Set("X-Request-ID", req.RequestID)
	}
	return httpReq, nil
}

// Parse extracts the "response" field. A status >= 400, an undecodable body and
// a missing or empty field are all reported as transient provider errors.
func (a *OllamaAdapter) Parse(httpResp *http.Response) (*transport.Response, error) {
	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, llmerrors.NewTransportError(ProviderOllama, err)
	}

	if httpResp.StatusCode >= http.StatusBadRequest {
		return nil, llmerrors.NewStatusError(ProviderOllama, httpResp.StatusCode, parseOllamaError(body))
	}

	var resp ollamaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, llmerrors.NewInvalidResponseError(ProviderOllama, httpResp.StatusCode,
			fmt.Sprintf("decode body: %v", err))
	}
	if resp.Response == nil {
		reason := "missing response field"
		if resp.Error != "" {
			reason = resp.Error
		}
		return nil, llmerrors.NewInvalidResponseError(ProviderOllama, httpResp.StatusCode, reason)
	}
	if strings.TrimSpace(*resp.Response) == "" {
		return nil, llmerrors.NewInvalidResponseError(ProviderOllama, httpResp.StatusCode, "empty response field")
	}

	return &transport.Response{
		Content:           *resp.Response,
		ProviderRequestID: httpResp.Header.Get("X-Request-ID"),
	}, nil
}

// parseOllamaError returns the "error" message from an error body when present.
func parseOllamaError(body []byte) []byte {
	var errResp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return []byte(errResp.Error)
	}
	return body
}
