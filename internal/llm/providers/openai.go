package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ahrav/go-instructgen/internal/configuration"
	llmerrors "github.com/ahrav/go-instructgen/internal/llm/errors"
	"github.com/ahrav/go-instructgen/internal/llm/transport"
)

// OpenAIHandler is a core transport.Handler backed by the go-openai SDK.
// It serves any OpenAI-compatible chat completions endpoint, including
// Ollama's /v1 compatibility layer.
type OpenAIHandler struct {
	client *openai.Client
}

// NewOpenAIHandler creates a handler for cfg. An empty URL uses the SDK default.
func NewOpenAIHandler(cfg configuration.BackendConfig, httpClient *http.Client) *OpenAIHandler {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.URL != "" {
		oc.BaseURL = strings.TrimRight(cfg.URL, "/")
	}
	if httpClient != nil {
		oc.HTTPClient = httpClient
	}
	return &OpenAIHandler{client: openai.NewClientWithConfig(oc)}
}

// Handle issues one chat completion with the prompt as the only user message.
func (h *OpenAIHandler) Handle(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	if req.Prompt == "" {
		return nil, llmerrors.ErrEmptyPrompt
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := h.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	})
	if err != nil {
		return nil, mapOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, llmerrors.NewInvalidResponseError(ProviderOpenAI, http.StatusOK, "no choices in completion")
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return nil, llmerrors.NewInvalidResponseError(ProviderOpenAI, http.StatusOK, "empty completion content")
	}

	return &transport.Response{
		Content:           content,
		StatusCode:        http.StatusOK,
		Latency:           time.Since(start),
		ProviderRequestID: resp.ID,
	}, nil
}

// mapOpenAIError converts SDK errors onto the provider error taxonomy.
func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		pe := llmerrors.NewStatusError(ProviderOpenAI, apiErr.HTTPStatusCode, []byte(apiErr.Message))
		pe.Cause = err
		return pe
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode >= http.StatusBadRequest {
			pe := llmerrors.NewStatusError(ProviderOpenAI, reqErr.HTTPStatusCode, []byte(reqErr.Error()))
			pe.Cause = err
			return pe
		}
		if reqErr.Err != nil {
			return llmerrors.NewTransportError(ProviderOpenAI, reqErr.Err)
		}
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	var providerErr *llmerrors.ProviderError
	if errors.As(err, &providerErr) {
		return err
	}

	// Decode failures and connection errors surface as plain errors from the SDK.
	if llmerrors.Classify(err) == llmerrors.ErrorTypeUnknown {
		return llmerrors.NewInvalidResponseError(ProviderOpenAI, 0, fmt.Sprintf("completion failed: %v", err))
	}
	return llmerrors.NewTransportError(ProviderOpenAI, err)
}
