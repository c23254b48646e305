// Package providers adapts the generation pipeline to concrete model backends.
package providers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ahrav/go-instructgen/internal/configuration"
	llmerrors "github.com/ahrav/go-instructgen/internal/llm/errors"
	"github.com/ahrav/go-instructgen/internal/llm/transport"
)

// Supported backend identifiers. They match configuration.Provider* values.
const (
	ProviderOllama = configuration.ProviderOllama
	ProviderOpenAI = configuration.ProviderOpenAI
)

// NewRouter creates a router holding one adapter per HTTP-level provider.
func NewRouter(adapters ...transport.ProviderAdapter) transport.Router {
	r := &router{adapters: make(map[string]transport.ProviderAdapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Name()] = a
	}
	return r
}

type router struct {
	adapters map[string]transport.ProviderAdapter
}

// Pick selects the adapter for provider.
func (r *router) Pick(provider string) (transport.ProviderAdapter, error) {
	adapter, ok := r.adapters[strings.ToLower(provider)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", llmerrors.ErrUnknownProvider, provider)
	}
	return adapter, nil
}

// NewCoreHandler returns the innermost handler for the configured backend.
// Ollama goes through the adapter-based HTTP handler; OpenAI-compatible
// backends go through the go-openai SDK.
func NewCoreHandler(cfg configuration.BackendConfig, httpClient *http.Client) (transport.Handler, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderOllama:
		return transport.NewHTTPHandler(httpClient, NewRouter(NewOllamaAdapter(cfg.URL))), nil
	case ProviderOpenAI:
		return NewOpenAIHandler(cfg, httpClient), nil
	default:
		return nil, fmt.Errorf("%w: %s", llmerrors.ErrUnknownProvider, cfg.Provider)
	}
}
