// Package transport defines the composable request pipeline of the generation
// client: a Handler interface, function adapters, middleware chaining, and the
// core HTTP handler that delegates wire formats to provider adapters.
package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	llmerrors "github.com/ahrav/go-instructgen/internal/llm/errors"
)

// Router selects the adapter for a provider.
type Router interface {
	Pick(provider string) (ProviderAdapter, error)
}

// ProviderAdapter translates between Request/Response and one backend's HTTP API.
type ProviderAdapter interface {
	// Build constructs the HTTP request. ctx carries the per-attempt timeout.
	Build(ctx context.Context, req *Request) (*http.Request, error)

	// Parse turns an HTTP response into a Response. Status >= 400, undecodable
	// bodies and missing response fields must be reported as *errors.ProviderError.
	Parse(httpResp *http.Response) (*Response, error)

	// Name returns the canonical provider identifier.
	Name() string
}

// Handler processes generation requests through a composable middleware pipeline.
type Handler interface {
	Handle(ctx context.Context, req *Request) (*Response, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, *Request) (*Response, error)

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Middleware transforms a Handler into an enhanced Handler.
type Middleware func(Handler) Handler

// Chain builds a middleware pipeline around a core handler.
// The first middleware is outermost.
func Chain(h Handler, middlewares ...Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// NewHTTPHandler creates the core handler that performs one HTTP round trip per call.
func NewHTTPHandler(client *http.Client, router Router) Handler {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpHandler{client: client, router: router}
}

type httpHandler struct {
	client *http.Client
	router Router
}

// Handle performs exactly one backend request, bounded by req.Timeout.
func (h *httpHandler) Handle(ctx context.Context, req *Request) (*Response, error) {
	if req.Prompt == "" {
		return nil, llmerrors.ErrEmptyPrompt
	}

	adapter, err := h.router.Pick(req.Provider)
	if err != nil {
		return nil, fmt.Errorf("failed to select provider: %w", err)
	}

	reqCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := adapter.Build(reqCtx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	start := time.Now()
	httpResp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, llmerrors.NewTransportError(adapter.Name(), err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	// Parse reads the body under reqCtx, so a stalled body also hits the timeout.
	resp, err := adapter.Parse(httpResp)
	if err != nil {
		return nil, err
	}

	resp.Latency = time.Since(start)
	resp.StatusCode = httpResp.StatusCode
	return resp, nil
}
