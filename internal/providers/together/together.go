// Package together provides Together AI integration for the chat service.
// Together exposes an OpenAI-compatible chat completions API.
package together

import (
	"context"
	"net/http"

	"chathub/internal/core"
	"chathub/internal/llmclient"
)

const defaultBaseURL = "https://api.together.xyz/v1"

// Provider implements the core.Provider interface for Together AI
type Provider struct {
	client *llmclient.Client
	apiKey string
}

// New creates a new Together provider.
func New(apiKey string) *Provider {
	p := &Provider{apiKey: apiKey}
	p.client = llmclient.New(llmclient.Config{
		ProviderName: "together",
		BaseURL:      defaultBaseURL,
	}, p.setHeaders)
	return p
}

// NewWithHTTPClient creates a new Together provider with a custom HTTP client.
// If httpClient is nil, http.DefaultClient is used.
func NewWithHTTPClient(apiKey string, httpClient *http.Client) *Provider {
	p := &Provider{apiKey: apiKey}
	p.client = llmclient.NewWithHTTPClient(httpClient, llmclient.Config{
		ProviderName: "together",
		BaseURL:      defaultBaseURL,
	}, p.setHeaders)
	return p
}

// SetBaseURL allows configuring a custom base URL for the provider
func (p *Provider) SetBaseURL(url string) {
	p.client.SetBaseURL(url)
}

// setHeaders sets the required headers for Together API requests
func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
}

// ChatCompletion sends a chat completion request to Together
func (p *Provider) ChatCompletion(ctx context.Context, req *core.ChatRequest) (*core.ChatResponse, error) {
	var resp core.ChatResponse
	err := p.client.Do(ctx, llmclient.Request{
		Method:   http.MethodPost,
		Endpoint: "/chat/completions",
		Body:     req,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Model == "" {
		resp.Model = req.Model
	}
	return &resp, nil
}
