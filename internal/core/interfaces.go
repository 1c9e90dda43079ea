package core

import "context"

// Provider defines the uniform chat capability of an LLM backend.
// Implementations hold a wire-level client for one provider kind and no
// conversation state; the full message history is passed on every call.
type Provider interface {
	// ChatCompletion executes a chat completion request
	ChatCompletion(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}
