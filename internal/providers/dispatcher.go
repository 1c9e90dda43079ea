package providers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"chathub/internal/core"
	"chathub/internal/metrics"
)

// Request knobs sent on every chat completion. Both backends accept the
// OpenAI chat completions shape.
const (
	defaultMaxTokens   = 2000
	defaultTemperature = 0.7
)

// placeholderContent is returned when a provider reports success but
// yields no text. Degrading to a fixed string rather than failing keeps
// the exchange recorded; the assistant message just carries no answer.
const placeholderContent = "No response generated"

// Dispatcher routes a chat call to the client backing the requested model,
// measures latency, and normalizes the result. It holds no conversation
// state between calls; the caller passes the full message history each time.
type Dispatcher struct {
	registry *Registry
	clients  map[Kind]core.Provider
	metrics  *metrics.Metrics
}

// NewDispatcher creates a dispatcher over the given registry with no
// clients attached. Clients registered after startup are not supported;
// the dispatcher is treated as immutable once the process is serving.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		clients:  make(map[Kind]core.Provider),
	}
}

// RegisterClient binds a provider client to a provider kind.
func (d *Dispatcher) RegisterClient(kind Kind, client core.Provider) {
	d.clients[kind] = client
}

// SetMetrics attaches a metrics collector for provider call instrumentation.
func (d *Dispatcher) SetMetrics(m *metrics.Metrics) {
	d.metrics = m
}

// Registry returns the model registry backing this dispatcher.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Available reports whether a client is configured for the given kind.
func (d *Dispatcher) Available(kind Kind) bool {
	_, ok := d.clients[kind]
	return ok
}

// Chat resolves the model, invokes the backing client with the full message
// history, and returns the generated text with the measured latency in
// milliseconds. Failures are never retried here.
func (d *Dispatcher) Chat(ctx context.Context, model string, history []core.Message) (*core.ChatResult, error) {
	cfg, err := d.registry.Resolve(model)
	if err != nil {
		return nil, err
	}

	client, ok := d.clients[cfg.Kind]
	if !ok {
		return nil, core.NewProviderUnavailableError(string(cfg.Kind))
	}

	maxTokens := defaultMaxTokens
	temperature := defaultTemperature
	req := &core.ChatRequest{
		Model:       cfg.WireModel,
		Messages:    history,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	}

	start := time.Now()
	resp, err := client.ChatCompletion(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		d.observe(model, cfg.Kind, elapsed, false)
		slog.Warn("provider call failed",
			"model", model,
			"provider", cfg.Kind,
			"error", err,
		)
		var svcErr *core.ServiceError
		if errors.As(err, &svcErr) {
			return nil, err
		}
		return nil, core.NewProviderError(string(cfg.Kind), err.Error(), err)
	}

	d.observe(model, cfg.Kind, elapsed, true)

	content := resp.FirstContent()
	if content == "" {
		content = placeholderContent
	}

	return &core.ChatResult{
		Content:        content,
		ResponseTimeMs: elapsed.Milliseconds(),
	}, nil
}

// ValidateKeyFormat checks the shape of a candidate API key for the
// provider backing the given model. Unknown models validate as false.
func (d *Dispatcher) ValidateKeyFormat(model, key string) bool {
	return d.registry.ValidateKeyFormat(model, key)
}

func (d *Dispatcher) observe(model string, kind Kind, elapsed time.Duration, success bool) {
	if d.metrics == nil {
		return
	}
	d.metrics.ObserveProviderCall(model, string(kind), elapsed, success)
}
