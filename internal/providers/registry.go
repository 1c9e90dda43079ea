// Package providers provides the model registry and dispatch for LLM providers.
package providers

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"chathub/internal/core"
)

// Kind identifies a provider backend. The set is closed: adding a backend
// means adding a client implementation, not just a registry entry.
type Kind string

const (
	KindOpenAI   Kind = "openai"
	KindTogether Kind = "together"
)

// ModelConfig binds a logical model identifier to a provider backend and
// that backend's wire-level model name.
type ModelConfig struct {
	Kind      Kind   `yaml:"provider"`
	WireModel string `yaml:"wire_model"`
}

// defaultCatalog is the built-in model catalog.
var defaultCatalog = map[string]ModelConfig{
	"deepseek-v3":   {Kind: KindTogether, WireModel: "deepseek-ai/DeepSeek-V3"},
	"llama-3-70b":   {Kind: KindTogether, WireModel: "meta-llama/Llama-3-70b-chat-hf"},
	"mixtral-8x7b":  {Kind: KindTogether, WireModel: "mistralai/Mixtral-8x7B-Instruct-v0.1"},
	"gpt-4o":        {Kind: KindOpenAI, WireModel: "gpt-4o"},
	"gpt-3.5-turbo": {Kind: KindOpenAI, WireModel: "gpt-3.5-turbo"},
}

// Registry holds the static mapping from model identifiers to provider
// configuration. It is built once at startup and read-only afterwards.
type Registry struct {
	models map[string]ModelConfig
}

// NewRegistry creates a registry populated with the built-in catalog.
func NewRegistry() *Registry {
	models := make(map[string]ModelConfig, len(defaultCatalog))
	for id, cfg := range defaultCatalog {
		models[id] = cfg
	}
	return &Registry{models: models}
}

// catalogFile is the YAML layout of an external model catalog.
type catalogFile struct {
	Models map[string]ModelConfig `yaml:"models"`
}

// LoadFile overlays model entries from a YAML catalog file onto the
// registry. File entries win over built-in entries with the same identifier.
// Must be called before the registry is shared; Registry has no locking.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read model catalog %s: %w", path, err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse model catalog %s: %w", path, err)
	}

	for id, cfg := range file.Models {
		if cfg.Kind != KindOpenAI && cfg.Kind != KindTogether {
			return fmt.Errorf("model %q: unknown provider kind %q", id, cfg.Kind)
		}
		if cfg.WireModel == "" {
			return fmt.Errorf("model %q: wire_model is required", id)
		}
		r.models[id] = cfg
	}

	return nil
}

// Resolve returns the provider configuration for a model identifier.
// Fails with an unsupported-model error when the identifier is absent.
func (r *Registry) Resolve(model string) (ModelConfig, error) {
	cfg, ok := r.models[model]
	if !ok {
		return ModelConfig{}, core.NewUnsupportedModelError(model)
	}
	return cfg, nil
}

// Supports returns true if the registry has an entry for the given model
func (r *Registry) Supports(model string) bool {
	_, ok := r.models[model]
	return ok
}

// Models returns all model identifiers, sorted for consistent ordering.
func (r *Registry) Models() []string {
	ids := make([]string, 0, len(r.models))
	for id := range r.models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ValidateKeyFormat performs an offline shape check of a candidate API key
// for the provider backing the given model. It never calls the provider,
// so a passing key carries no guarantee of live validity.
func (r *Registry) ValidateKeyFormat(model, key string) bool {
	if len(key) < 10 {
		return false
	}

	cfg, ok := r.models[model]
	if !ok {
		return false
	}

	switch cfg.Kind {
	case KindOpenAI:
		return strings.HasPrefix(key, "sk-")
	case KindTogether:
		return len(key) > 20
	default:
		return false
	}
}
