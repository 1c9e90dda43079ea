package providers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chathub/internal/core"
)

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		model     string
		kind      Kind
		wireModel string
	}{
		{"gpt-4o", KindOpenAI, "gpt-4o"},
		{"gpt-3.5-turbo", KindOpenAI, "gpt-3.5-turbo"},
		{"deepseek-v3", KindTogether, "deepseek-ai/DeepSeek-V3"},
		{"llama-3-70b", KindTogether, "meta-llama/Llama-3-70b-chat-hf"},
		{"mixtral-8x7b", KindTogether, "mistralai/Mixtral-8x7B-Instruct-v0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			cfg, err := r.Resolve(tt.model)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, cfg.Kind)
			assert.Equal(t, tt.wireModel, cfg.WireModel)
		})
	}
}

func TestRegistryResolveUnknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.Resolve("claude-3")
	require.Error(t, err)
	assert.True(t, core.IsErrorType(err, core.ErrorTypeUnsupportedModel))
	assert.False(t, r.Supports("claude-3"))
}

func TestRegistryModelsSorted(t *testing.T) {
	r := NewRegistry()

	models := r.Models()
	require.Len(t, models, 5)
	for i := 1; i < len(models); i++ {
		assert.Less(t, models[i-1], models[i])
	}
}

func TestRegistryLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	catalog := `models:
  gpt-4o:
    provider: openai
    wire_model: gpt-4o-2024-11-20
  qwen-72b:
    provider: together
    wire_model: Qwen/Qwen2-72B-Instruct
`
	require.NoError(t, os.WriteFile(path, []byte(catalog), 0644))

	r := NewRegistry()
	require.NoError(t, r.LoadFile(path))

	// File entries override built-ins and add new models.
	cfg, err := r.Resolve("gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-2024-11-20", cfg.WireModel)

	cfg, err = r.Resolve("qwen-72b")
	require.NoError(t, err)
	assert.Equal(t, KindTogether, cfg.Kind)

	assert.True(t, r.Supports("deepseek-v3"), "built-in models must survive the overlay")
}

func TestRegistryLoadFileInvalid(t *testing.T) {
	tests := []struct {
		name    string
		catalog string
	}{
		{"unknown kind", "models:\n  foo:\n    provider: anthropic\n    wire_model: claude-3\n"},
		{"missing wire model", "models:\n  foo:\n    provider: openai\n"},
		{"malformed yaml", "models: [not a map"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "models.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.catalog), 0644))
			assert.Error(t, NewRegistry().LoadFile(path))
		})
	}
}

func TestRegistryLoadFileMissing(t *testing.T) {
	assert.Error(t, NewRegistry().LoadFile(filepath.Join(t.TempDir(), "absent.yaml")))
}

func TestValidateKeyFormat(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name  string
		model string
		key   string
		want  bool
	}{
		{"openai well formed", "gpt-4o", "sk-abcdefghijklmnop", true},
		{"openai minimum length", "gpt-4o", "sk-1234567", true},
		{"openai wrong prefix", "gpt-4o", "pk-abcdefghijklmnop", false},
		{"together well formed", "deepseek-v3", "0123456789abcdef0123456789", true},
		{"together too short", "deepseek-v3", "0123456789abcdef", false},
		{"short key rejected for any model", "gpt-4o", "sk-12", false},
		{"short key rejected for together", "llama-3-70b", "abc", false},
		{"empty key", "gpt-4o", "", false},
		{"unknown model", "claude-3", "sk-abcdefghijklmnop", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.ValidateKeyFormat(tt.model, tt.key))
		})
	}
}
