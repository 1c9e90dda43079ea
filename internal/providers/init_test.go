package providers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chathub/config"
)

func TestInit(t *testing.T) {
	cfg := &config.Config{}
	cfg.OpenAI.APIKey = "sk-test"

	d, err := Init(cfg)
	require.NoError(t, err)

	assert.True(t, d.Available(KindOpenAI))
	assert.False(t, d.Available(KindTogether), "a missing key leaves the provider unregistered")
	assert.Len(t, d.Registry().Models(), 5)
}

func TestInitNoCredentials(t *testing.T) {
	d, err := Init(&config.Config{})
	require.NoError(t, err)

	// Startup succeeds with no providers; calls fail at dispatch time.
	assert.False(t, d.Available(KindOpenAI))
	assert.False(t, d.Available(KindTogether))
}

func TestInitModelsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte("models:\n  qwen-72b:\n    provider: together\n    wire_model: Qwen/Qwen2-72B-Instruct\n"), 0644))

	cfg := &config.Config{ModelsFile: path}
	d, err := Init(cfg)
	require.NoError(t, err)
	assert.True(t, d.Registry().Supports("qwen-72b"))

	cfg.ModelsFile = filepath.Join(t.TempDir(), "absent.yaml")
	_, err = Init(cfg)
	assert.Error(t, err)
}
