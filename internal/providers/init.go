package providers

import (
	"log/slog"

	"chathub/config"
	"chathub/internal/providers/openai"
	"chathub/internal/providers/together"
)

// Init builds the model registry and dispatcher from configuration.
//
// A provider kind whose API key is absent is simply not given a client:
// startup proceeds and calls routed to that kind fail with
// provider_unavailable. This mirrors how credentials are deployed in
// practice, where an instance may serve only a subset of backends.
func Init(cfg *config.Config) (*Dispatcher, error) {
	registry := NewRegistry()
	if cfg.ModelsFile != "" {
		if err := registry.LoadFile(cfg.ModelsFile); err != nil {
			return nil, err
		}
	}

	dispatcher := NewDispatcher(registry)

	if cfg.OpenAI.APIKey != "" {
		dispatcher.RegisterClient(KindOpenAI, openai.New(cfg.OpenAI.APIKey))
		slog.Info("provider configured", "provider", KindOpenAI)
	} else {
		slog.Warn("provider disabled: no API key", "provider", KindOpenAI, "env", "OPENAI_API_KEY")
	}

	if cfg.Together.APIKey != "" {
		dispatcher.RegisterClient(KindTogether, together.New(cfg.Together.APIKey))
		slog.Info("provider configured", "provider", KindTogether)
	} else {
		slog.Warn("provider disabled: no API key", "provider", KindTogether, "env", "TOGETHER_API_KEY")
	}

	slog.Info("model registry initialized", "models", len(registry.Models()))

	return dispatcher, nil
}
