package embedding

import (
	"fmt"
	"os"
	"time"

	"toolkitrag/internal/config"
	"toolkitrag/internal/domain"
	"toolkitrag/internal/embedding/openai"
	"toolkitrag/internal/embedding/stub"
)

// NewProvider resolves the active embedding provider from configuration.
// Called once at process startup; a missing credential for the network
// provider fails here, before any request is served, never lazily on first
// use.
func NewProvider(cfg config.EmbedderConfig) (Provider, error) {
	switch cfg.Type {
	case "stub", "":
		return stub.New(cfg.Dimensions), nil
	case "openai":
		key := os.Getenv(cfg.OpenAI.APIKeyEnv)
		if key == "" {
			return nil, &domain.ConfigError{
				Setting: cfg.OpenAI.APIKeyEnv,
				Reason:  "openai embedding provider selected but API key env is absent or empty",
			}
		}
		return openai.NewClient(openai.Config{
			BaseURL:    cfg.OpenAI.BaseURL,
			APIKey:     key,
			Model:      cfg.OpenAI.Model,
			Dimensions: cfg.Dimensions,
			Timeout:    time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
		}), nil
	default:
		return nil, &domain.ConfigError{
			Setting: "embedder.type",
			Reason:  fmt.Sprintf("unknown embedding provider %q", cfg.Type),
		}
	}
}
