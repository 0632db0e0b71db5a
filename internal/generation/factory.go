package generation

import (
	"fmt"
	"os"
	"time"

	"toolkitrag/internal/config"
	"toolkitrag/internal/domain"
	"toolkitrag/internal/generation/openai"
)

// NewGenerator resolves the active text-generation capability from
// configuration, validating credentials at startup the same way the
// embedding factory does.
func NewGenerator(cfg config.GeneratorConfig) (domain.Generator, error) {
	switch cfg.Type {
	case "static", "":
		return NewStaticGenerator(0), nil
	case "openai":
		key := os.Getenv(cfg.OpenAI.APIKeyEnv)
		if key == "" {
			return nil, &domain.ConfigError{
				Setting: cfg.OpenAI.APIKeyEnv,
				Reason:  "openai generator selected but API key env is absent or empty",
			}
		}
		return openai.NewClient(openai.Config{
			BaseURL:   cfg.OpenAI.BaseURL,
			APIKey:    key,
			Model:     cfg.OpenAI.Model,
			MaxTokens: cfg.MaxTokens,
			Timeout:   time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
		}), nil
	default:
		return nil, &domain.ConfigError{
			Setting: "generator.type",
			Reason:  fmt.Sprintf("unknown generator %q", cfg.Type),
		}
	}
}
