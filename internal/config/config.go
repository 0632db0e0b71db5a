package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"toolkitrag/internal/domain"
)

// OpenAIConfig holds connection details for an OpenAI-compatible endpoint.
// The credential itself stays in the environment; only its variable name is
// configured.
type OpenAIConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the embedding provider variant.
type EmbedderConfig struct {
	Type       string       `yaml:"type"`
	Dimensions int          `yaml:"dimensions"`
	OpenAI     OpenAIConfig `yaml:"openai"`
}

// GeneratorConfig selects and configures the text-generation capability.
type GeneratorConfig struct {
	Type      string       `yaml:"type"`
	MaxTokens int          `yaml:"max_tokens"`
	OpenAI    OpenAIConfig `yaml:"openai"`
}

// ChunkerConfig carries the chunker's character budgets.
type ChunkerConfig struct {
	TargetMin int `yaml:"target_min"`
	TargetMax int `yaml:"target_max"`
	Overlap   int `yaml:"overlap"`
}

// RetrievalConfig carries retrieval and answer-assembly bounds.
type RetrievalConfig struct {
	TopK                int     `yaml:"top_k"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	MaxContextChars     int     `yaml:"max_context_chars"`
	SnippetChars        int     `yaml:"snippet_chars"`
}

// SQLiteConfig locates the on-disk chunk and chat-log database.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// StoreConfig selects and configures the chunk store implementation.
type StoreConfig struct {
	Type   string       `yaml:"type"`
	SQLite SQLiteConfig `yaml:"sqlite"`
	Qdrant QdrantConfig `yaml:"qdrant"`
}

// AppConfig is the root application configuration. It is constructed once at
// startup and treated as immutable afterwards.
type AppConfig struct {
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Generator GeneratorConfig `yaml:"generator"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Store     StoreConfig     `yaml:"store"`
}

// Load reads a config from the given path. A missing file yields defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the offline configuration: stub embeddings, canned
// generation, in-memory store.
func Default() *AppConfig {
	cfg := &AppConfig{
		Embedder:  EmbedderConfig{Type: "stub"},
		Generator: GeneratorConfig{Type: "static"},
		Store:     StoreConfig{Type: "memory"},
	}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "stub"
	}
	if cfg.Embedder.Dimensions == 0 {
		cfg.Embedder.Dimensions = 1536
	}
	if cfg.Embedder.Type == "openai" {
		applyOpenAIDefaults(&cfg.Embedder.OpenAI, "text-embedding-3-small")
	}
	if cfg.Generator.Type == "" {
		cfg.Generator.Type = "static"
	}
	if cfg.Generator.MaxTokens == 0 {
		cfg.Generator.MaxTokens = 600
	}
	if cfg.Generator.Type == "openai" {
		applyOpenAIDefaults(&cfg.Generator.OpenAI, "gpt-4o-mini")
	}
	if cfg.Chunker.TargetMin == 0 {
		cfg.Chunker.TargetMin = 800
	}
	if cfg.Chunker.TargetMax == 0 {
		cfg.Chunker.TargetMax = 1200
	}
	if cfg.Chunker.Overlap == 0 {
		cfg.Chunker.Overlap = 150
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.SimilarityThreshold == 0 {
		cfg.Retrieval.SimilarityThreshold = 0.7
	}
	if cfg.Retrieval.MaxContextChars == 0 {
		cfg.Retrieval.MaxContextChars = 6000
	}
	if cfg.Retrieval.SnippetChars == 0 {
		cfg.Retrieval.SnippetChars = 200
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = "memory"
	}
	if cfg.Store.Type == "sqlite" && cfg.Store.SQLite.Path == "" {
		cfg.Store.SQLite.Path = "toolkitrag.db"
	}
	if cfg.Store.Type == "qdrant" && cfg.Store.Qdrant.Collection == "" {
		cfg.Store.Qdrant.Collection = "toolkit_chunks"
	}
}

func applyOpenAIDefaults(c *OpenAIConfig, model string) {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.Model == "" {
		c.Model = model
	}
	if c.TimeoutSecs == 0 {
		c.TimeoutSecs = 30
	}
}

func validate(cfg *AppConfig) error {
	if cfg.Chunker.TargetMin < 0 || cfg.Chunker.TargetMax <= cfg.Chunker.TargetMin {
		return &domain.ConfigError{Setting: "chunker.target_max", Reason: "must exceed target_min"}
	}
	if cfg.Chunker.Overlap < 0 || cfg.Chunker.Overlap >= cfg.Chunker.TargetMin {
		return &domain.ConfigError{Setting: "chunker.overlap", Reason: "must be non-negative and below target_min"}
	}
	if cfg.Retrieval.SimilarityThreshold < 0 || cfg.Retrieval.SimilarityThreshold > 1 {
		return &domain.ConfigError{Setting: "retrieval.similarity_threshold", Reason: "must be in [0,1]"}
	}
	if cfg.Retrieval.TopK < 1 {
		return &domain.ConfigError{Setting: "retrieval.top_k", Reason: "must be positive"}
	}
	return nil
}
