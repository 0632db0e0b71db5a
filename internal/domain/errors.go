package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks malformed ingestion input, such as an empty content
// block sequence. Local to the caller, never retried.
var ErrInvalidInput = errors.New("invalid input")

// EmbeddingError reports a transport or auth failure from an embedding
// provider. It is surfaced to the caller, never silently degraded to the
// offline provider.
type EmbeddingError struct {
	Provider string
	Err      error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding provider %s: %v", e.Provider, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// GenerationError reports a text-generation failure. It is distinct from a
// refusal: refusal is a grounding decision, not an error path.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation provider %s: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ConfigError fails application startup. Factories validate configuration
// before any request is served, so it never occurs mid-request.
type ConfigError struct {
	Setting string
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Setting, e.Reason)
}
