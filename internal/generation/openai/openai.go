package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"toolkitrag/internal/domain"
)

// Client is an OpenAI-compatible chat-completions client used as the
// text-generation capability.
type Client struct {
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
}

// Config configures the chat client. APIKey must be non-empty; the factory
// validates that before construction.
type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// NewClient creates a chat-completions client from the given configuration.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 600
	}
	t := cfg.Timeout
	if t == 0 {
		t = 60 * time.Second
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		client:    &http.Client{Timeout: t},
	}
}

// Name returns the identifier of this generator.
func (c *Client) Name() string { return "openai" }

// Generate produces answer text for the question from the assembled context,
// under the given grounding instruction. Failures surface as
// GenerationError; the engine never converts them to refusals.
func (c *Client) Generate(ctx context.Context, instruction, contextText, question string) (string, error) {
	text, err := c.complete(ctx, instruction, contextText, question)
	if err != nil {
		return "", &domain.GenerationError{Provider: c.Name(), Err: err}
	}
	return text, nil
}

func (c *Client) complete(ctx context.Context, instruction, contextText, question string) (string, error) {
	type message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	body := struct {
		Model       string    `json:"model"`
		Messages    []message `json:"messages"`
		MaxTokens   int       `json:"max_tokens"`
		Temperature float64   `json:"temperature"`
	}{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: instruction},
			{Role: "user", Content: fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextText, question)},
		},
		MaxTokens:   c.maxTokens,
		Temperature: 0,
	}
	data, _ := json.Marshal(body)

	url := fmt.Sprintf("%s/chat/completions", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("chat completion failed: %s", resp.Status)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", errors.New("no completion returned")
	}
	return out.Choices[0].Message.Content, nil
}
