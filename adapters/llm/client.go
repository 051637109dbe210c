// Package llm provides LLM client adapters for the chat agent. The chat
// agent only ever sees the ports.LLMClient interface; this package supplies
// an OpenAI-backed implementation and a mock for tests.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"datalens/internal/config"
	"datalens/internal/errors"
	"datalens/ports"
)

const systemPrompt = "You are a data analyst assistant. Answer questions about the dataset using only the statistics provided in the prompt. Be concise and concrete."

// NewClient creates an LLM client from config.
func NewClient(cfg config.AIConfig) (ports.LLMClient, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("missing OpenAI API key")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &OpenAIClient{
		APIKey:      cfg.OpenAIKey,
		BaseURL:     baseURL,
		Timeout:     cfg.Timeout,
		Temperature: cfg.Temperature,
	}, nil
}

// MockLLMClient is a mock LLM client for testing
type MockLLMClient struct {
	Response string // Set this for testing
	Error    error  // Set this to simulate errors

	LastPrompt string // Captures the most recent prompt for assertions
}

func (m *MockLLMClient) ChatCompletion(ctx context.Context, model string, prompt string, maxTokens int) (string, error) {
	m.LastPrompt = prompt
	if m.Error != nil {
		return "", m.Error
	}
	if m.Response != "" {
		return m.Response, nil
	}
	return "The column shows no notable anomalies based on the provided statistics.", nil
}

// OpenAIClient implements ports.LLMClient against the OpenAI Chat
// Completions API.
type OpenAIClient struct {
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	Temperature float64
}

func (c *OpenAIClient) ChatCompletion(ctx context.Context, model string, prompt string, maxTokens int) (string, error) {
	if strings.TrimSpace(model) == "" {
		return "", fmt.Errorf("missing model")
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	type reqBody struct {
		Model       string  `json:"model"`
		Messages    []msg   `json:"messages"`
		Temperature float64 `json:"temperature,omitempty"`
		MaxTokens   int     `json:"max_tokens,omitempty"`
	}
	body := reqBody{
		Model: model,
		Messages: []msg{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: c.Temperature,
		MaxTokens:   maxTokens,
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	client := &http.Client{Timeout: c.Timeout}
	url := strings.TrimRight(c.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return "", errors.ExternalServiceError("OpenAI", err)
	}
	defer resp.Body.Close()

	respRaw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.ExternalServiceError("OpenAI", fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.ExternalServiceError("OpenAI",
			fmt.Errorf("http %d: %s", resp.StatusCode, string(respRaw)))
	}

	type choice struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	type respBody struct {
		Choices []choice `json:"choices"`
	}
	var decoded respBody
	if err := json.Unmarshal(respRaw, &decoded); err != nil {
		return "", errors.ExternalServiceError("OpenAI", fmt.Errorf("unmarshal response: %w", err))
	}
	if len(decoded.Choices) == 0 {
		return "", errors.ExternalServiceError("OpenAI", fmt.Errorf("response missing choices"))
	}
	return decoded.Choices[0].Message.Content, nil
}
