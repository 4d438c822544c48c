// Package ai is the client boundary to the external language-model provider.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrMisconfigured means no provider API key is configured.
var ErrMisconfigured = errors.New("language model provider is not configured")

// Completer produces one completion from a system preamble and a user prompt.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

const defaultOpenAIBaseURL = "https://api.openai.com"

// completionTemperature is fixed low: clinical suggestions should be stable,
// not creative.
const completionTemperature = 0.2

// OpenAIClient calls the provider's chat-completions API. BaseURL is
// overridable for tests.
type OpenAIClient struct {
	APIKey  string
	Model   string
	BaseURL string
	client  *http.Client
}

func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: defaultOpenAIBaseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	if c.APIKey == "" {
		return "", ErrMisconfigured
	}

	body, err := json.Marshal(chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: completionTemperature,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("language model request: %w", err)
	}
	defer resp.Body.Close()

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return "", fmt.Errorf("decoding language model response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if chat.Error.Message != "" {
			return "", fmt.Errorf("language model returned status %d: %s", resp.StatusCode, chat.Error.Message)
		}
		return "", fmt.Errorf("language model returned status %d", resp.StatusCode)
	}
	if len(chat.Choices) == 0 {
		return "", fmt.Errorf("language model returned no choices")
	}

	return strings.TrimSpace(chat.Choices[0].Message.Content), nil
}
