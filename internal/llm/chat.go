package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody caps how much of a failed response is kept in APIError.
const maxErrorBody = 2048

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Chat calls an OpenAI-compatible chat completions endpoint.
type Chat struct {
	provider Provider
	client   *http.Client
	apiKey   string
	headers  map[string]string
	profile  profile
}

func (c *Chat) GenerateText(ctx context.Context, prompt, system string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%s: %w", c.provider, ErrMissingAPIKey)
	}

	var messages []chatMessage
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	body, err := json.Marshal(chatRequest{
		Model:       c.profile.model,
		Messages:    messages,
		MaxTokens:   c.profile.maxTokens,
		Temperature: c.profile.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.profile.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	var out chatResponse
	if err := do(c.client, req, c.provider, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%s: %w", c.provider, ErrEmptyResponse)
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// do sends req and decodes a JSON body into out, turning non-2xx statuses
// into APIError.
func do(client *http.Client, req *http.Request, provider Provider, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("llm: %s request: %w", provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Provider: provider, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("llm: %s decode response: %w", provider, err)
	}
	return nil
}
