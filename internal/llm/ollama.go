package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	System  string        `json:"system,omitempty"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// Ollama calls a local Ollama server's non-streaming generate endpoint.
type Ollama struct {
	client  *http.Client
	baseURL string
	profile profile
}

func (o *Ollama) GenerateText(ctx context.Context, prompt, system string) (string, error) {
	body, err := json.Marshal(ollamaRequest{
		Model:  o.profile.model,
		Prompt: prompt,
		System: system,
		Options: ollamaOptions{
			Temperature: o.profile.temperature,
			NumPredict:  o.profile.maxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out ollamaResponse
	if err := do(o.client, req, ProviderOllama, &out); err != nil {
		return "", err
	}
	text := strings.TrimSpace(out.Response)
	if text == "" {
		return "", fmt.Errorf("%s: %w", ProviderOllama, ErrEmptyResponse)
	}
	return text, nil
}
