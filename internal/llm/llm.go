// Package llm talks to the text-generation backends used for dashboard
// narratives. Every backend satisfies TextGenerator; New picks one from
// configuration and wraps it with pacing and a response cache.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type TextGenerator interface {
	GenerateText(ctx context.Context, prompt, system string) (string, error)
}

type Provider string

const (
	ProviderNone       Provider = "none"
	ProviderOpenAI     Provider = "openai"
	ProviderDeepSeek   Provider = "deepseek"
	ProviderOpenRouter Provider = "openrouter"
	ProviderOllama     Provider = "ollama"
)

var (
	ErrNotConfigured = errors.New("llm: no text generation provider configured")
	ErrMissingAPIKey = errors.New("llm: api key is required")
	ErrEmptyResponse = errors.New("llm: provider returned no text")
)

// APIError is a non-2xx response from a provider.
type APIError struct {
	Provider   Provider
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llm: %s returned %d: %s", e.Provider, e.StatusCode, e.Body)
}

// profile holds the per-provider request defaults.
type profile struct {
	model       string
	maxTokens   int
	temperature float64
	endpoint    string
}

var profiles = map[Provider]profile{
	ProviderOpenAI: {
		model:       "gpt-3.5-turbo",
		maxTokens:   800,
		temperature: 0.7,
		endpoint:    "https://api.openai.com/v1/chat/completions",
	},
	ProviderDeepSeek: {
		model:       "deepseek/deepseek-chat",
		maxTokens:   1000,
		temperature: 0.7,
		endpoint:    "https://openrouter.ai/api/v1/chat/completions",
	},
	ProviderOpenRouter: {
		model:       "tngtech/deepseek-r1t2-chimera:free",
		maxTokens:   1000,
		temperature: 0.7,
		endpoint:    "https://openrouter.ai/api/v1/chat/completions",
	},
	ProviderOllama: {
		model:       "llama3.1:8b",
		maxTokens:   800,
		temperature: 0.7,
		endpoint:    "http://localhost:11434",
	},
}

type Options struct {
	Provider Provider
	APIKey   string
	// BaseURL overrides the provider endpoint. For chat providers it is the
	// full completions URL, for Ollama the server root.
	BaseURL   string
	Model     string
	MaxTokens int
	// Temperature overrides the provider default when non-nil, including 0.
	Temperature *float64
	Timeout     time.Duration

	RequestsPerSecond float64
	Burst             int
	CacheSize         int

	HTTPClient *http.Client
}

func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case "", ProviderNone:
		return ProviderNone, nil
	case ProviderOpenAI, ProviderDeepSeek, ProviderOpenRouter, ProviderOllama:
		return p, nil
	default:
		return "", fmt.Errorf("llm: unknown provider %q", s)
	}
}

// New builds the configured backend. Rate limiting and caching are added
// when RequestsPerSecond and CacheSize are positive.
func New(opts Options) (TextGenerator, error) {
	base, err := newBackend(opts)
	if err != nil {
		return nil, err
	}
	if _, disabled := base.(Disabled); disabled {
		return base, nil
	}
	var gen TextGenerator = base
	if opts.RequestsPerSecond > 0 {
		gen = NewLimited(gen, opts.RequestsPerSecond, opts.Burst)
	}
	if opts.CacheSize > 0 {
		if gen, err = NewCached(gen, opts.CacheSize); err != nil {
			return nil, err
		}
	}
	return gen, nil
}

func newBackend(opts Options) (TextGenerator, error) {
	if opts.Provider == "" || opts.Provider == ProviderNone {
		return Disabled{}, nil
	}
	p, ok := profiles[opts.Provider]
	if !ok {
		return nil, fmt.Errorf("llm: unknown provider %q", opts.Provider)
	}
	if opts.Model != "" {
		p.model = opts.Model
	}
	if opts.MaxTokens > 0 {
		p.maxTokens = opts.MaxTokens
	}
	if opts.Temperature != nil {
		p.temperature = *opts.Temperature
	}
	if opts.BaseURL != "" {
		p.endpoint = opts.BaseURL
	}

	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	if opts.Provider == ProviderOllama {
		return &Ollama{client: client, baseURL: strings.TrimRight(p.endpoint, "/"), profile: p}, nil
	}

	chat := &Chat{
		provider: opts.Provider,
		client:   client,
		apiKey:   opts.APIKey,
		profile:  p,
	}
	if opts.Provider == ProviderOpenRouter {
		chat.headers = map[string]string{
			"HTTP-Referer": "https://ceo-dashboard.com",
			"X-Title":      "CEO Dashboard",
		}
	}
	return chat, nil
}

// Disabled is the backend used when no provider is configured.
type Disabled struct{}

func (Disabled) GenerateText(context.Context, string, string) (string, error) {
	return "", ErrNotConfigured
}

// Name reports the provider behind g, looking through wrappers.
func Name(g TextGenerator) Provider {
	switch v := g.(type) {
	case *Chat:
		return v.provider
	case *Ollama:
		return ProviderOllama
	case *Limited:
		return Name(v.next)
	case *Cached:
		return Name(v.next)
	default:
		return ProviderNone
	}
}
