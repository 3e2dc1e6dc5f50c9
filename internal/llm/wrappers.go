package llm

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/time/rate"
)

// Limited paces calls to the wrapped generator. Callers block until a token
// is available or their context ends.
type Limited struct {
	next    TextGenerator
	limiter *rate.Limiter
}

func NewLimited(next TextGenerator, rps float64, burst int) *Limited {
	if burst <= 0 {
		burst = 1
	}
	return &Limited{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (l *Limited) GenerateText(ctx context.Context, prompt, system string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llm: rate limit: %w", err)
	}
	return l.next.GenerateText(ctx, prompt, system)
}

// Cached remembers successful responses keyed by system and prompt text.
// Errors are never cached.
type Cached struct {
	next  TextGenerator
	cache *lru.Cache
}

func NewCached(next TextGenerator, size int) (*Cached, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("llm: create cache: %w", err)
	}
	return &Cached{next: next, cache: c}, nil
}

func (c *Cached) GenerateText(ctx context.Context, prompt, system string) (string, error) {
	key := system + "\x00" + prompt
	if v, ok := c.cache.Get(key); ok {
		return v.(string), nil
	}
	text, err := c.next.GenerateText(ctx, prompt, system)
	if err != nil {
		return "", err
	}
	c.cache.Add(key, text)
	return text, nil
}

func (c *Cached) Len() int {
	return c.cache.Len()
}
