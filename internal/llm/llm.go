// Package llm abstracts the language-model providers behind a single
// completion interface. Whether a credential is configured is decided once,
// at construction: New returns ErrNoCredential and the caller builds the
// pipeline in fallback mode instead. There is no runtime fallback.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNoCredential = errors.New("llm: no credential configured")

type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Provider() string
	Model() string
}

type Config struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

func New(cfg Config) (Client, error) {
	provider := strings.TrimSpace(cfg.Provider)
	if provider == "" || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoCredential
	}
	switch provider {
	case "openai":
		return newOpenAIClient(cfg)
	case "anthropic":
		return newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}

func callContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
