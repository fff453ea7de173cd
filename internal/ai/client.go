package ai

import (
	"context"
	"fmt"
	"time"

	"billing-service/internal/core"

	"go.uber.org/zap"
)

// Config carries the provider credentials. A provider without a key is never
// constructed.
type Config struct {
	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string

	// Timeout bounds each provider call. Zero means no limit beyond ctx.
	Timeout time.Duration
}

// Client tries each configured provider in order and returns the first reply.
type Client struct {
	providers []Provider
	timeout   time.Duration
	log       *zap.Logger
}

// NewClient builds the Gemini then OpenAI providers for whichever keys are set.
func NewClient(ctx context.Context, cfg Config, log *zap.Logger) (*Client, error) {
	var providers []Provider
	if cfg.GeminiAPIKey != "" {
		g, err := NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		providers = append(providers, g)
	}
	if cfg.OpenAIAPIKey != "" {
		providers = append(providers, NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel))
	}
	c := NewClientWithProviders(log, providers...)
	c.timeout = cfg.Timeout
	return c, nil
}

// NewClientWithProviders wraps explicit providers, tried in the given order.
func NewClientWithProviders(log *zap.Logger, providers ...Provider) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{providers: providers, log: log.Named("ai")}
}

// Configured reports whether at least one provider has credentials.
func (c *Client) Configured() bool {
	return len(c.providers) > 0
}

// Providers returns the provider names in the order they are tried.
func (c *Client) Providers() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return names
}

// Generate runs req against each provider in turn. There is no retry: a
// provider that fails is skipped and the next one is tried.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	if !c.Configured() {
		return "", core.NewConfigError("AI assistant", "GEMINI_API_KEY or OPENAI_API_KEY")
	}

	var lastErr error
	for _, p := range c.providers {
		out, err := c.call(ctx, p, req)
		if err == nil {
			return out, nil
		}
		lastErr = fmt.Errorf("%s: %w", p.Name(), err)
		c.log.Warn("ai provider failed", zap.String("provider", p.Name()), zap.Error(err))
		// The caller gave up; a per-call timeout still falls through.
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("%w: %v", ErrProviderFailed, lastErr)
}

func (c *Client) call(ctx context.Context, p Provider, req Request) (string, error) {
	if c.timeout <= 0 {
		return p.Generate(ctx, req)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return p.Generate(ctx, req)
}
