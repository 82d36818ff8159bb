package llmservice

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"notes-rag/internal/config"
)

var (
	// ErrNoProvider means generation is switched off in config
	ErrNoProvider = errors.New("no generation provider configured")
	// ErrUnavailable wraps every failure to get text back from the provider
	ErrUnavailable = errors.New("generation unavailable")
)

var thinkTag = regexp.MustCompile(`(?s)<think>.*?</think>`)

// backend is one provider's prompt-in, text-out call
type backend interface {
	generate(ctx context.Context, prompt string) (string, error)
	close() error
}

// Client calls the configured provider with a timeout, a rate limit and a
// circuit breaker. It does not retry.
type Client struct {
	backend  backend
	provider string
	timeout  time.Duration
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
}

// New builds a client for cfg.Provider. It returns ErrNoProvider when the
// provider is "none" and an error when credentials are missing.
func New(ctx context.Context, cfg *config.LLMConfig) (*Client, error) {
	log.Debug().Str("provider", cfg.Provider).Str("model", cfg.Model).Str("base_url", cfg.BaseURL).Msg("Creating generation client")

	var (
		b   backend
		err error
	)
	switch cfg.Provider {
	case config.ProviderNone, "":
		return nil, ErrNoProvider
	case config.ProviderOpenAI:
		if cfg.Key == "" {
			return nil, errors.New("llm.key is required for the openai provider")
		}
		b, err = newOpenAIBackend(cfg)
	case config.ProviderOllama:
		b, err = newOllamaBackend(cfg)
	case config.ProviderGemini:
		if cfg.Key == "" {
			return nil, errors.New("llm.key is required for the gemini provider")
		}
		b, err = newGeminiBackend(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s provider: %w", cfg.Provider, err)
	}
	return newClient(b, cfg.Provider, time.Duration(cfg.TimeoutSecs)*time.Second, cfg.RequestsPerMinute), nil
}

func newClient(b backend, provider string, timeout time.Duration, rpm int) *Client {
	if rpm <= 0 {
		rpm = 60
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        provider,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn().Str("provider", name).Str("from", from.String()).Str("to", to.String()).Msg("Generation circuit breaker changed state")
		},
	})
	return &Client{
		backend:  b,
		provider: provider,
		timeout:  timeout,
		limiter:  rate.NewLimiter(rate.Limit(float64(rpm)/60.0), max(1, rpm/10)),
		breaker:  breaker,
	}
}

// Generate sends the prompt and returns the model text with any reasoning
// block removed. Timeouts and provider errors come back as ErrUnavailable.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	start := time.Now()
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.backend.generate(ctx, prompt)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	text := strings.TrimSpace(thinkTag.ReplaceAllString(out.(string), ""))
	log.Debug().Str("provider", c.provider).Dur("elapsed", time.Since(start)).Int("chars", len(text)).Msg("Generated content")
	return text, nil
}

func (c *Client) Close() error {
	if c == nil || c.backend == nil {
		return nil
	}
	return c.backend.close()
}
