package llmservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"notes-rag/internal/config"
)

type fakeBackend struct {
	text  string
	err   error
	delay time.Duration
	calls int
}

func (f *fakeBackend) generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.text, f.err
}

func (f *fakeBackend) close() error { return nil }

func TestGenerateStripsThinkBlock(t *testing.T) {
	c := newClient(&fakeBackend{text: "<think>\nplanning\n</think>\n  {\"answer\": \"x\"} "}, "fake", time.Second, 600)
	got, err := c.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if got != `{"answer": "x"}` {
		t.Fatalf("Generate = %q", got)
	}
}

func TestGenerateTimeoutIsUnavailable(t *testing.T) {
	c := newClient(&fakeBackend{text: "late", delay: time.Second}, "fake", 20*time.Millisecond, 600)
	_, err := c.Generate(context.Background(), "prompt")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Generate error = %v, want ErrUnavailable", err)
	}
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	b := &fakeBackend{err: errors.New("503")}
	c := newClient(b, "fake", time.Second, 6000)
	for i := 0; i < 5; i++ {
		if _, err := c.Generate(context.Background(), "prompt"); !errors.Is(err, ErrUnavailable) {
			t.Fatalf("call %d error = %v, want ErrUnavailable", i, err)
		}
	}
	if b.calls != 3 {
		t.Fatalf("backend called %d times, want 3 before the breaker opened", b.calls)
	}
}

func TestNewWithoutProvider(t *testing.T) {
	if _, err := New(context.Background(), &config.LLMConfig{Provider: config.ProviderNone}); !errors.Is(err, ErrNoProvider) {
		t.Fatalf("New(none) error = %v, want ErrNoProvider", err)
	}
	if _, err := New(context.Background(), &config.LLMConfig{Provider: config.ProviderOpenAI}); err == nil {
		t.Fatalf("New(openai) without key returned nil error")
	}
}

func TestCloseNil(t *testing.T) {
	var c *Client
	if err := c.Close(); err != nil {
		t.Fatalf("Close on nil client = %v", err)
	}
}
