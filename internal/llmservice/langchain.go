package llmservice

import (
	"context"
	"errors"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"notes-rag/internal/config"
)

// langchainBackend serves any langchaingo model
type langchainBackend struct {
	llm         llms.Model
	temperature float64
}

func newOpenAIBackend(cfg *config.LLMConfig) (*langchainBackend, error) {
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}
	return &langchainBackend{llm: llm, temperature: cfg.Temperature}, nil
}

func newOllamaBackend(cfg *config.LLMConfig) (*langchainBackend, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}
	return &langchainBackend{llm: llm, temperature: cfg.Temperature}, nil
}

func (b *langchainBackend) generate(ctx context.Context, prompt string) (string, error) {
	msgContent := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	res, err := b.llm.GenerateContent(ctx, msgContent, llms.WithTemperature(b.temperature))
	if err != nil {
		return "", err
	}
	if len(res.Choices) == 0 {
		return "", errors.New("empty response from model")
	}
	return res.Choices[0].Content, nil
}

func (b *langchainBackend) close() error { return nil }
