package llmservice

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"notes-rag/internal/config"
)

type geminiBackend struct {
	client      *genai.Client
	model       string
	temperature float32
}

func newGeminiBackend(ctx context.Context, cfg *config.LLMConfig) (*geminiBackend, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Key))
	if err != nil {
		return nil, err
	}
	return &geminiBackend{client: client, model: cfg.Model, temperature: float32(cfg.Temperature)}, nil
}

func (b *geminiBackend) generate(ctx context.Context, prompt string) (string, error) {
	model := b.client.GenerativeModel(b.model)
	model.SetTemperature(b.temperature)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("empty response from gemini")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

func (b *geminiBackend) close() error {
	return b.client.Close()
}
