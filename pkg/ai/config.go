package ai

import (
	"context"
	"time"
)

type Provider string

const (
	ProviderCosmic Provider = "cosmic"
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

type Config struct {
	Provider     Provider      `env:"AI_PROVIDER" envDefault:"cosmic"`
	GeminiAPIKey string        `env:"GEMINI_API_KEY"`
	GeminiModel  string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	OpenAIAPIKey string        `env:"OPENAI_API_KEY"`
	OpenAIModel  string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	Timeout      time.Duration `env:"AI_TIMEOUT" envDefault:"120s"`
}

// New builds the configured generator. The Cosmic provider needs a text
// endpoint, usually the object store client.
func New(ctx context.Context, cfg Config, cosmic CosmicTextAPI) (Generator, error) {
	switch cfg.Provider {
	case ProviderCosmic:
		if cosmic == nil {
			return nil, ErrNotConfigured
		}
		return NewCosmicGenerator(cosmic), nil
	case ProviderGemini:
		return NewGeminiGenerator(ctx, GeminiConfig{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel})
	case ProviderOpenAI:
		return NewOpenAIGenerator(OpenAIConfig{APIKey: cfg.OpenAIAPIKey, Model: cfg.OpenAIModel, Timeout: cfg.Timeout})
	default:
		return nil, ErrUnknownProvider
	}
}
