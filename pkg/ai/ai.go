package ai

import (
	"context"
	"errors"
	"strings"
)

// Result is one generation with its token usage.
type Result struct {
	Text         string `json:"text"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// Generator turns a prompt into text. maxTokens caps the output length; zero
// leaves it to the provider.
type Generator interface {
	GenerateText(ctx context.Context, prompt string, maxTokens int) (Result, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string, maxTokens int) (Result, error)

func (f GeneratorFunc) GenerateText(ctx context.Context, prompt string, maxTokens int) (Result, error) {
	return f(ctx, prompt, maxTokens)
}

func checkPrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	return nil
}

// Unavailable returns a generator that always fails with ErrNotConfigured.
// It stands in when no provider could be built so the rest of the
// application keeps serving.
func Unavailable(reason error) Generator {
	return GeneratorFunc(func(context.Context, string, int) (Result, error) {
		return Result{}, errors.Join(ErrNotConfigured, reason)
	})
}
