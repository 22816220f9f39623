package ai

import (
	"context"
	"errors"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiModels is the part of genai.Models the generator calls.
type GeminiModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type GeminiGenerator struct {
	models GeminiModels
	model  string
}

func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, ErrAPIKeyRequired
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Join(ErrGenerationFailed, err)
	}
	return NewGeminiGeneratorWithModels(client.Models, cfg.Model), nil
}

// NewGeminiGeneratorWithModels wraps an existing models client.
func NewGeminiGeneratorWithModels(models GeminiModels, model string) *GeminiGenerator {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiGenerator{models: models, model: model}
}

func (g *GeminiGenerator) GenerateText(ctx context.Context, prompt string, maxTokens int) (Result, error) {
	if err := checkPrompt(prompt); err != nil {
		return Result{}, err
	}

	cfg := &genai.GenerateContentConfig{}
	if maxTokens > 0 {
		cfg.MaxOutputTokens = int32(maxTokens)
	}

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return Result{}, errors.Join(ErrGenerationFailed, err)
	}

	text := resp.Text()
	if text == "" {
		return Result{}, ErrEmptyResponse
	}

	res := Result{Text: text}
	if resp.UsageMetadata != nil {
		res.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		res.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return res, nil
}
