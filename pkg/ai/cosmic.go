package ai

import (
	"context"
	"errors"

	"github.com/dmitrymomot/emailcraft/pkg/cms"
)

// CosmicTextAPI is the slice of the object store client used for generation.
type CosmicTextAPI interface {
	GenerateText(ctx context.Context, prompt string, maxTokens int) (*cms.TextGeneration, error)
}

type CosmicGenerator struct {
	api CosmicTextAPI
}

func NewCosmicGenerator(api CosmicTextAPI) *CosmicGenerator {
	return &CosmicGenerator{api: api}
}

func (g *CosmicGenerator) GenerateText(ctx context.Context, prompt string, maxTokens int) (Result, error) {
	if err := checkPrompt(prompt); err != nil {
		return Result{}, err
	}
	res, err := g.api.GenerateText(ctx, prompt, maxTokens)
	if err != nil {
		return Result{}, errors.Join(ErrGenerationFailed, err)
	}
	return Result{
		Text:         res.Text,
		InputTokens:  res.Usage.InputTokens,
		OutputTokens: res.Usage.OutputTokens,
	}, nil
}
