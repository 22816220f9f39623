package cms

import (
	"context"
	"errors"
	"net/http"
)

// TextGeneration is the AI endpoint's answer.
type TextGeneration struct {
	Text  string `json:"text"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// GenerateText runs prompt through the bucket's AI text endpoint.
func (c *CosmicClient) GenerateText(ctx context.Context, prompt string, maxTokens int) (*TextGeneration, error) {
	if prompt == "" {
		return nil, ErrInvalidInput
	}
	body := struct {
		Prompt    string `json:"prompt"`
		MaxTokens int    `json:"max_tokens,omitempty"`
	}{prompt, maxTokens}

	var resp TextGeneration
	if err := c.write(ctx, http.MethodPost, c.workersBucketURL("ai", "text"), body, &resp); err != nil {
		return nil, err
	}
	if resp.Text == "" {
		return nil, errors.Join(ErrRequestFailed, errors.New("empty generation"))
	}
	return &resp, nil
}
