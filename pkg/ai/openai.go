package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultOpenAIModel = "gpt-4o-mini"

	openAIChatURL  = "https://api.openai.com/v1/chat/completions"
	defaultTimeout = 120 * time.Second
)

type OpenAIConfig struct {
	// APIKey is required.
	APIKey string

	// Default: gpt-4o-mini
	Model string

	// BaseURL overrides the chat completions endpoint.
	BaseURL string

	Timeout    time.Duration
	HTTPClient *http.Client
}

type OpenAIGenerator struct {
	apiKey string
	model  string
	url    string
	client *http.Client
}

func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, ErrAPIKeyRequired
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	endpoint := cfg.BaseURL
	if endpoint == "" {
		endpoint = openAIChatURL
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	return &OpenAIGenerator{
		apiKey: cfg.APIKey,
		model:  model,
		url:    endpoint,
		client: client,
	}, nil
}

func (g *OpenAIGenerator) GenerateText(ctx context.Context, prompt string, maxTokens int) (Result, error) {
	if err := checkPrompt(prompt); err != nil {
		return Result{}, err
	}

	jsonData, err := json.Marshal(openAIRequest{
		Model:     g.model,
		Messages:  []openAIMessage{{Role: "user", Content: prompt}},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(jsonData))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp openAIErrorResponse
		if err := json.Unmarshal(body, &errorResp); err == nil && errorResp.Error.Message != "" {
			msg := errorResp.Error.Message
			switch {
			case strings.Contains(msg, "rate limit"):
				return Result{}, fmt.Errorf("%w: %s", ErrRateLimitExceeded, msg)
			case strings.Contains(msg, "context length"):
				return Result{}, fmt.Errorf("%w: %s", ErrContextLengthExceeded, msg)
			}
			return Result{}, fmt.Errorf("%w: %s", ErrGenerationFailed, msg)
		}
		return Result{}, fmt.Errorf("%w: status %d: %s", ErrGenerationFailed, resp.StatusCode, string(body))
	}

	var response openAIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return Result{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(response.Choices) == 0 || response.Choices[0].Message.Content == "" {
		return Result{}, ErrEmptyResponse
	}

	return Result{
		Text:         response.Choices[0].Message.Content,
		InputTokens:  response.Usage.PromptTokens,
		OutputTokens: response.Usage.CompletionTokens,
	}, nil
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model     string          `json:"model"`
	Messages  []openAIMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type openAIErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}
