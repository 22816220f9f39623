package ai

import "errors"

// Domain errors for text generation. Provider errors are joined onto them.
var (
	ErrEmptyPrompt           = errors.New("prompt cannot be empty")
	ErrAPIKeyRequired        = errors.New("API key is required")
	ErrGenerationFailed      = errors.New("failed to generate text")
	ErrEmptyResponse         = errors.New("model returned no text")
	ErrUnknownProvider       = errors.New("unknown AI provider")
	ErrNotConfigured         = errors.New("AI provider is not configured")
	ErrRateLimitExceeded     = errors.New("rate limit exceeded")
	ErrContextLengthExceeded = errors.New("prompt exceeds maximum context length")
)
