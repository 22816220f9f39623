package ai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/dmitrymomot/emailcraft/pkg/ai"
	"github.com/dmitrymomot/emailcraft/pkg/cms"
)

type mockModels struct {
	mock.Mock
}

func (m *mockModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	args := m.Called(ctx, model, contents, config)
	resp, _ := args.Get(0).(*genai.GenerateContentResponse)
	return resp, args.Error(1)
}

func TestGeminiGenerator(t *testing.T) {
	t.Parallel()

	models := &mockModels{}
	models.On("GenerateContent", mock.Anything, "gemini-test", mock.Anything, mock.MatchedBy(func(c *genai.GenerateContentConfig) bool {
		return c.MaxOutputTokens == 64000
	})).Return(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: genai.NewContentFromText("<html></html>", genai.RoleModel),
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     12,
			CandidatesTokenCount: 34,
		},
	}, nil).Once()

	gen := ai.NewGeminiGeneratorWithModels(models, "gemini-test")
	res, err := gen.GenerateText(context.Background(), "make an email", 64000)
	require.NoError(t, err)
	assert.Equal(t, ai.Result{Text: "<html></html>", InputTokens: 12, OutputTokens: 34}, res)
	models.AssertExpectations(t)
}

func TestGeminiGenerator_Errors(t *testing.T) {
	t.Parallel()

	models := &mockModels{}
	models.On("GenerateContent", mock.Anything, ai.DefaultGeminiModel, mock.Anything, mock.Anything).
		Return(nil, errors.New("quota")).Once()
	models.On("GenerateContent", mock.Anything, ai.DefaultGeminiModel, mock.Anything, mock.Anything).
		Return(&genai.GenerateContentResponse{}, nil).Once()

	gen := ai.NewGeminiGeneratorWithModels(models, "")

	_, err := gen.GenerateText(context.Background(), "  ", 10)
	require.ErrorIs(t, err, ai.ErrEmptyPrompt)

	_, err = gen.GenerateText(context.Background(), "hi", 10)
	require.ErrorIs(t, err, ai.ErrGenerationFailed)

	_, err = gen.GenerateText(context.Background(), "hi", 10)
	require.ErrorIs(t, err, ai.ErrEmptyResponse)

	_, err = ai.NewGeminiGenerator(context.Background(), ai.GeminiConfig{})
	require.ErrorIs(t, err, ai.ErrAPIKeyRequired)
}

func TestOpenAIGenerator(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, ai.DefaultOpenAIModel, req["model"])
		assert.EqualValues(t, 500, req["max_tokens"])

		if req["messages"].([]any)[0].(map[string]any)["content"] == "too long" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"maximum context length exceeded"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello"}}],"usage":{"prompt_tokens":5,"completion_tokens":1}}`))
	}))
	t.Cleanup(srv.Close)

	gen, err := ai.NewOpenAIGenerator(ai.OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)

	res, err := gen.GenerateText(context.Background(), "say hello", 500)
	require.NoError(t, err)
	assert.Equal(t, ai.Result{Text: "hello", InputTokens: 5, OutputTokens: 1}, res)

	_, err = gen.GenerateText(context.Background(), "too long", 500)
	assert.ErrorIs(t, err, ai.ErrContextLengthExceeded)

	_, err = ai.NewOpenAIGenerator(ai.OpenAIConfig{})
	assert.ErrorIs(t, err, ai.ErrAPIKeyRequired)
}

type fakeCosmic struct {
	gen *cms.TextGeneration
	err error
}

func (f fakeCosmic) GenerateText(context.Context, string, int) (*cms.TextGeneration, error) {
	return f.gen, f.err
}

func TestCosmicGenerator(t *testing.T) {
	t.Parallel()

	out := &cms.TextGeneration{Text: "<p>hi</p>"}
	out.Usage.InputTokens = 7
	out.Usage.OutputTokens = 9

	res, err := ai.NewCosmicGenerator(fakeCosmic{gen: out}).GenerateText(context.Background(), "p", 100)
	require.NoError(t, err)
	assert.Equal(t, ai.Result{Text: "<p>hi</p>", InputTokens: 7, OutputTokens: 9}, res)

	_, err = ai.NewCosmicGenerator(fakeCosmic{err: cms.ErrRequestFailed}).GenerateText(context.Background(), "p", 100)
	assert.ErrorIs(t, err, ai.ErrGenerationFailed)
	assert.ErrorIs(t, err, cms.ErrRequestFailed)
}

func TestNew(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	gen, err := ai.New(ctx, ai.Config{Provider: ai.ProviderCosmic}, fakeCosmic{})
	require.NoError(t, err)
	assert.IsType(t, &ai.CosmicGenerator{}, gen)

	_, err = ai.New(ctx, ai.Config{Provider: ai.ProviderCosmic}, nil)
	assert.ErrorIs(t, err, ai.ErrNotConfigured)

	gen, err = ai.New(ctx, ai.Config{Provider: ai.ProviderOpenAI, OpenAIAPIKey: "k"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &ai.OpenAIGenerator{}, gen)

	_, err = ai.New(ctx, ai.Config{Provider: "claude"}, nil)
	assert.ErrorIs(t, err, ai.ErrUnknownProvider)

	_, err = ai.Unavailable(errors.New("no key")).GenerateText(ctx, "p", 1)
	assert.ErrorIs(t, err, ai.ErrNotConfigured)
}
