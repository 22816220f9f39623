package email_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/emailcraft/pkg/email"
	"github.com/dmitrymomot/emailcraft/pkg/logger"
)

func validMessage() email.Message {
	return email.Message{
		To:      "jane@example.com",
		Subject: "Spring launch",
		HTML:    "<p>Hello Jane</p>",
		Tag:     "campaign-1",
	}
}

func TestMessageValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*email.Message)
		ok     bool
	}{
		{"valid", func(*email.Message) {}, true},
		{"bad recipient", func(m *email.Message) { m.To = "jane" }, false},
		{"empty subject", func(m *email.Message) { m.Subject = " " }, false},
		{"empty body", func(m *email.Message) { m.HTML = "" }, false},
		{"text body only", func(m *email.Message) { m.HTML = ""; m.Text = "hi" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			msg := validMessage()
			tt.modify(&msg)
			err := msg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, email.ErrInvalidMessage)
			}
		})
	}
}

func TestPostmarkSender(t *testing.T) {
	t.Parallel()

	t.Run("returns message id", func(t *testing.T) {
		t.Parallel()

		var got map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/email", r.URL.Path)
			assert.Equal(t, "server-token", r.Header.Get("X-Postmark-Server-Token"))
			_ = json.NewDecoder(r.Body).Decode(&got)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"To":"jane@example.com","MessageID":"pm-123","ErrorCode":0,"Message":"OK"}`))
		}))
		defer srv.Close()

		sender, err := email.NewPostmarkSender(email.Config{
			PostmarkServerToken: "server-token",
			From:                email.DefaultFrom,
		}, email.WithPostmarkBaseURL(srv.URL))
		require.NoError(t, err)

		id, err := sender.Send(context.Background(), validMessage())
		require.NoError(t, err)
		assert.Equal(t, "pm-123", id)
		assert.Equal(t, email.DefaultFrom, got["From"])
		assert.Equal(t, "jane@example.com", got["To"])
		assert.Equal(t, "Spring launch", got["Subject"])
	})

	t.Run("provider error code", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"ErrorCode":300,"Message":"Invalid email request"}`))
		}))
		defer srv.Close()

		sender, err := email.NewPostmarkSender(email.Config{PostmarkServerToken: "t"}, email.WithPostmarkBaseURL(srv.URL))
		require.NoError(t, err)

		_, err = sender.Send(context.Background(), validMessage())
		assert.ErrorIs(t, err, email.ErrFailedToSendEmail)
	})

	t.Run("invalid message never reaches the api", func(t *testing.T) {
		t.Parallel()

		sender, err := email.NewPostmarkSender(email.Config{PostmarkServerToken: "t"}, email.WithPostmarkBaseURL("http://127.0.0.1:1"))
		require.NoError(t, err)

		msg := validMessage()
		msg.To = "nope"
		_, err = sender.Send(context.Background(), msg)
		assert.ErrorIs(t, err, email.ErrInvalidMessage)
	})

	t.Run("token required", func(t *testing.T) {
		t.Parallel()
		_, err := email.NewPostmarkSender(email.Config{})
		assert.ErrorIs(t, err, email.ErrInvalidConfig)
	})
}

type sesMock struct {
	mock.Mock
}

func (m *sesMock) SendEmail(ctx context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*ses.SendEmailOutput)
	return out, args.Error(1)
}

func TestSESSender(t *testing.T) {
	t.Parallel()

	t.Run("maps the message", func(t *testing.T) {
		t.Parallel()

		client := &sesMock{}
		client.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendEmailInput) bool {
			return aws.ToString(in.Source) == "Team <team@example.com>" &&
				in.Destination.ToAddresses[0] == "jane@example.com" &&
				aws.ToString(in.Message.Subject.Data) == "Spring launch" &&
				aws.ToString(in.Message.Body.Html.Data) == "<p>Hello Jane</p>" &&
				in.ReplyToAddresses[0] == "support@example.com"
		})).Return(&ses.SendEmailOutput{MessageId: aws.String("ses-1")}, nil).Once()

		sender := email.NewSESSender(client, "Team <team@example.com>", "support@example.com")
		id, err := sender.Send(context.Background(), validMessage())
		require.NoError(t, err)
		assert.Equal(t, "ses-1", id)
		client.AssertExpectations(t)
	})

	t.Run("provider failure", func(t *testing.T) {
		t.Parallel()

		client := &sesMock{}
		client.On("SendEmail", mock.Anything, mock.Anything).Return(nil, errors.New("throttled")).Once()

		_, err := email.NewSESSender(client, "", "").Send(context.Background(), validMessage())
		assert.ErrorIs(t, err, email.ErrFailedToSendEmail)
		assert.ErrorContains(t, err, "throttled")
	})
}

func TestDevSender(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sender := email.NewDevSender(dir, "")

	id, err := sender.Send(context.Background(), validMessage())
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	htmlFiles, err := filepath.Glob(filepath.Join(dir, "*_spring-launch_*.html"))
	require.NoError(t, err)
	require.Len(t, htmlFiles, 1)
	body, err := os.ReadFile(htmlFiles[0])
	require.NoError(t, err)
	assert.Equal(t, "<p>Hello Jane</p>", string(body))

	jsonFiles, err := filepath.Glob(filepath.Join(dir, "*.json"))
	require.NoError(t, err)
	require.Len(t, jsonFiles, 1)
	raw, err := os.ReadFile(jsonFiles[0])
	require.NoError(t, err)

	var env map[string]string
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, id, env["id"])
	assert.Equal(t, email.DefaultFrom, env["from"])
	assert.Equal(t, "jane@example.com", env["to"])
}

func TestNew(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("postmark without token is not configured", func(t *testing.T) {
		t.Parallel()
		sender, err := email.New(ctx, email.Config{Provider: email.ProviderPostmark}, logger.Discard())
		require.NoError(t, err)
		_, err = sender.Send(ctx, validMessage())
		assert.ErrorIs(t, err, email.ErrNotConfigured)
		assert.False(t, email.Configured(sender))
	})

	t.Run("dev", func(t *testing.T) {
		t.Parallel()
		sender, err := email.New(ctx, email.Config{Provider: email.ProviderDev, DevDir: t.TempDir()}, logger.Discard())
		require.NoError(t, err)
		assert.IsType(t, &email.DevSender{}, sender)
		assert.True(t, email.Configured(sender))
	})

	t.Run("unknown provider", func(t *testing.T) {
		t.Parallel()
		_, err := email.New(ctx, email.Config{Provider: "carrier-pigeon"}, logger.Discard())
		assert.ErrorIs(t, err, email.ErrInvalidConfig)
	})
}
