package binder_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/emailcraft/pkg/binder"
)

type sendRequest struct {
	CampaignID string   `json:"campaignId"`
	ContactIDs []string `json:"contactIds"`
}

func TestJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		contentType string
		body        string
		wantErr     error
		want        sendRequest
	}{
		{
			name:        "valid body",
			contentType: "application/json; charset=utf-8",
			body:        `{"campaignId":"c1","contactIds":["a","b"],"extra":true}`,
			want:        sendRequest{CampaignID: "c1", ContactIDs: []string{"a", "b"}},
		},
		{
			name: "missing content type is treated as json",
			body: `{"campaignId":"c2"}`,
			want: sendRequest{CampaignID: "c2"},
		},
		{
			name:        "wrong media type",
			contentType: "text/plain",
			body:        `{}`,
			wantErr:     binder.ErrUnsupportedMediaType,
		},
		{
			name:        "empty body",
			contentType: "application/json",
			wantErr:     binder.ErrFailedToParseJSON,
		},
		{
			name:        "malformed",
			contentType: "application/json",
			body:        `{"campaignId":`,
			wantErr:     binder.ErrFailedToParseJSON,
		},
		{
			name:        "trailing data",
			contentType: "application/json",
			body:        `{"campaignId":"c1"} {"x":1}`,
			wantErr:     binder.ErrFailedToParseJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/api/campaigns/send", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			var got sendRequest
			err := binder.JSON()(req, &got)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, binder.ErrInvalidRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPathAndQuery(t *testing.T) {
	t.Parallel()

	type listRequest struct {
		ID     string   `path:"id"`
		Status string   `query:"status"`
		Tags   []string `query:"tag"`
		Limit  int      `query:"limit"`
		Ignore string   `query:"-"`
	}

	var got listRequest
	r := chi.NewRouter()
	r.Get("/api/contacts/{id}", func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, binder.Path(chi.URLParam)(req, &got))
		require.NoError(t, binder.Query()(req, &got))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/contacts/abc123?status=subscribed&tag=vip,beta&tag=news&limit=5", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, listRequest{
		ID:     "abc123",
		Status: "subscribed",
		Tags:   []string{"vip", "beta", "news"},
		Limit:  5,
	}, got)

	t.Run("bad int", func(t *testing.T) {
		t.Parallel()
		var lr listRequest
		req := httptest.NewRequest(http.MethodGet, "/?limit=ten", nil)
		err := binder.Query()(req, &lr)
		assert.ErrorIs(t, err, binder.ErrFailedToParseQuery)
	})

	t.Run("non struct target", func(t *testing.T) {
		t.Parallel()
		var s string
		err := binder.Query()(httptest.NewRequest(http.MethodGet, "/", nil), &s)
		assert.ErrorIs(t, err, binder.ErrInvalidTarget)
	})
}

func multipartRequest(t *testing.T, field, filename, contentType string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestFile(t *testing.T) {
	t.Parallel()

	type uploadRequest struct {
		File *binder.FileUpload `file:"file"`
	}

	t.Run("reads the upload", func(t *testing.T) {
		t.Parallel()
		req := multipartRequest(t, "file", "../hero.png", "image/png", []byte("png-bytes"))

		var got uploadRequest
		require.NoError(t, binder.File(1024)(req, &got))
		require.NotNil(t, got.File)
		assert.Equal(t, "hero.png", got.File.Filename)
		assert.Equal(t, int64(9), got.File.Size)
		assert.Equal(t, "image/png", got.File.ContentType())
		assert.Equal(t, []byte("png-bytes"), got.File.Content)
	})

	t.Run("missing file leaves field nil", func(t *testing.T) {
		t.Parallel()
		req := multipartRequest(t, "other", "a.png", "image/png", []byte("x"))

		var got uploadRequest
		require.NoError(t, binder.File(1024)(req, &got))
		assert.Nil(t, got.File)
	})

	t.Run("too large", func(t *testing.T) {
		t.Parallel()
		req := multipartRequest(t, "file", "big.png", "image/png", bytes.Repeat([]byte("x"), 2048))

		var got uploadRequest
		err := binder.File(1024)(req, &got)
		assert.ErrorIs(t, err, binder.ErrFileTooLarge)
	})

	t.Run("not multipart", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")

		var got uploadRequest
		assert.ErrorIs(t, binder.File(1024)(req, &got), binder.ErrFailedToParseForm)
	})
}
