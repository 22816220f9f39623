package cms_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/emailcraft/pkg/cms"
)

func newCosmic(t *testing.T, h http.HandlerFunc) *cms.CosmicClient {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := cms.NewCosmicClient(cms.Config{
		BucketSlug: "emailcraft",
		ReadKey:    "read",
		WriteKey:   "write",
		APIURL:     srv.URL + "/v3",
		WorkersURL: srv.URL + "/workers/v3",
	})
	require.NoError(t, err)
	return c
}

func TestNewCosmicClient_RequiresKeys(t *testing.T) {
	t.Parallel()

	_, err := cms.NewCosmicClient(cms.Config{BucketSlug: "b"})
	assert.ErrorIs(t, err, cms.ErrNotConfigured)
}

func TestCosmicClient_Find(t *testing.T) {
	t.Parallel()

	c := newCosmic(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v3/buckets/emailcraft/objects", r.URL.Path)
		assert.Equal(t, "read", r.URL.Query().Get("read_key"))
		assert.Equal(t, "1", r.URL.Query().Get("depth"))
		assert.Equal(t, "id,title", r.URL.Query().Get("props"))

		var query map[string]any
		require.NoError(t, json.Unmarshal([]byte(r.URL.Query().Get("query")), &query))
		assert.Equal(t, "contacts", query["type"])
		assert.Equal(t, map[string]any{"$in": []any{"vip", "beta"}}, query["metadata.tags"])

		_, _ = w.Write([]byte(`{"objects":[{"id":"1","title":"ann","type":"contacts","metadata":{"email":"ann@example.com"}}],"total":7}`))
	})

	objs, total, err := c.Find(context.Background(), cms.Query{
		Type:   "contacts",
		Filter: map[string]any{"metadata.tags": []string{"vip", "beta"}},
		Props:  []string{"id", "title"},
		Depth:  1,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	require.Len(t, objs, 1)
	assert.Equal(t, "ann@example.com", objs[0].Meta("email"))
}

func TestCosmicClient_FindNotFoundIsEmpty(t *testing.T) {
	t.Parallel()

	c := newCosmic(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"No objects found"}`, http.StatusNotFound)
	})

	objs, total, err := c.Find(context.Background(), cms.Query{Type: "contacts"})
	require.NoError(t, err)
	assert.Empty(t, objs)
	assert.NotNil(t, objs)
	assert.Zero(t, total)
}

func TestCosmicClient_FindOne(t *testing.T) {
	t.Parallel()

	c := newCosmic(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v3/buckets/emailcraft/objects/abc":
			assert.Empty(t, r.URL.Query().Get("query"))
			_, _ = w.Write([]byte(`{"object":{"id":"abc","type":"campaigns","title":"Launch"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	obj, err := c.FindOne(context.Background(), cms.Query{Type: "campaigns", ID: "abc"})
	require.NoError(t, err)
	assert.Equal(t, "Launch", obj.Title)

	_, err = c.FindOne(context.Background(), cms.Query{Type: "contacts", ID: "abc"})
	assert.ErrorIs(t, err, cms.ErrNotFound)

	_, err = c.FindOne(context.Background(), cms.Query{Type: "campaigns", ID: "zzz"})
	assert.ErrorIs(t, err, cms.ErrNotFound)
}

func TestCosmicClient_Writes(t *testing.T) {
	t.Parallel()

	c := newCosmic(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer write", r.Header.Get("Authorization"))

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v3/buckets/emailcraft/objects":
			var in map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, "published", in["status"])
			assert.Equal(t, "contacts", in["type"])
			_, _ = w.Write([]byte(`{"object":{"id":"new","type":"contacts","title":"a@b.co"}}`))
		case r.Method == http.MethodPatch && r.URL.Path == "/v3/buckets/emailcraft/objects/new":
			var in map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			md := in["metadata"].(map[string]any)
			assert.Contains(t, md, "notes")
			assert.Nil(t, md["notes"])
			_, _ = w.Write([]byte(`{"object":{"id":"new","type":"contacts","title":"a@b.co"}}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/v3/buckets/emailcraft/objects/new":
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"boom"}`))
		}
	})

	ctx := context.Background()
	obj, err := c.InsertOne(ctx, cms.InsertInput{Title: "a@b.co", Type: "contacts"})
	require.NoError(t, err)
	assert.Equal(t, "new", obj.ID)

	_, err = c.UpdateOne(ctx, "new", cms.UpdateInput{Metadata: map[string]any{"notes": nil}})
	require.NoError(t, err)

	require.NoError(t, c.DeleteOne(ctx, "new"))
	assert.ErrorIs(t, c.DeleteOne(ctx, "gone"), cms.ErrNotFound)

	_, err = c.UpdateOne(ctx, "other", cms.UpdateInput{})
	require.ErrorIs(t, err, cms.ErrRequestFailed)
	var apiErr *cms.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "boom", apiErr.Message)
}

func TestCosmicClient_WriteWithoutKey(t *testing.T) {
	t.Parallel()

	c, err := cms.NewCosmicClient(cms.Config{BucketSlug: "b", ReadKey: "r", APIURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	_, err = c.InsertOne(context.Background(), cms.InsertInput{Title: "t", Type: "contacts"})
	assert.ErrorIs(t, err, cms.ErrNotConfigured)
}

func TestCosmicClient_UploadMedia(t *testing.T) {
	t.Parallel()

	c := newCosmic(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/workers/v3/buckets/emailcraft/media", r.URL.Path)
		assert.Equal(t, "Bearer write", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "template-images", r.FormValue("folder"))
		f, hdr, err := r.FormFile("media")
		require.NoError(t, err)
		defer f.Close()
		body, _ := io.ReadAll(f)
		assert.Equal(t, "logo.png", hdr.Filename)
		assert.Equal(t, "PNGDATA", string(body))

		_, _ = w.Write([]byte(`{"media":{"id":"m1","name":"logo-123.png","url":"https://cdn/logo-123.png"}}`))
	})

	m, err := c.UploadMedia(context.Background(), "logo.png", "image/png", "template-images", strings.NewReader("PNGDATA"))
	require.NoError(t, err)
	assert.Equal(t, "m1", m.ID)
	assert.Equal(t, "https://cdn/logo-123.png", m.URL)
}

func TestCosmicClient_GenerateText(t *testing.T) {
	t.Parallel()

	c := newCosmic(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/workers/v3/buckets/emailcraft/ai/text", r.URL.Path)

		var in map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "write a poem", in["prompt"])
		assert.EqualValues(t, 100, in["max_tokens"])

		_, _ = w.Write([]byte(`{"text":"roses","usage":{"input_tokens":3,"output_tokens":1}}`))
	})

	res, err := c.GenerateText(context.Background(), "write a poem", 100)
	require.NoError(t, err)
	assert.Equal(t, "roses", res.Text)
	assert.Equal(t, 3, res.Usage.InputTokens)

	_, err = c.GenerateText(context.Background(), "", 100)
	assert.ErrorIs(t, err, cms.ErrInvalidInput)
}
