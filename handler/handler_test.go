package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/emailcraft/handler"
	"github.com/dmitrymomot/emailcraft/pkg/binder"
	"github.com/dmitrymomot/emailcraft/pkg/logger"
	"github.com/dmitrymomot/emailcraft/pkg/validator"
)

type createContactRequest struct {
	Email string `json:"email"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) handler.JSONResponse {
	t.Helper()
	var got handler.JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	return got
}

func TestWrap(t *testing.T) {
	t.Parallel()

	create := func(ctx handler.Context, req createContactRequest) handler.Response {
		if err := validator.Apply(validator.RequiredString("email", req.Email)); err != nil {
			return handler.JSONError(err)
		}
		return handler.JSON(map[string]string{"email": req.Email}, handler.WithJSONStatus(http.StatusCreated))
	}
	h := handler.Wrap(create,
		handler.WithBinders[handler.Context, createContactRequest](binder.JSON()),
		handler.WithErrorHandler[handler.Context, createContactRequest](handler.NewErrorHandler(logger.Discard())),
	)

	t.Run("created", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodPost, "/api/contacts", strings.NewReader(`{"email":"a@b.co"}`)))

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, map[string]any{"email": "a@b.co"}, decode(t, rec).Data)
	})

	t.Run("validation error is 400 with details", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodPost, "/api/contacts", strings.NewReader(`{}`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		got := decode(t, rec)
		require.NotNil(t, got.Error)
		assert.Equal(t, "validation_error", got.Error.Code)
		assert.Equal(t, map[string][]string{"email": {"field is required"}}, got.Error.Details)
	})

	t.Run("bind error is 400", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodPost, "/api/contacts", strings.NewReader(`{"email":`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "bad_request", decode(t, rec).Error.Code)
	})

	t.Run("wrong content type is 415", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodPost, "/api/contacts", strings.NewReader(`email=x`))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		h(rec, req)

		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})
}

func TestWrap_PathBinderAndDecorators(t *testing.T) {
	t.Parallel()

	type getRequest struct {
		ID string `path:"id"`
	}

	var order []string
	trace := func(name string) handler.Decorator[handler.Context, getRequest] {
		return func(next handler.HandlerFunc[handler.Context, getRequest]) handler.HandlerFunc[handler.Context, getRequest] {
			return func(ctx handler.Context, req getRequest) handler.Response {
				order = append(order, name)
				return next(ctx, req)
			}
		}
	}

	r := chi.NewRouter()
	r.Get("/api/templates/{id}", handler.Wrap(
		func(ctx handler.Context, req getRequest) handler.Response {
			if req.ID == "missing" {
				return handler.JSONError(handler.ErrNotFound.WithMessage("Template not found"))
			}
			return handler.JSON(map[string]string{"id": req.ID})
		},
		handler.WithBinders[handler.Context, getRequest](binder.Path(chi.URLParam)),
		handler.WithDecorators(trace("outer"), trace("inner")),
	))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/templates/t1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"id": "t1"}, decode(t, rec).Data)
	assert.Equal(t, []string{"outer", "inner"}, order)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/templates/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	got := decode(t, rec)
	assert.Equal(t, "not_found", got.Error.Code)
	assert.Equal(t, "Template not found", got.Error.Message)
}

func TestWrap_NilResponse(t *testing.T) {
	t.Parallel()

	h := handler.Wrap(func(ctx handler.Context, _ struct{}) handler.Response { return nil })
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decode(t, rec).Error.Code)
}

func TestJSONError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		opts     []handler.JSONOption
		wantCode int
		wantKey  string
		wantMsg  string
	}{
		{
			name:     "unknown error hides message",
			err:      errors.New("postgres: connection refused"),
			wantCode: http.StatusInternalServerError,
			wantKey:  "internal_error",
			wantMsg:  "An error occurred processing your request",
		},
		{
			name:     "wrapped http error",
			err:      errors.Join(errors.New("lookup"), handler.ErrNotFound),
			wantCode: http.StatusNotFound,
			wantKey:  "not_found",
			wantMsg:  "Not Found",
		},
		{
			name:     "status override",
			err:      handler.ErrInternal.WithMessage("Failed to send campaign"),
			opts:     []handler.JSONOption{handler.WithJSONStatus(http.StatusBadGateway)},
			wantCode: http.StatusBadGateway,
			wantKey:  "internal_error",
			wantMsg:  "Failed to send campaign",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			require.NoError(t, handler.JSONError(tt.err, tt.opts...).Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))

			assert.Equal(t, tt.wantCode, rec.Code)
			got := decode(t, rec)
			assert.Equal(t, tt.wantKey, got.Error.Code)
			assert.Equal(t, tt.wantMsg, got.Error.Message)
			assert.Nil(t, got.Data)
		})
	}
}

func TestJSON_MetaAndDetails(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	resp := handler.JSON([]string{"a"}, handler.WithJSONMeta(map[string]any{"total": 1}))
	require.NoError(t, resp.Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
	got := decode(t, rec)
	assert.Equal(t, []any{"a"}, got.Data)
	assert.Equal(t, map[string]any{"total": float64(1)}, got.Meta)

	rec = httptest.NewRecorder()
	resp = handler.JSONError(handler.ErrInternal, handler.WithJSONDetails(map[string][]string{"error": {"smtp down"}}))
	require.NoError(t, resp.Render(rec, httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, map[string][]string{"error": {"smtp down"}}, decode(t, rec).Error.Details)
}

func TestNewErrorHandler_Logs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	onError := handler.NewErrorHandler(log)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/campaigns/x", nil)
	onError(handler.NewContext(rec, req), handler.ErrNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), `"path":"/api/campaigns/x"`)
}

func TestEmpty(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	require.NoError(t, handler.Empty().Render(rec, httptest.NewRequest(http.MethodDelete, "/", nil)))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}
