package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satriahrh/model-compare/adapters/hasher"
	"github.com/satriahrh/model-compare/adapters/render"
	"github.com/satriahrh/model-compare/adapters/store"
	"github.com/satriahrh/model-compare/domain"
	"github.com/satriahrh/model-compare/usecase"
)

type stubLlm struct{}

func (stubLlm) Complete(_ context.Context, req domain.CompletionRequest) (string, error) {
	if req.Model.Provider == domain.ProviderAnthropic {
		return "", errors.New("missing api key")
	}
	return "Ahoy from " + req.Model.Name, nil
}

func newTestEcho(t *testing.T) (*echo.Echo, *usecase.CompareService) {
	t.Helper()
	renderer, err := render.NewRenderer()
	require.NoError(t, err)

	svc := usecase.NewCompareService(stubLlm{}, domain.DefaultModels(), store.NewMemoryStore(), nil)
	e := echo.New()
	NewCompareHandler(svc, renderer, hasher.NewETag()).Register(e)
	return e, svc
}

func do(e *echo.Echo, method, target string, body string, contentType string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func postForm(e *echo.Echo, target string, values url.Values) *httptest.ResponseRecorder {
	return do(e, http.MethodPost, target, values.Encode(), echo.MIMEApplicationForm)
}

func TestPageETag(t *testing.T) {
	e, _ := newTestEcho(t)

	first := do(e, http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, first.Code)
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.Contains(t, first.Body.String(), "AI Model Comparison")

	second := do(e, http.MethodGet, "/", "", "", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, second.Code)

	rec := postForm(e, "/messages", url.Values{"content": {"Hello"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	third := do(e, http.MethodGet, "/", "", "", "If-None-Match", etag)
	assert.Equal(t, http.StatusOK, third.Code)
	assert.NotEqual(t, etag, third.Header().Get("ETag"))
}

func TestSubmitMessageForm(t *testing.T) {
	e, svc := newTestEcho(t)

	rec := postForm(e, "/messages", url.Values{"content": {"Hello"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))

	turns := svc.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, "Hello", turns[0].Content)
	require.Len(t, turns[0].Responses, 3)
	assert.Equal(t, "Error: missing api key", turns[0].Responses[1].Content)

	page := do(e, http.MethodGet, "/", "", "")
	assert.Contains(t, page.Body.String(), "Ahoy from gpt-4o")
	assert.Contains(t, page.Body.String(), "Error: missing api key")
}

func TestSubmitEmptyMessage(t *testing.T) {
	e, svc := newTestEcho(t)

	rec := postForm(e, "/messages", url.Values{"content": {"  "}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.Turns())
}

func TestCreateMessageJSON(t *testing.T) {
	e, _ := newTestEcho(t)

	rec := do(e, http.MethodPost, "/api/v1/messages", `{"content":"Hello"}`, echo.MIMEApplicationJSON)
	require.Equal(t, http.StatusCreated, rec.Code)

	var turn domain.Turn
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &turn))
	assert.Equal(t, "Hello", turn.Content)
	require.Len(t, turn.Responses, 3)
	for _, r := range turn.Responses {
		assert.True(t, r.Content != "")
	}

	list := do(e, http.MethodGet, "/api/v1/turns", "", "")
	require.Equal(t, http.StatusOK, list.Code)
	var turns []domain.Turn
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &turns))
	assert.Len(t, turns, 1)
}

func TestClearTwoStepForm(t *testing.T) {
	e, svc := newTestEcho(t)
	for _, content := range []string{"one", "two"} {
		require.Equal(t, http.StatusSeeOther, postForm(e, "/messages", url.Values{"content": {content}}).Code)
	}

	rec := postForm(e, "/history/clear", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Len(t, svc.Turns(), 2)
	assert.Contains(t, do(e, http.MethodGet, "/", "", "").Body.String(), "/history/clear/confirm")

	rec = postForm(e, "/history/clear/confirm", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, svc.Turns())
}

func TestConfirmClearWithoutRequest(t *testing.T) {
	e, svc := newTestEcho(t)
	require.Equal(t, http.StatusSeeOther, postForm(e, "/messages", url.Values{"content": {"one"}}).Code)

	rec := do(e, http.MethodPost, "/api/v1/history/clear/confirm", "", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, svc.Turns(), 1)
}

func TestClearTwoStepAPI(t *testing.T) {
	e, _ := newTestEcho(t)
	require.Equal(t, http.StatusSeeOther, postForm(e, "/messages", url.Values{"content": {"one"}}).Code)

	rec := do(e, http.MethodPost, "/api/v1/history/clear", "", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp ClearResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, ClearResponse{Pending: true, Turns: 1}, resp)

	rec = do(e, http.MethodPost, "/api/v1/history/clear/confirm", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, ClearResponse{Turns: 0}, resp)
}

func TestCancelClear(t *testing.T) {
	e, svc := newTestEcho(t)
	require.Equal(t, http.StatusSeeOther, postForm(e, "/messages", url.Values{"content": {"one"}}).Code)

	require.Equal(t, http.StatusSeeOther, postForm(e, "/history/clear", nil).Code)
	assert.Contains(t, do(e, http.MethodGet, "/", "", "").Body.String(), "/history/clear/cancel")
	require.Equal(t, http.StatusSeeOther, postForm(e, "/history/clear/cancel", nil).Code)
	assert.False(t, svc.ClearPending())

	require.Equal(t, http.StatusAccepted, do(e, http.MethodPost, "/api/v1/history/clear", "", "").Code)
	rec := do(e, http.MethodDelete, "/api/v1/history/clear", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp ClearResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, ClearResponse{Turns: 1}, resp)

	assert.Equal(t, http.StatusConflict, do(e, http.MethodPost, "/api/v1/history/clear/confirm", "", "").Code)
	assert.Len(t, svc.Turns(), 1)
}

func TestSettingsForm(t *testing.T) {
	e, svc := newTestEcho(t)

	rec := postForm(e, "/settings", url.Values{"temperature": {"0.3"}, "system_message": {"Be terse."}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.InDelta(t, 0.3, svc.Settings().Temperature, 1e-9)
	assert.Equal(t, "Be terse.", svc.Settings().SystemMessage)

	rec = postForm(e, "/settings", url.Values{"temperature": {"abc"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postForm(e, "/settings", url.Values{"temperature": {"1.5"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.InDelta(t, 0.3, svc.Settings().Temperature, 1e-9)
}

func TestSettingsAPI(t *testing.T) {
	e, _ := newTestEcho(t)

	rec := do(e, http.MethodGet, "/api/v1/settings", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var settings domain.Settings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &settings))
	assert.Equal(t, domain.DefaultSettings(), settings)

	rec = do(e, http.MethodPut, "/api/v1/settings", `{"temperature":0.1,"system_message":"Plain English."}`, echo.MIMEApplicationJSON)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &settings))
	assert.Equal(t, domain.Settings{Temperature: 0.1, SystemMessage: "Plain English."}, settings)

	rec = do(e, http.MethodPut, "/api/v1/settings", `{"temperature":-1}`, echo.MIMEApplicationJSON)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSettingsAPIPartialUpdate(t *testing.T) {
	e, svc := newTestEcho(t)

	rec := do(e, http.MethodPut, "/api/v1/settings", `{"temperature":0.5}`, echo.MIMEApplicationJSON)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.Settings{Temperature: 0.5, SystemMessage: domain.DefaultSystemMessage}, svc.Settings())

	rec = do(e, http.MethodPut, "/api/v1/settings", `{"system_message":"Plain English."}`, echo.MIMEApplicationJSON)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.Settings{Temperature: 0.5, SystemMessage: "Plain English."}, svc.Settings())
}

func TestHealthAndModels(t *testing.T) {
	e, _ := newTestEcho(t)

	rec := do(e, http.MethodGet, "/api/v1/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)

	rec = do(e, http.MethodGet, "/api/v1/models", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var models []domain.Model
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &models))
	assert.Equal(t, domain.DefaultModels(), models)
}
