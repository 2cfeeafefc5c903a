package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gitea.kood.tech/petrkubec/campus-compass/backend/compass"
	"gitea.kood.tech/petrkubec/campus-compass/backend/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testOrigin = "http://127.0.0.1:5173"

func testConfig() *Config {
	return &Config{
		Addr:           ":0",
		Env:            "test",
		JWTSecret:      "test-secret-key-for-testing",
		TokenTTL:       time.Hour,
		SessionTTL:     time.Minute,
		MaxSessions:    16,
		ChatRate:       100,
		ChatBurst:      100,
		AllowedOrigins: []string{testOrigin, "http://localhost:3001"},
	}
}

// newTestApp builds an app over the built-in catalog. mutate may tweak the
// config before the app is created.
func newTestApp(t *testing.T, mutate ...func(*Config)) *app {
	t.Helper()
	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}
	cs, err := store.NewMemoryStore(compass.DefaultCatalog())
	require.NoError(t, err)
	a, err := newApp(context.Background(), cfg, cs, zap.NewNop())
	require.NoError(t, err)
	return a
}

// do sends one request through the full router.
func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[map[string]string](t, rec)["error"]
}

func createSession(t *testing.T, h http.Handler) SessionResponse {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/session", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[SessionResponse](t, rec)
}

func TestNewAppRejectsEmptyCatalog(t *testing.T) {
	_, err := newApp(context.Background(), testConfig(), emptyStore{}, zap.NewNop())
	assert.ErrorIs(t, err, compass.ErrEmptyCatalog)
}

type emptyStore struct{ *store.MemoryStore }

func (emptyStore) Catalog(context.Context) (compass.Catalog, error) {
	return compass.Catalog{}, nil
}

func TestRouting(t *testing.T) {
	h := newTestApp(t).routes()

	t.Run("Health", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("Unknown path", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/nope", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, codeNotFound, errorCode(t, rec))
	})

	t.Run("Wrong method", func(t *testing.T) {
		for _, tc := range []struct{ method, path string }{
			{http.MethodGet, "/session"},
			{http.MethodPost, "/health"},
			{http.MethodGet, "/recommendations"},
			{http.MethodDelete, "/roommates/Gayu"},
			{http.MethodGet, "/chat"},
		} {
			rec := do(t, h, tc.method, tc.path, "", nil)
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, "%s %s", tc.method, tc.path)
			assert.Equal(t, codeInvalidMethod, errorCode(t, rec))
		}
	})

	t.Run("Preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
		req.Header.Set("Origin", testOrigin)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, testOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
