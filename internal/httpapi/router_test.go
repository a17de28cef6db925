package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/memonest/internal/nest"
	"github.com/mesh-intelligence/memonest/pkg/types"
)

func setupServer(t *testing.T, mode string) *httptest.Server {
	t.Helper()
	f, err := nest.NewFactory(types.Config{Mode: mode}, zap.NewNop())
	require.NoError(t, err)
	srv := httptest.NewServer(NewRouter(f, zap.NewNop()).Setup())
	t.Cleanup(func() {
		srv.Close()
		f.Close()
	})
	return srv
}

// do sends a request and decodes the JSON response body.
func do(t *testing.T, srv *httptest.Server, method, path, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, r)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	return resp.StatusCode, got
}

func memoOf(t *testing.T, payload map[string]any) map[string]any {
	t.Helper()
	memo, ok := payload["memo"].(map[string]any)
	require.True(t, ok, "expected memo payload, got %v", payload)
	return memo
}

func TestHealth(t *testing.T) {
	srv := setupServer(t, types.ModeCollaboration)
	status, body := do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, types.ModeCollaboration, body["mode"])
}

func TestMemoRoutes(t *testing.T) {
	srv := setupServer(t, types.ModeCollaboration)

	status, body := do(t, srv, http.MethodPost, "/memo/create", `{"title":"Buy milk"}`)
	require.Equal(t, http.StatusOK, status)
	created := memoOf(t, body)
	assert.Equal(t, float64(1), created["id"])
	assert.Equal(t, "Buy milk", created["title"])
	assert.Equal(t, created["createdAt"], created["updatedAt"])

	status, body = do(t, srv, http.MethodPost, "/memo/create?title=Walk+dog", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Walk dog", memoOf(t, body)["title"])

	status, body = do(t, srv, http.MethodGet, "/memo/get?id=1", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Buy milk", memoOf(t, body)["title"])

	status, body = do(t, srv, http.MethodGet, "/memo/get_all", "")
	require.Equal(t, http.StatusOK, status)
	list, ok := body["list"].([]any)
	require.True(t, ok)
	assert.Len(t, list, 2)

	status, body = do(t, srv, http.MethodPut, "/memo/update", `{"id":1,"title":"Buy oat milk"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Buy oat milk", memoOf(t, body)["title"])

	status, body = do(t, srv, http.MethodDelete, "/memo/delete?id=1", "")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body)

	status, body = do(t, srv, http.MethodGet, "/memo/get?id=1", "")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body)
}

func TestBodyOverridesQuery(t *testing.T) {
	srv := setupServer(t, types.ModeCollaboration)

	status, body := do(t, srv, http.MethodPost, "/memo/create?title=query", `{"title":"body"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "body", memoOf(t, body)["title"])
}

func TestValidationErrors(t *testing.T) {
	srv := setupServer(t, types.ModeCollaboration)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   string
	}{
		{name: "missing title", method: http.MethodPost, path: "/memo/create", want: "Error code 1: Missing required field"},
		{name: "bad id format", method: http.MethodGet, path: "/memo/get?id=abc", want: "Error code 2: Invalid field format"},
		{name: "bad id value", method: http.MethodDelete, path: "/memo/delete?id=12abc", want: "Error code 3: Invalid field value"},
		{name: "json title object", method: http.MethodPost, path: "/memo/create", body: `{"title":{"a":1}}`, want: "Error code 3: Invalid field value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, srv, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, map[string]any{"error": tt.want}, body)
		})
	}
}

func TestInvalidBody(t *testing.T) {
	srv := setupServer(t, types.ModeCollaboration)

	status, body := do(t, srv, http.MethodPost, "/memo/create", `[1,2,3]`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "invalid request body")
}

func TestIsolationModeOverHTTP(t *testing.T) {
	srv := setupServer(t, types.ModeIsolation)

	status, _ := do(t, srv, http.MethodPost, "/memo/create", `{"title":"gone"}`)
	require.Equal(t, http.StatusOK, status)

	// Each request gets a fresh store.
	status, body := do(t, srv, http.MethodGet, "/memo/get_all", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"list": []any{}}, body)
}

func TestSingleUserModeOverHTTP(t *testing.T) {
	srv := setupServer(t, types.ModeSingleUser)

	_, _ = do(t, srv, http.MethodPost, "/memo/create", `{"title":"kept"}`)

	// Delete emits nothing, so the shared sink must not leak the previous payload.
	status, body := do(t, srv, http.MethodDelete, "/memo/delete?id=99", "")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body)
}

func TestMethodNotAllowed(t *testing.T) {
	srv := setupServer(t, types.ModeCollaboration)

	resp, err := srv.Client().Get(srv.URL + "/memo/create")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusOK, statusFor(0))
	assert.Equal(t, http.StatusBadRequest, statusFor(types.MissingRequiredField))
	assert.Equal(t, http.StatusBadRequest, statusFor(types.InvalidFieldValue))
	assert.Equal(t, http.StatusInternalServerError, statusFor(types.FailedToCreateMemo))
	assert.Equal(t, http.StatusInternalServerError, statusFor(types.FailedToGetAllMemos))
}
