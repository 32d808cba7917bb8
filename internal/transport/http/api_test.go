package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notequiz/internal/app"
	"notequiz/internal/domain"
	"notequiz/internal/infra/memory"
	"notequiz/internal/telemetry"
)

const oneQuestion = `{"questions":[{"question":"2+2?","options":["3","4","5","6"],"answer":1}]}`

func TestModuleLifecycleOverHTTP(t *testing.T) {
	server, _ := newTestServer(t, stubCompleter{raw: oneQuestion})

	resp := do(t, server, http.MethodPost, "/api/modules", domain.GenerationRequest{Title: "Math", Text: "notes"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, server, http.MethodPost, "/api/login", loginRequest{Name: "Alice"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, server, http.MethodGet, "/api/me", nil)
	var user userResponse
	decode(t, resp, &user)
	assert.Equal(t, "Alice", user.Name)

	resp = do(t, server, http.MethodPost, "/api/modules", domain.GenerationRequest{Title: "Math", Text: "notes", QuestionCount: 1})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created domain.QuizModule
	decode(t, resp, &created)
	require.Len(t, created.Questions, 1)

	resp = do(t, server, http.MethodGet, "/api/modules", nil)
	var modules []domain.QuizModule
	decode(t, resp, &modules)
	require.Len(t, modules, 2)
	assert.Equal(t, created.ID, modules[0].ID)

	resp = do(t, server, http.MethodPost, "/api/modules/"+created.ID+"/score", scoreRequest{Score: 1400})
	var updated domain.QuizModule
	decode(t, resp, &updated)
	assert.Equal(t, 1400, updated.HighScore)

	resp = do(t, server, http.MethodPost, "/api/modules/"+created.ID+"/score", scoreRequest{Score: 10})
	decode(t, resp, &updated)
	assert.Equal(t, 1400, updated.HighScore)

	resp = do(t, server, http.MethodPost, "/api/modules/unknown/score", scoreRequest{Score: 10})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, server, http.MethodGet, "/api/modules/unknown", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, server, http.MethodPost, "/api/logout", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, server, http.MethodGet, "/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateModuleErrors(t *testing.T) {
	tests := map[string]struct {
		completer stubCompleter
		req       domain.GenerationRequest
		status    int
	}{
		"missing title":    {completer: stubCompleter{raw: oneQuestion}, req: domain.GenerationRequest{Text: "notes"}, status: http.StatusBadRequest},
		"upstream failure": {completer: stubCompleter{err: errors.New("unavailable")}, req: domain.GenerationRequest{Title: "t", Text: "notes"}, status: http.StatusBadGateway},
		"malformed output": {completer: stubCompleter{raw: `[{"question":"q"}]`}, req: domain.GenerationRequest{Title: "t", Text: "notes"}, status: http.StatusBadGateway},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			server, store := newTestServer(t, tt.completer)
			store.SetCurrentUser("Alice")

			resp := do(t, server, http.MethodPost, "/api/modules", tt.req)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Len(t, store.Modules(), 1)
		})
	}
}

func TestHealthz(t *testing.T) {
	server, _ := newTestServer(t, stubCompleter{})
	resp := do(t, server, http.MethodGet, "/healthz", nil)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "ok", string(body))
}

func newTestServer(t *testing.T, completer stubCompleter) (*httptest.Server, *memory.ModuleStore) {
	t.Helper()
	store := memory.NewModuleStore(memory.DemoModule())
	service := app.NewService(store, app.NewGenerator(completer, store),
		app.WithGameConfig(app.GameConfig{Tick: time.Hour}),
	)
	metrics := telemetry.NewMetrics()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	api := NewAPI(service, metrics, logger)
	server := httptest.NewServer(api.Routes(NewGameHandler(service, metrics, logger), nil))
	t.Cleanup(server.Close)
	return server, store
}

func do(t *testing.T, server *httptest.Server, method, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

type stubCompleter struct {
	raw string
	err error
}

func (s stubCompleter) Complete(context.Context, domain.GenerationPrompt) (string, error) {
	return s.raw, s.err
}
