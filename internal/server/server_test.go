package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/modelmux/modelmux/internal/config"
	"github.com/modelmux/modelmux/internal/llm"
	"github.com/modelmux/modelmux/internal/manager"
	"github.com/modelmux/modelmux/internal/server"
	"github.com/modelmux/modelmux/internal/store/cache"
	"github.com/modelmux/modelmux/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubProvider struct {
	lastCfg *schema.ModelConfig
}

func (s *stubProvider) Name() string  { return "stub" }
func (s *stubProvider) Label() string { return "Stub" }

func (s *stubProvider) Models(ctx context.Context) []schema.CatalogEntry {
	return []schema.CatalogEntry{{ID: "stub-model", Name: "Stub Model", ContextLength: 4096}}
}

func (s *stubProvider) Capabilities() []schema.ModelCapability {
	return []schema.ModelCapability{
		{Name: schema.CapabilityChat, Description: "chat", Models: []string{"stub-model"}},
	}
}

func (s *stubProvider) ValidateKey(ctx context.Context) bool { return true }

func (s *stubProvider) GenerateText(ctx context.Context, prompt string, cfg *schema.ModelConfig) (*schema.ModelResponse, error) {
	return &schema.ModelResponse{ID: "r1", Text: "generated", Model: cfg.ModelName, Provider: "Stub"}, nil
}

func (s *stubProvider) Chat(ctx context.Context, messages []schema.Message, cfg *schema.ModelConfig) (*schema.ModelResponse, error) {
	s.lastCfg = cfg
	return &schema.ModelResponse{ID: "r1", Text: "pong", Model: cfg.ModelName, Provider: "Stub", FinishReason: "stop"}, nil
}

func (s *stubProvider) Stream(ctx context.Context, messages []schema.Message, cfg *schema.ModelConfig) (<-chan llm.StreamResult, error) {
	ch := make(chan llm.StreamResult, 2)
	ch <- llm.StreamResult{Response: &schema.ModelResponse{ID: "r1", Text: "po", Model: cfg.ModelName}}
	ch <- llm.StreamResult{Response: &schema.ModelResponse{ID: "r1", Text: "pong", Model: cfg.ModelName, FinishReason: "stop"}}
	close(ch)
	return ch, nil
}

func (s *stubProvider) Embeddings(ctx context.Context, texts []string, cfg *schema.ModelConfig) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{0.1, 0.2}
	}
	return out, nil
}

func newTestServer(t *testing.T) http.Handler {
	h, _ := newTestServerWithStub(t)
	return h
}

func newTestServerWithStub(t *testing.T) (http.Handler, *stubProvider) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	stub := &stubProvider{}
	m := manager.New()
	m.AddProvider("stub", stub)

	cfg := &config.Config{
		Server:    config.ServerConfig{Port: "0", Env: "test"},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
	}

	srv := server.New(cfg, zap.NewNop(), m, nil, cache.NewMemoryCache())
	return srv.Handler(), stub
}

func TestHealth(t *testing.T) {
	h := newTestServer(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(1), body["providers"])
}

func TestListModels(t *testing.T) {
	h := newTestServer(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/models", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Object string                `json:"object"`
		Data   []schema.CatalogEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "list", body.Object)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "stub-model", body.Data[0].ID)
	assert.Equal(t, "stub", body.Data[0].Provider)
}

func TestChatCompletion(t *testing.T) {
	h := newTestServer(t)

	payload := `{"model": "stub:stub-model", "messages": [{"role": "user", "content": "ping"}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/chat/completions", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp schema.ModelResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "pong", resp.Text)
	assert.Equal(t, "stop", resp.FinishReason)
}

func TestChatCompletionValidation(t *testing.T) {
	h := newTestServer(t)

	// missing messages
	payload := `{"model": "stub:stub-model"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/chat/completions", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var problem map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, "Validation Error", problem["title"])
	assert.Contains(t, problem, "errors")
}

func TestChatCompletionPenalties(t *testing.T) {
	h, stub := newTestServerWithStub(t)

	payload := `{"model": "stub:stub-model", "frequency_penalty": 0.5, "presence_penalty": -0.25,
		"messages": [{"role": "user", "content": "ping"}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/chat/completions", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, stub.lastCfg)
	assert.InDelta(t, 0.5, stub.lastCfg.FrequencyPenalty, 1e-9)
	assert.InDelta(t, -0.25, stub.lastCfg.PresencePenalty, 1e-9)

	// out of range rejects before reaching the provider
	payload = `{"model": "stub:stub-model", "frequency_penalty": 3,
		"messages": [{"role": "user", "content": "ping"}]}`
	w = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/api/v1/chat/completions", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatCompletionUnknownProvider(t *testing.T) {
	h := newTestServer(t)

	payload := `{"model": "ghost:model", "messages": [{"role": "user", "content": "hi"}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/chat/completions", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// streamRecorder adds the CloseNotifier contract gin's Stream relies on.
type streamRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func newStreamRecorder() *streamRecorder {
	return &streamRecorder{
		ResponseRecorder: httptest.NewRecorder(),
		closed:           make(chan bool),
	}
}

func (r *streamRecorder) CloseNotify() <-chan bool { return r.closed }

func TestChatCompletionStreaming(t *testing.T) {
	h := newTestServer(t)

	payload := `{"model": "stub:stub-model", "stream": true, "messages": [{"role": "user", "content": "ping"}]}`
	w := newStreamRecorder()
	req := httptest.NewRequest("POST", "/api/v1/chat/completions", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, `"text":"po"`)
	assert.Contains(t, body, `"text":"pong"`)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(body), "data: [DONE]"))
}

func TestGenerate(t *testing.T) {
	h := newTestServer(t)

	payload := `{"model": "stub:stub-model", "prompt": "hi"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/generate", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp schema.ModelResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "generated", resp.Text)
}

func TestEmbeddingsEndpoint(t *testing.T) {
	h := newTestServer(t)

	payload := `{"model": "stub:stub-model", "input": ["a", "b"]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/embeddings", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Model      string      `json:"model"`
		Embeddings [][]float64 `json:"embeddings"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Embeddings, 2)
}

func TestFallbackEndpoint(t *testing.T) {
	h := newTestServer(t)

	payload := `{"capability": "chat-completion"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/fallback", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Model string `json:"model"`
		Found bool   `json:"found"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Found)
	assert.Equal(t, "stub:stub-model", resp.Model)
}

func TestRecentRequestsDisabled(t *testing.T) {
	h := newTestServer(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/requests", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestModelInfoEndpoint(t *testing.T) {
	h := newTestServer(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/model?model=stub:stub-model", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Model *schema.CatalogEntry `json:"model"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Model)
	assert.Equal(t, "stub-model", resp.Model.ID)

	// missing query parameter
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/model", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
