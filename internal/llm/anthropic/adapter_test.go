package anthropic_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/modelmux/modelmux/internal/config"
	"github.com/modelmux/modelmux/internal/llm"
	"github.com/modelmux/modelmux/internal/llm/anthropic"
	"github.com/modelmux/modelmux/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T, baseURL string) llm.Provider {
	t.Helper()
	adapter, err := anthropic.NewAdapter(config.ProviderConfig{
		Name:    "anthropic",
		Type:    "anthropic",
		APIKey:  "test-key",
		BaseURL: baseURL,
	})
	require.NoError(t, err)
	return adapter
}

func TestChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		// system messages fold into the top-level field
		assert.Equal(t, "Be brief.\n", body["system"])
		msgs := body["messages"].([]any)
		require.Len(t, msgs, 1)
		// max_tokens is always present
		assert.Equal(t, float64(4096), body["max_tokens"])

		_, _ = w.Write([]byte(`{
			"id": "msg_123",
			"model": "claude-3-5-sonnet-20240620",
			"content": [{"type": "text", "text": "Hi."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 15, "output_tokens": 3}
		}`))
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL)

	resp, err := adapter.Chat(context.Background(), []schema.Message{
		{Role: schema.RoleSystem, Content: "Be brief."},
		{Role: schema.RoleUser, Content: "Hello"},
	}, &schema.ModelConfig{ModelName: "claude-3-5-sonnet-20240620"})

	require.NoError(t, err)
	assert.Equal(t, "msg_123", resp.ID)
	assert.Equal(t, "Hi.", resp.Text)
	assert.Equal(t, "end_turn", resp.FinishReason)
	assert.Equal(t, 15, resp.Usage.PromptTokens)
	assert.Equal(t, 3, resp.Usage.CompletionTokens)
	assert.Equal(t, 18, resp.Usage.TotalTokens)
}

func TestStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		frames := []string{
			`event: message_start`,
			`data: {"type":"message_start","message":{"usage":{"input_tokens":25}}}`,
			`data: {"type":"content_block_delta","delta":{"type":"text_delta","text":"Once"}}`,
			`data: {"type":"ping"}`,
			`data: {"type":"content_block_delta","delta":{"type":"text_delta","text":" upon"}}`,
			`data: {"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":12}}`,
			`data: {"type":"message_stop"}`,
		}
		for _, f := range frames {
			fmt.Fprintf(w, "%s\n\n", f)
			flusher.Flush()
		}
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL)

	ch, err := adapter.Stream(context.Background(), []schema.Message{
		{Role: schema.RoleUser, Content: "Tell me a story"},
	}, &schema.ModelConfig{ModelName: "claude-3-5-sonnet-20240620"})
	require.NoError(t, err)

	var responses []*schema.ModelResponse
	for result := range ch {
		require.NoError(t, result.Err)
		responses = append(responses, result.Response)
	}

	require.Len(t, responses, 3)
	assert.Equal(t, "Once", responses[0].Text)
	assert.Equal(t, "Once upon", responses[1].Text)

	final := responses[2]
	assert.Equal(t, "Once upon", final.Text)
	assert.Equal(t, "end_turn", final.FinishReason)
	assert.Equal(t, 25, final.Usage.PromptTokens)
	assert.Equal(t, 12, final.Usage.CompletionTokens)
}

func TestStreamErrorEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"par\"}}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"error\",\"error\":{\"type\":\"overloaded_error\",\"message\":\"Overloaded\"}}\n\n")
		flusher.Flush()
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL)

	ch, err := adapter.Stream(context.Background(), []schema.Message{
		{Role: schema.RoleUser, Content: "Hi"},
	}, &schema.ModelConfig{ModelName: "claude-3-5-sonnet-20240620"})
	require.NoError(t, err)

	var sawText bool
	var lastErr error
	for result := range ch {
		if result.Err != nil {
			lastErr = result.Err
			continue
		}
		sawText = true
	}

	assert.True(t, sawText) // delivered text is not retracted
	require.Error(t, lastErr)
	assert.Contains(t, lastErr.Error(), "Overloaded")
}

// A consumer that cancels and abandons the channel must not strand the
// producer goroutine on the terminal send.
func TestStreamCancelledConsumer(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		frames := []string{
			`data: {"type":"content_block_delta","delta":{"type":"text_delta","text":"one"}}`,
			`data: {"type":"content_block_delta","delta":{"type":"text_delta","text":"two"}}`,
		}
		for _, f := range frames {
			fmt.Fprintf(w, "%s\n\n", f)
			flusher.Flush()
		}
		<-release
	}))
	defer server.Close()
	defer close(release)

	adapter := newTestAdapter(t, server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := adapter.Stream(ctx, []schema.Message{
		{Role: schema.RoleUser, Content: "Hi"},
	}, &schema.ModelConfig{ModelName: "claude-3-haiku-20240307"})
	require.NoError(t, err)

	first := <-ch
	require.NoError(t, first.Err)
	cancel()

	assert.Eventually(t, func() bool {
		buf := make([]byte, 1<<20)
		n := runtime.Stack(buf, true)
		return !strings.Contains(string(buf[:n]), "anthropic.(*Adapter).Stream")
	}, 2*time.Second, 20*time.Millisecond)
}

func TestEmbeddingsNotSupported(t *testing.T) {
	adapter := newTestAdapter(t, "http://localhost:0")

	_, err := adapter.Embeddings(context.Background(), []string{"x"}, &schema.ModelConfig{})
	assert.ErrorIs(t, err, schema.ErrNotSupported)
}

func TestVersionHeaderOverride(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-10-22", r.Header.Get("anthropic-version"))
		_, _ = w.Write([]byte(`{"id":"msg_1","content":[],"usage":{}}`))
	}))
	defer server.Close()

	adapter, err := anthropic.NewAdapter(config.ProviderConfig{
		Name:    "anthropic",
		APIKey:  "test-key",
		BaseURL: server.URL,
		Config:  map[string]string{"version": "2024-10-22"},
	})
	require.NoError(t, err)

	_, err = adapter.Chat(context.Background(), []schema.Message{
		{Role: schema.RoleUser, Content: "Hi"},
	}, &schema.ModelConfig{ModelName: "claude-3-haiku-20240307"})
	require.NoError(t, err)
}
