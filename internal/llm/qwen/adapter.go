// Package qwen adapts the DashScope text-generation API. Requests nest the
// messages under input and the tuning knobs under parameters; streaming
// needs the X-DashScope-SSE header and requests incremental_output, so
// chunks are decoded as deltas and appended as-is.
package qwen

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelmux/modelmux/internal/config"
	"github.com/modelmux/modelmux/internal/httpclient"
	"github.com/modelmux/modelmux/internal/llm"
	"github.com/modelmux/modelmux/internal/llm/pricing"
	"github.com/modelmux/modelmux/internal/llm/streaming"
	"github.com/modelmux/modelmux/internal/modeldata"
	"github.com/modelmux/modelmux/pkg/schema"
)

const (
	generationPath = "/services/aigc/text-generation/generation"
	embeddingsPath = "/services/embeddings/text-embedding/text-embedding"
)

func init() {
	llm.Register("qwen", NewAdapter)
}

type Adapter struct {
	cfg    config.ProviderConfig
	client *http.Client
	table  *pricing.Table
}

func NewAdapter(cfg config.ProviderConfig) (llm.Provider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://dashscope.aliyuncs.com/api/v1"
	}
	if cfg.Label == "" {
		cfg.Label = "Qwen"
	}
	return &Adapter{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
		table:  modeldata.QwenPricing(),
	}, nil
}

func (a *Adapter) Name() string  { return a.cfg.Name }
func (a *Adapter) Label() string { return a.cfg.Label }

func (a *Adapter) headers(cfg *schema.ModelConfig, stream bool) map[string]string {
	key := a.cfg.APIKey
	if cfg != nil && cfg.APIKeyOverride != "" {
		key = cfg.APIKeyOverride
	}
	h := map[string]string{"Authorization": "Bearer " + key}
	if stream {
		h["X-DashScope-SSE"] = "enable"
	}
	return h
}

func (a *Adapter) url(path string) string {
	return strings.TrimRight(a.cfg.BaseURL, "/") + path
}

func buildBody(messages []schema.Message, cfg *schema.ModelConfig, stream bool) map[string]any {
	msgs := make([]map[string]any, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, map[string]any{"role": m.Role, "content": m.Content})
	}

	params := map[string]any{"result_format": "message"}
	if cfg.MaxTokens > 0 {
		params["max_tokens"] = cfg.MaxTokens
	}
	if cfg.Temperature > 0 {
		params["temperature"] = cfg.Temperature
	}
	if cfg.TopP > 0 {
		params["top_p"] = cfg.TopP
	}
	if len(cfg.Stop) > 0 {
		params["stop"] = cfg.Stop
	}
	if stream {
		params["incremental_output"] = true
	}
	for k, v := range cfg.Extra {
		params[k] = v
	}

	return map[string]any{
		"model":      cfg.ModelName,
		"input":      map[string]any{"messages": msgs},
		"parameters": params,
	}
}

type generationResponse struct {
	RequestID string `json:"request_id"`
	Output    struct {
		Choices []struct {
			Message struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
	} `json:"output"`
	Usage *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (a *Adapter) GenerateText(ctx context.Context, prompt string, cfg *schema.ModelConfig) (*schema.ModelResponse, error) {
	return a.Chat(ctx, []schema.Message{{Role: schema.RoleUser, Content: prompt}}, cfg)
}

func (a *Adapter) Chat(ctx context.Context, messages []schema.Message, cfg *schema.ModelConfig) (*schema.ModelResponse, error) {
	start := time.Now()
	body := buildBody(messages, cfg, false)

	var resp generationResponse
	if err := httpclient.SendRequest(ctx, a.client, "POST", a.url(generationPath), a.headers(cfg, false), body, &resp); err != nil {
		return nil, llm.WrapVendorError(a.Name(), err)
	}

	text, finish := "", ""
	if len(resp.Output.Choices) > 0 {
		text = resp.Output.Choices[0].Message.Content
		finish = resp.Output.Choices[0].FinishReason
	}

	usage := schema.ModelUsage{}
	if resp.Usage != nil {
		usage.PromptTokens = resp.Usage.InputTokens
		usage.CompletionTokens = resp.Usage.OutputTokens
	} else {
		usage.PromptTokens = streaming.EstimateMessages(contents(messages), streaming.EstimateWords)
		usage.CompletionTokens = streaming.EstimateWords(text)
	}
	a.table.Fill(cfg.ModelName, &usage)

	id := resp.RequestID
	if id == "" {
		id = "gen-" + uuid.NewString()
	}

	return &schema.ModelResponse{
		ID:           id,
		Text:         text,
		Model:        cfg.ModelName,
		Provider:     a.Label(),
		Usage:        usage,
		FinishReason: finish,
		Raw:          resp,
		CreatedAt:    time.Now(),
		LatencyMS:    time.Since(start).Milliseconds(),
	}, nil
}

func (a *Adapter) Stream(ctx context.Context, messages []schema.Message, cfg *schema.ModelConfig) (<-chan llm.StreamResult, error) {
	ch := make(chan llm.StreamResult)
	body := buildBody(messages, cfg, true)

	promptEstimate := streaming.EstimateMessages(contents(messages), streaming.EstimateWords)
	acc := streaming.NewAccumulator(
		"gen-"+uuid.NewString(), cfg.ModelName, a.Label(),
		a.table, streaming.EstimateWords, promptEstimate,
	)
	dec := &streaming.DashScopeDecoder{Incremental: true}

	go func() {
		defer close(ch)

		err := httpclient.StreamRequest(ctx, a.client, "POST", a.url(generationPath), a.headers(cfg, true), body, func(line string) error {
			chunk, ok, err := dec.Decode(line)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if resp := acc.Apply(chunk); resp != nil {
				select {
				case ch <- llm.StreamResult{Response: resp}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})

		// the consumer may have cancelled and walked away; never block on
		// the terminal send
		if err != nil {
			select {
			case ch <- llm.StreamResult{Err: llm.WrapVendorError(a.Name(), err)}:
			case <-ctx.Done():
			}
			return
		}
		select {
		case ch <- llm.StreamResult{Response: acc.Final()}:
		case <-ctx.Done():
		}
	}()

	return ch, nil
}

type embeddingsResponse struct {
	Output struct {
		Embeddings []struct {
			Embedding []float64 `json:"embedding"`
			TextIndex int       `json:"text_index"`
		} `json:"embeddings"`
	} `json:"output"`
}

func (a *Adapter) Embeddings(ctx context.Context, texts []string, cfg *schema.ModelConfig) ([][]float64, error) {
	body := map[string]any{
		"model": cfg.ModelName,
		"input": map[string]any{"texts": texts},
	}
	var resp embeddingsResponse
	if err := httpclient.SendRequest(ctx, a.client, "POST", a.url(embeddingsPath), a.headers(cfg, false), body, &resp); err != nil {
		return nil, llm.WrapVendorError(a.Name(), err)
	}

	out := make([][]float64, len(resp.Output.Embeddings))
	for _, e := range resp.Output.Embeddings {
		if e.TextIndex >= 0 && e.TextIndex < len(out) {
			out[e.TextIndex] = e.Embedding
		}
	}
	return out, nil
}

func (a *Adapter) Capabilities() []schema.ModelCapability {
	return []schema.ModelCapability{
		{
			Name:        schema.CapabilityChat,
			Description: "Chat completion with system, user and assistant roles",
			Models:      []string{"qwen-max", "qwen-plus", "qwen-turbo"},
		},
		{
			Name:        schema.CapabilityEmbeddings,
			Description: "Dense vector embeddings for text",
			Models:      []string{"text-embedding-v2"},
		},
		{
			Name:        schema.CapabilityFunctionCalling,
			Description: "Structured tool invocation",
			Models:      []string{"qwen-max", "qwen-plus"},
		},
	}
}

// Models is static: DashScope has no model listing endpoint.
func (a *Adapter) Models(ctx context.Context) []schema.CatalogEntry {
	return modeldata.QwenModels
}

// ValidateKey issues a minimal one-token generation, the cheapest call that
// exercises auth on DashScope.
func (a *Adapter) ValidateKey(ctx context.Context) bool {
	cfg := &schema.ModelConfig{ModelName: "qwen-turbo", MaxTokens: 1}
	body := buildBody([]schema.Message{{Role: schema.RoleUser, Content: "ping"}}, cfg, false)
	var resp generationResponse
	err := httpclient.SendRequest(ctx, a.client, "POST", a.url(generationPath), a.headers(nil, false), body, &resp)
	return err == nil
}

func contents(messages []schema.Message) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.Content)
	}
	return out
}
