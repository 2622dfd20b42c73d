// Package anthropic adapts the Anthropic Messages API. System messages are
// folded into the top-level system field rather than the message list, and
// streaming arrives as typed SSE events.
package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modelmux/modelmux/internal/config"
	"github.com/modelmux/modelmux/internal/httpclient"
	"github.com/modelmux/modelmux/internal/llm"
	"github.com/modelmux/modelmux/internal/llm/pricing"
	"github.com/modelmux/modelmux/internal/llm/streaming"
	"github.com/modelmux/modelmux/internal/modeldata"
	"github.com/modelmux/modelmux/internal/platform/logger"
	"github.com/modelmux/modelmux/pkg/schema"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultVersion = "2023-06-01"

func init() {
	llm.Register("anthropic", NewAdapter)
}

type Adapter struct {
	cfg    config.ProviderConfig
	client *http.Client
	table  *pricing.Table
}

func NewAdapter(cfg config.ProviderConfig) (llm.Provider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com/v1"
	}
	if cfg.Label == "" {
		cfg.Label = "Anthropic"
	}
	return &Adapter{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
		table:  modeldata.AnthropicPricing(),
	}, nil
}

func (a *Adapter) Name() string  { return a.cfg.Name }
func (a *Adapter) Label() string { return a.cfg.Label }

func (a *Adapter) headers(cfg *schema.ModelConfig) map[string]string {
	key := a.cfg.APIKey
	if cfg != nil && cfg.APIKeyOverride != "" {
		key = cfg.APIKeyOverride
	}
	version := defaultVersion
	if v, ok := a.cfg.Config["version"]; ok {
		version = v
	}
	return map[string]string{
		"x-api-key":         key,
		"anthropic-version": version,
	}
}

func (a *Adapter) url(path string) string {
	return strings.TrimRight(a.cfg.BaseURL, "/") + path
}

// buildBody assembles the Messages API request. The body is a map so the
// config's Extra entries pass through verbatim.
func buildBody(messages []schema.Message, cfg *schema.ModelConfig, stream bool) map[string]any {
	var system strings.Builder
	msgs := make([]map[string]any, 0, len(messages))
	for _, m := range messages {
		if m.Role == schema.RoleSystem {
			system.WriteString(m.Content)
			system.WriteString("\n")
			continue
		}
		msgs = append(msgs, map[string]any{"role": m.Role, "content": m.Content})
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096 // the Messages API requires max_tokens
	}

	body := map[string]any{
		"model":      cfg.ModelName,
		"messages":   msgs,
		"max_tokens": maxTokens,
	}
	if system.Len() > 0 {
		body["system"] = system.String()
	}
	if cfg.Temperature > 0 {
		body["temperature"] = cfg.Temperature
	}
	if cfg.TopP > 0 {
		body["top_p"] = cfg.TopP
	}
	if len(cfg.Stop) > 0 {
		body["stop_sequences"] = cfg.Stop
	}
	if stream {
		body["stream"] = true
	}
	for k, v := range cfg.Extra {
		body[k] = v
	}
	return body
}

type messagesResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
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

	var resp messagesResponse
	if err := httpclient.SendRequest(ctx, a.client, "POST", a.url("/messages"), a.headers(cfg), body, &resp); err != nil {
		return nil, llm.WrapVendorError(a.Name(), err)
	}

	var text strings.Builder
	for _, c := range resp.Content {
		if c.Type == "text" {
			text.WriteString(c.Text)
		}
	}

	usage := schema.ModelUsage{
		PromptTokens:     resp.Usage.InputTokens,
		CompletionTokens: resp.Usage.OutputTokens,
	}
	a.table.Fill(cfg.ModelName, &usage)

	return &schema.ModelResponse{
		ID:           resp.ID,
		Text:         text.String(),
		Model:        cfg.ModelName,
		Provider:     a.Label(),
		Usage:        usage,
		FinishReason: resp.StopReason,
		Raw:          resp,
		CreatedAt:    time.Now(),
		LatencyMS:    time.Since(start).Milliseconds(),
	}, nil
}

func (a *Adapter) Stream(ctx context.Context, messages []schema.Message, cfg *schema.ModelConfig) (<-chan llm.StreamResult, error) {
	ch := make(chan llm.StreamResult)
	body := buildBody(messages, cfg, true)

	promptEstimate := streaming.EstimateMessages(contents(messages), streaming.EstimateChars)
	acc := streaming.NewAccumulator(
		"msg_"+uuid.NewString(), cfg.ModelName, a.Label(),
		a.table, streaming.EstimateChars, promptEstimate,
	)
	dec := &streaming.EventDecoder{}

	go func() {
		defer close(ch)

		err := httpclient.StreamRequest(ctx, a.client, "POST", a.url("/messages"), a.headers(cfg), body, func(line string) error {
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

// Embeddings has no Anthropic endpoint; this failure mode is documented
// behavior, not a gap.
func (a *Adapter) Embeddings(ctx context.Context, texts []string, cfg *schema.ModelConfig) ([][]float64, error) {
	return nil, fmt.Errorf("%s: embeddings: %w", a.Name(), schema.ErrNotSupported)
}

func (a *Adapter) Capabilities() []schema.ModelCapability {
	return []schema.ModelCapability{
		{
			Name:        schema.CapabilityChat,
			Description: "Chat completion with system, user and assistant roles",
			Models:      []string{"claude-3-opus-20240229", "claude-3-5-sonnet-20240620", "claude-3-haiku-20240307"},
		},
		{
			Name:        schema.CapabilityVision,
			Description: "Image understanding in chat messages",
			Models:      []string{"claude-3-opus-20240229", "claude-3-5-sonnet-20240620", "claude-3-haiku-20240307"},
		},
		{
			Name:        schema.CapabilityFunctionCalling,
			Description: "Structured tool invocation",
			Models:      []string{"claude-3-opus-20240229", "claude-3-5-sonnet-20240620"},
		},
	}
}

type modelList struct {
	Data []struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
	} `json:"data"`
}

func (a *Adapter) Models(ctx context.Context) []schema.CatalogEntry {
	var list modelList
	if err := httpclient.SendRequest(ctx, a.client, "GET", a.url("/models"), a.headers(nil), nil, &list); err != nil {
		logger.Warn("model listing failed, using static catalog",
			zap.String("provider", a.Name()), zap.Error(err))
		return modeldata.AnthropicModels
	}

	known := make(map[string]schema.CatalogEntry, len(modeldata.AnthropicModels))
	for _, e := range modeldata.AnthropicModels {
		known[e.ID] = e
	}

	var out []schema.CatalogEntry
	seen := make(map[string]bool)
	for _, m := range list.Data {
		seen[m.ID] = true
		if e, ok := known[m.ID]; ok {
			out = append(out, e)
			continue
		}
		name := m.DisplayName
		if name == "" {
			name = m.ID
		}
		out = append(out, schema.CatalogEntry{ID: m.ID, Name: name})
	}
	for _, e := range modeldata.AnthropicModels {
		if !seen[e.ID] {
			out = append(out, e)
		}
	}
	return out
}

func (a *Adapter) ValidateKey(ctx context.Context) bool {
	var list modelList
	err := httpclient.SendRequest(ctx, a.client, "GET", a.url("/models?limit=1"), a.headers(nil), nil, &list)
	return err == nil
}

func contents(messages []schema.Message) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.Content)
	}
	return out
}
