// Package openaicompat implements the OpenAI chat-completions wire format
// shared by the OpenAI, Mistral and DeepSeek adapters. The vendor packages
// supply their own catalog, pricing, capabilities and endpoint; everything
// on the wire is identical.
package openaicompat

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelmux/modelmux/internal/config"
	"github.com/modelmux/modelmux/internal/httpclient"
	"github.com/modelmux/modelmux/internal/llm"
	"github.com/modelmux/modelmux/internal/llm/pricing"
	"github.com/modelmux/modelmux/internal/llm/streaming"
	"github.com/modelmux/modelmux/internal/platform/logger"
	"github.com/modelmux/modelmux/pkg/schema"
	"go.uber.org/zap"
)

// Options parameterize the shared core for one vendor.
type Options struct {
	Type               string // factory type tag, also the VendorError attribution
	DefaultLabel       string
	DefaultBaseURL     string
	Catalog            []schema.CatalogEntry
	Pricing            *pricing.Table
	Capabilities       []schema.ModelCapability
	SupportsEmbeddings bool
	// ModelPrefixes filters the live /models listing down to chat and
	// embedding models; vendors list fine-tunes and media models there too.
	ModelPrefixes []string
	Estimate      streaming.EstimateFunc
}

type Adapter struct {
	cfg    config.ProviderConfig
	opts   Options
	client *http.Client
}

func New(cfg config.ProviderConfig, opts Options) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = opts.DefaultBaseURL
	}
	if cfg.Label == "" {
		cfg.Label = opts.DefaultLabel
	}
	if opts.Estimate == nil {
		opts.Estimate = streaming.EstimateChars
	}
	return &Adapter{
		cfg:    cfg,
		opts:   opts,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (a *Adapter) Name() string  { return a.cfg.Name }
func (a *Adapter) Label() string { return a.cfg.Label }

func (a *Adapter) Capabilities() []schema.ModelCapability {
	return a.opts.Capabilities
}

func (a *Adapter) headers(cfg *schema.ModelConfig) map[string]string {
	key := a.cfg.APIKey
	if cfg != nil && cfg.APIKeyOverride != "" {
		key = cfg.APIKeyOverride
	}
	h := map[string]string{"Authorization": "Bearer " + key}
	if org, ok := a.cfg.Config["organization"]; ok {
		h["OpenAI-Organization"] = org
	}
	return h
}

func (a *Adapter) url(path string) string {
	return strings.TrimRight(a.cfg.BaseURL, "/") + path
}

// buildBody assembles the request as a map so the config's free-form Extra
// entries pass through to the vendor verbatim.
func buildBody(messages []schema.Message, cfg *schema.ModelConfig, stream bool) map[string]any {
	msgs := make([]map[string]any, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, map[string]any{"role": m.Role, "content": m.Content})
	}

	body := map[string]any{
		"model":    cfg.ModelName,
		"messages": msgs,
	}
	if cfg.MaxTokens > 0 {
		body["max_tokens"] = cfg.MaxTokens
	}
	if cfg.Temperature > 0 {
		body["temperature"] = cfg.Temperature
	}
	if cfg.TopP > 0 {
		body["top_p"] = cfg.TopP
	}
	if cfg.FrequencyPenalty != 0 {
		body["frequency_penalty"] = cfg.FrequencyPenalty
	}
	if cfg.PresencePenalty != 0 {
		body["presence_penalty"] = cfg.PresencePenalty
	}
	if len(cfg.Stop) > 0 {
		body["stop"] = cfg.Stop
	}
	if stream {
		body["stream"] = true
		body["stream_options"] = map[string]any{"include_usage": true}
	}
	for k, v := range cfg.Extra {
		body[k] = v
	}
	return body
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func (a *Adapter) GenerateText(ctx context.Context, prompt string, cfg *schema.ModelConfig) (*schema.ModelResponse, error) {
	return a.Chat(ctx, []schema.Message{{Role: schema.RoleUser, Content: prompt}}, cfg)
}

func (a *Adapter) Chat(ctx context.Context, messages []schema.Message, cfg *schema.ModelConfig) (*schema.ModelResponse, error) {
	start := time.Now()
	body := buildBody(messages, cfg, false)

	var resp chatResponse
	if err := httpclient.SendRequest(ctx, a.client, "POST", a.url("/chat/completions"), a.headers(cfg), body, &resp); err != nil {
		return nil, llm.WrapVendorError(a.Name(), err)
	}

	text, finish := "", ""
	if len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Content
		finish = resp.Choices[0].FinishReason
	}

	usage := schema.ModelUsage{}
	if resp.Usage != nil {
		usage.PromptTokens = resp.Usage.PromptTokens
		usage.CompletionTokens = resp.Usage.CompletionTokens
	} else {
		usage.PromptTokens = streaming.EstimateMessages(contents(messages), a.opts.Estimate)
		usage.CompletionTokens = a.opts.Estimate(text)
	}
	a.opts.Pricing.Fill(cfg.ModelName, &usage)

	return &schema.ModelResponse{
		ID:           resp.ID,
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

	promptEstimate := streaming.EstimateMessages(contents(messages), a.opts.Estimate)
	acc := streaming.NewAccumulator(
		"chatcmpl-"+uuid.NewString(), cfg.ModelName, a.Label(),
		a.opts.Pricing, a.opts.Estimate, promptEstimate,
	)
	dec := &streaming.SSEDecoder{}

	go func() {
		defer close(ch)

		err := httpclient.StreamRequest(ctx, a.client, "POST", a.url("/chat/completions"), a.headers(cfg), body, func(line string) error {
			chunk, ok, err := dec.Decode(line)
			if err != nil {
				return err
			}
			if !ok || chunk.Done {
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
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func (a *Adapter) Embeddings(ctx context.Context, texts []string, cfg *schema.ModelConfig) ([][]float64, error) {
	if !a.opts.SupportsEmbeddings {
		return nil, fmt.Errorf("%s: embeddings: %w", a.Name(), schema.ErrNotSupported)
	}

	body := map[string]any{
		"model": cfg.ModelName,
		"input": texts,
	}
	var resp embeddingsResponse
	if err := httpclient.SendRequest(ctx, a.client, "POST", a.url("/embeddings"), a.headers(cfg), body, &resp); err != nil {
		return nil, llm.WrapVendorError(a.Name(), err)
	}

	out := make([][]float64, 0, len(resp.Data))
	for _, d := range resp.Data {
		out = append(out, d.Embedding)
	}
	return out, nil
}

type modelList struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (a *Adapter) Models(ctx context.Context) []schema.CatalogEntry {
	var list modelList
	if err := httpclient.SendRequest(ctx, a.client, "GET", a.url("/models"), a.headers(nil), nil, &list); err != nil {
		logger.Warn("model listing failed, using static catalog",
			zap.String("provider", a.Name()), zap.Error(err))
		return a.opts.Catalog
	}

	known := make(map[string]schema.CatalogEntry, len(a.opts.Catalog))
	for _, e := range a.opts.Catalog {
		known[e.ID] = e
	}

	var out []schema.CatalogEntry
	seen := make(map[string]bool)
	for _, m := range list.Data {
		if !a.relevantModel(m.ID) || seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		if e, ok := known[m.ID]; ok {
			out = append(out, e)
		} else {
			out = append(out, schema.CatalogEntry{ID: m.ID, Name: m.ID})
		}
	}
	// keep statically known models the live listing omitted
	for _, e := range a.opts.Catalog {
		if !seen[e.ID] {
			out = append(out, e)
		}
	}
	return out
}

func (a *Adapter) relevantModel(id string) bool {
	if len(a.opts.ModelPrefixes) == 0 {
		return true
	}
	for _, p := range a.opts.ModelPrefixes {
		if strings.HasPrefix(id, p) {
			return true
		}
	}
	return false
}

func (a *Adapter) ValidateKey(ctx context.Context) bool {
	var list modelList
	err := httpclient.SendRequest(ctx, a.client, "GET", a.url("/models"), a.headers(nil), nil, &list)
	return err == nil
}

func contents(messages []schema.Message) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.Content)
	}
	return out
}
