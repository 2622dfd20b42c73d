// Package google adapts the Gemini generateContent API. The assistant role
// maps to "model", system messages fold into systemInstruction, and
// streaming uses the alt=sse variant of streamGenerateContent.
package google

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
	"github.com/modelmux/modelmux/internal/modeldata"
	"github.com/modelmux/modelmux/internal/platform/logger"
	"github.com/modelmux/modelmux/pkg/schema"
	"go.uber.org/zap"
)

func init() {
	llm.Register("google", NewAdapter)
}

type Adapter struct {
	cfg    config.ProviderConfig
	client *http.Client
	table  *pricing.Table
}

func NewAdapter(cfg config.ProviderConfig) (llm.Provider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Label == "" {
		cfg.Label = "Google Gemini"
	}
	return &Adapter{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
		table:  modeldata.GooglePricing(),
	}, nil
}

func (a *Adapter) Name() string  { return a.cfg.Name }
func (a *Adapter) Label() string { return a.cfg.Label }

func (a *Adapter) key(cfg *schema.ModelConfig) string {
	if cfg != nil && cfg.APIKeyOverride != "" {
		return cfg.APIKeyOverride
	}
	return a.cfg.APIKey
}

func (a *Adapter) url(path, key string) string {
	base := strings.TrimRight(a.cfg.BaseURL, "/")
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s%skey=%s", base, path, sep, key)
}

func buildBody(messages []schema.Message, cfg *schema.ModelConfig) map[string]any {
	var system strings.Builder
	var contents []map[string]any
	for _, m := range messages {
		if m.Role == schema.RoleSystem {
			system.WriteString(m.Content)
			system.WriteString("\n")
			continue
		}
		role := m.Role
		if role == schema.RoleAssistant {
			role = "model"
		}
		contents = append(contents, map[string]any{
			"role":  role,
			"parts": []map[string]any{{"text": m.Content}},
		})
	}

	body := map[string]any{"contents": contents}
	if system.Len() > 0 {
		body["systemInstruction"] = map[string]any{
			"parts": []map[string]any{{"text": system.String()}},
		}
	}

	gen := map[string]any{}
	if cfg.MaxTokens > 0 {
		gen["maxOutputTokens"] = cfg.MaxTokens
	}
	if cfg.Temperature > 0 {
		gen["temperature"] = cfg.Temperature
	}
	if cfg.TopP > 0 {
		gen["topP"] = cfg.TopP
	}
	if len(cfg.Stop) > 0 {
		gen["stopSequences"] = cfg.Stop
	}
	if len(gen) > 0 {
		body["generationConfig"] = gen
	}
	for k, v := range cfg.Extra {
		body[k] = v
	}
	return body
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

func (a *Adapter) GenerateText(ctx context.Context, prompt string, cfg *schema.ModelConfig) (*schema.ModelResponse, error) {
	return a.Chat(ctx, []schema.Message{{Role: schema.RoleUser, Content: prompt}}, cfg)
}

func (a *Adapter) Chat(ctx context.Context, messages []schema.Message, cfg *schema.ModelConfig) (*schema.ModelResponse, error) {
	start := time.Now()
	key := a.key(cfg)
	url := a.url(fmt.Sprintf("/models/%s:generateContent", cfg.ModelName), key)

	var resp generateResponse
	if err := httpclient.SendRequest(ctx, a.client, "POST", url, nil, buildBody(messages, cfg), &resp); err != nil {
		return nil, llm.WrapVendorError(a.Name(), err)
	}

	var text strings.Builder
	finish := ""
	if len(resp.Candidates) > 0 {
		for _, p := range resp.Candidates[0].Content.Parts {
			text.WriteString(p.Text)
		}
		finish = resp.Candidates[0].FinishReason
	}

	usage := schema.ModelUsage{}
	if resp.UsageMetadata != nil {
		usage.PromptTokens = resp.UsageMetadata.PromptTokenCount
		usage.CompletionTokens = resp.UsageMetadata.CandidatesTokenCount
	} else {
		usage.PromptTokens = streaming.EstimateMessages(contents(messages), streaming.EstimateChars)
		usage.CompletionTokens = streaming.EstimateChars(text.String())
	}
	a.table.Fill(cfg.ModelName, &usage)

	return &schema.ModelResponse{
		ID:           "gen-" + uuid.NewString(),
		Text:         text.String(),
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
	key := a.key(cfg)
	url := a.url(fmt.Sprintf("/models/%s:streamGenerateContent?alt=sse", cfg.ModelName), key)

	promptEstimate := streaming.EstimateMessages(contents(messages), streaming.EstimateChars)
	acc := streaming.NewAccumulator(
		"gen-"+uuid.NewString(), cfg.ModelName, a.Label(),
		a.table, streaming.EstimateChars, promptEstimate,
	)
	dec := &streaming.GeminiDecoder{}

	go func() {
		defer close(ch)

		err := httpclient.StreamRequest(ctx, a.client, "POST", url, nil, buildBody(messages, cfg), func(line string) error {
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

type batchEmbedResponse struct {
	Embeddings []struct {
		Values []float64 `json:"values"`
	} `json:"embeddings"`
}

func (a *Adapter) Embeddings(ctx context.Context, texts []string, cfg *schema.ModelConfig) ([][]float64, error) {
	key := a.key(cfg)
	url := a.url(fmt.Sprintf("/models/%s:batchEmbedContents", cfg.ModelName), key)

	requests := make([]map[string]any, 0, len(texts))
	for _, t := range texts {
		requests = append(requests, map[string]any{
			"model":   "models/" + cfg.ModelName,
			"content": map[string]any{"parts": []map[string]any{{"text": t}}},
		})
	}

	var resp batchEmbedResponse
	if err := httpclient.SendRequest(ctx, a.client, "POST", url, nil, map[string]any{"requests": requests}, &resp); err != nil {
		return nil, llm.WrapVendorError(a.Name(), err)
	}

	out := make([][]float64, 0, len(resp.Embeddings))
	for _, e := range resp.Embeddings {
		out = append(out, e.Values)
	}
	return out, nil
}

func (a *Adapter) Capabilities() []schema.ModelCapability {
	return []schema.ModelCapability{
		{
			Name:        schema.CapabilityChat,
			Description: "Chat completion with system, user and assistant roles",
			Models:      []string{"gemini-1.5-pro", "gemini-1.5-flash"},
		},
		{
			Name:        schema.CapabilityEmbeddings,
			Description: "Dense vector embeddings for text",
			Models:      []string{"text-embedding-004"},
		},
		{
			Name:        schema.CapabilityVision,
			Description: "Image understanding in chat messages",
			Models:      []string{"gemini-1.5-pro", "gemini-1.5-flash"},
		},
		{
			Name:        schema.CapabilityFunctionCalling,
			Description: "Structured tool invocation",
			Models:      []string{"gemini-1.5-pro", "gemini-1.5-flash"},
		},
	}
}

type modelList struct {
	Models []struct {
		Name            string `json:"name"` // "models/gemini-1.5-pro"
		DisplayName     string `json:"displayName"`
		Description     string `json:"description"`
		InputTokenLimit int    `json:"inputTokenLimit"`
	} `json:"models"`
}

func (a *Adapter) Models(ctx context.Context) []schema.CatalogEntry {
	var list modelList
	if err := httpclient.SendRequest(ctx, a.client, "GET", a.url("/models", a.cfg.APIKey), nil, nil, &list); err != nil {
		logger.Warn("model listing failed, using static catalog",
			zap.String("provider", a.Name()), zap.Error(err))
		return modeldata.GoogleModels
	}

	known := make(map[string]schema.CatalogEntry, len(modeldata.GoogleModels))
	for _, e := range modeldata.GoogleModels {
		known[e.ID] = e
	}

	var out []schema.CatalogEntry
	seen := make(map[string]bool)
	for _, m := range list.Models {
		id := strings.TrimPrefix(m.Name, "models/")
		seen[id] = true
		if e, ok := known[id]; ok {
			out = append(out, e)
			continue
		}
		name := m.DisplayName
		if name == "" {
			name = id
		}
		out = append(out, schema.CatalogEntry{
			ID:            id,
			Name:          name,
			Description:   m.Description,
			ContextLength: m.InputTokenLimit,
		})
	}
	for _, e := range modeldata.GoogleModels {
		if !seen[e.ID] {
			out = append(out, e)
		}
	}
	return out
}

func (a *Adapter) ValidateKey(ctx context.Context) bool {
	var list modelList
	err := httpclient.SendRequest(ctx, a.client, "GET", a.url("/models?pageSize=1", a.cfg.APIKey), nil, nil, &list)
	return err == nil
}

func contents(messages []schema.Message) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.Content)
	}
	return out
}
