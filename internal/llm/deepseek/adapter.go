// Package deepseek adapts the DeepSeek API, which speaks the OpenAI
// chat-completions wire format. DeepSeek has no embeddings endpoint, so
// Embeddings deliberately reports schema.ErrNotSupported.
package deepseek

import (
	"github.com/modelmux/modelmux/internal/config"
	"github.com/modelmux/modelmux/internal/llm"
	"github.com/modelmux/modelmux/internal/llm/openaicompat"
	"github.com/modelmux/modelmux/internal/llm/streaming"
	"github.com/modelmux/modelmux/internal/modeldata"
	"github.com/modelmux/modelmux/pkg/schema"
)

func init() {
	llm.Register("deepseek", NewAdapter)
}

func NewAdapter(cfg config.ProviderConfig) (llm.Provider, error) {
	return openaicompat.New(cfg, openaicompat.Options{
		Type:               "deepseek",
		DefaultLabel:       "DeepSeek",
		DefaultBaseURL:     "https://api.deepseek.com/v1",
		Catalog:            modeldata.DeepSeekModels,
		Pricing:            modeldata.DeepSeekPricing(),
		Capabilities:       capabilities(),
		SupportsEmbeddings: false,
		ModelPrefixes:      []string{"deepseek-"},
		Estimate:           streaming.EstimateChars,
	}), nil
}

func capabilities() []schema.ModelCapability {
	return []schema.ModelCapability{
		{
			Name:        schema.CapabilityChat,
			Description: "Chat completion with system, user and assistant roles",
			Models:      []string{"deepseek-chat", "deepseek-reasoner"},
		},
		{
			Name:        schema.CapabilityFunctionCalling,
			Description: "Structured tool invocation",
			Models:      []string{"deepseek-chat"},
		},
	}
}
