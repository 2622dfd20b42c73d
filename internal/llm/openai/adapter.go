package openai

import (
	"github.com/modelmux/modelmux/internal/config"
	"github.com/modelmux/modelmux/internal/llm"
	"github.com/modelmux/modelmux/internal/llm/openaicompat"
	"github.com/modelmux/modelmux/internal/llm/streaming"
	"github.com/modelmux/modelmux/internal/modeldata"
	"github.com/modelmux/modelmux/pkg/schema"
)

func init() {
	llm.Register("openai", NewAdapter)
}

func NewAdapter(cfg config.ProviderConfig) (llm.Provider, error) {
	return openaicompat.New(cfg, openaicompat.Options{
		Type:               "openai",
		DefaultLabel:       "OpenAI",
		DefaultBaseURL:     "https://api.openai.com/v1",
		Catalog:            modeldata.OpenAIModels,
		Pricing:            modeldata.OpenAIPricing(),
		Capabilities:       capabilities(),
		SupportsEmbeddings: true,
		ModelPrefixes:      []string{"gpt-", "chatgpt-", "o1", "text-embedding-"},
		Estimate:           streaming.EstimateChars,
	}), nil
}

func capabilities() []schema.ModelCapability {
	return []schema.ModelCapability{
		{
			Name:        schema.CapabilityChat,
			Description: "Chat completion with system, user and assistant roles",
			Models:      []string{"gpt-4o", "gpt-4o-mini", "gpt-4-turbo", "gpt-3.5-turbo"},
		},
		{
			Name:        schema.CapabilityEmbeddings,
			Description: "Dense vector embeddings for text",
			Models:      []string{"text-embedding-3-small", "text-embedding-3-large"},
		},
		{
			Name:        schema.CapabilityVision,
			Description: "Image understanding in chat messages",
			Models:      []string{"gpt-4o", "gpt-4o-mini", "gpt-4-turbo"},
		},
		{
			Name:        schema.CapabilityFunctionCalling,
			Description: "Structured tool invocation",
			Models:      []string{"gpt-4o", "gpt-4o-mini", "gpt-4-turbo", "gpt-3.5-turbo"},
		},
	}
}
