// Package mistral adapts the Mistral "La Plateforme" API, which speaks the
// OpenAI chat-completions wire format.
package mistral

import (
	"github.com/modelmux/modelmux/internal/config"
	"github.com/modelmux/modelmux/internal/llm"
	"github.com/modelmux/modelmux/internal/llm/openaicompat"
	"github.com/modelmux/modelmux/internal/llm/streaming"
	"github.com/modelmux/modelmux/internal/modeldata"
	"github.com/modelmux/modelmux/pkg/schema"
)

func init() {
	llm.Register("mistral", NewAdapter)
}

func NewAdapter(cfg config.ProviderConfig) (llm.Provider, error) {
	return openaicompat.New(cfg, openaicompat.Options{
		Type:               "mistral",
		DefaultLabel:       "Mistral",
		DefaultBaseURL:     "https://api.mistral.ai/v1",
		Catalog:            modeldata.MistralModels,
		Pricing:            modeldata.MistralPricing(),
		Capabilities:       capabilities(),
		SupportsEmbeddings: true,
		ModelPrefixes:      []string{"mistral-", "open-mistral-", "open-mixtral-", "codestral-"},
		Estimate:           streaming.EstimateChars,
	}), nil
}

func capabilities() []schema.ModelCapability {
	return []schema.ModelCapability{
		{
			Name:        schema.CapabilityChat,
			Description: "Chat completion with system, user and assistant roles",
			Models:      []string{"mistral-large-latest", "mistral-small-latest", "open-mistral-nemo"},
		},
		{
			Name:        schema.CapabilityEmbeddings,
			Description: "Dense vector embeddings for text",
			Models:      []string{"mistral-embed"},
		},
		{
			Name:        schema.CapabilityFunctionCalling,
			Description: "Structured tool invocation",
			Models:      []string{"mistral-large-latest", "mistral-small-latest"},
		},
	}
}
