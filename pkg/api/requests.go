package api

import "github.com/modelmux/modelmux/pkg/schema"

// ChatRequest is the body of POST /api/v1/chat/completions. Model is a
// "provider:model" identifier.
type ChatRequest struct {
	Model            string           `json:"model" binding:"required"`
	Messages         []schema.Message `json:"messages" binding:"required,min=1,dive"`
	MaxTokens        int              `json:"max_tokens" binding:"omitempty,gt=0"`
	Temperature      float64          `json:"temperature" binding:"omitempty,gte=0,lte=2"`
	TopP             float64          `json:"top_p" binding:"omitempty,gte=0,lte=1"`
	FrequencyPenalty float64          `json:"frequency_penalty" binding:"omitempty,gte=-2,lte=2"`
	PresencePenalty  float64          `json:"presence_penalty" binding:"omitempty,gte=-2,lte=2"`
	Stop             []string         `json:"stop"`
	Stream           bool             `json:"stream"`
	// Extra is passed through to the vendor verbatim.
	Extra map[string]any `json:"extra"`
}

// GenerateRequest is the body of POST /api/v1/generate, the single-prompt
// convenience form of chat.
type GenerateRequest struct {
	Model       string  `json:"model" binding:"required"`
	Prompt      string  `json:"prompt" binding:"required"`
	MaxTokens   int     `json:"max_tokens" binding:"omitempty,gt=0"`
	Temperature float64 `json:"temperature" binding:"omitempty,gte=0,lte=2"`
	Stream      bool    `json:"stream"`
}

// EmbeddingsRequest is the body of POST /api/v1/embeddings.
type EmbeddingsRequest struct {
	Model string   `json:"model" binding:"required"`
	Input []string `json:"input" binding:"required,min=1,dive,required"`
}

// FallbackRequest is the body of POST /api/v1/fallback.
type FallbackRequest struct {
	Capability         string   `json:"capability" binding:"required"`
	PreferredProviders []string `json:"preferred_providers"`
	ExcludedProviders  []string `json:"excluded_providers"`
	ExcludedModels     []string `json:"excluded_models"`
	Region             string   `json:"region"`
}
