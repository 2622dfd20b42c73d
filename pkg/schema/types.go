package schema

import "time"

// Role constants used in chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn in a conversation, in the caller's uniform shape.
// Adapters remap roles to whatever the vendor expects.
type Message struct {
	Role    string `json:"role" binding:"required,oneof=user assistant system"`
	Content string `json:"content" binding:"required"`
}

// ModelConfig carries the tuning parameters for one request. It is built once
// (usually by the manager) and never mutated afterwards.
type ModelConfig struct {
	ModelName        string
	ProviderName     string
	MaxTokens        int
	Temperature      float64 // [0, 2]
	TopP             float64 // [0, 1]
	FrequencyPenalty float64 // [-2, 2]
	PresencePenalty  float64 // [-2, 2]
	Stop             []string
	APIKeyOverride   string
	// Extra is passed through to the vendor verbatim.
	Extra map[string]any
}

// ModelUsage holds token counts and their USD cost for one response.
// TotalTokens and TotalCost are always the sum of their parts when both
// parts are known. During streaming, intermediate values are estimates;
// only the final chunk's usage is authoritative.
type ModelUsage struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	InputCost        float64 `json:"input_cost"`
	OutputCost       float64 `json:"output_cost"`
	TotalCost        float64 `json:"total_cost"`
}

// ModelResponse is the uniform result of a generation call. For streaming
// calls a fresh ModelResponse is produced per chunk and Text always holds
// the full accumulated output so far, never a bare delta.
type ModelResponse struct {
	ID           string      `json:"id"`
	Text         string      `json:"text"`
	Model        string      `json:"model"`
	Provider     string      `json:"provider"`
	Usage        ModelUsage  `json:"usage"`
	FinishReason string      `json:"finish_reason,omitempty"`
	Raw          any         `json:"-"` // diagnostic only, never parsed downstream
	CreatedAt    time.Time   `json:"created_at"`
	LatencyMS    int64       `json:"latency_ms"`
}

// ModelCapability names a feature (chat-completion, embeddings, vision,
// function-calling) and the models that support it.
type ModelCapability struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Models      []string `json:"models"`
}

// Capability names shared across adapters.
const (
	CapabilityChat            = "chat-completion"
	CapabilityEmbeddings      = "embeddings"
	CapabilityVision          = "vision"
	CapabilityFunctionCalling = "function-calling"
)

// CatalogEntry describes one model known to an adapter: identity, context
// window and pricing. Provider is filled in by the manager when entries are
// aggregated across adapters.
type CatalogEntry struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	ContextLength int     `json:"context_length"`
	InputPrice    float64 `json:"input_price"`
	OutputPrice   float64 `json:"output_price"`
	Provider      string  `json:"provider,omitempty"`
}
