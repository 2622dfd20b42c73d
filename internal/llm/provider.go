package llm

import (
	"context"

	"github.com/modelmux/modelmux/pkg/schema"
)

// StreamResult is one unit of a streaming response. Exactly one of the
// fields is set. An Err result terminates the stream; text already
// delivered in earlier results is not retracted.
type StreamResult struct {
	Response *schema.ModelResponse
	Err      error
}

// Provider is the uniform contract every vendor adapter implements.
//
// Models and ValidateKey never return an error: transport failures degrade
// to the static catalog and false respectively. Everything else propagates
// failures unchanged; adapters do not retry.
type Provider interface {
	// Name is the registry key, e.g. "openai". Case-sensitive.
	Name() string

	// Label is the human-readable provider name, e.g. "OpenAI".
	Label() string

	// Models returns the best-known model catalog. On transport failure it
	// logs a warning and returns the static default table.
	Models(ctx context.Context) []schema.CatalogEntry

	// Capabilities is static and hand-curated per vendor; it performs no I/O.
	Capabilities() []schema.ModelCapability

	// ValidateKey makes one minimal request and reports whether the
	// configured credentials work. False on any failure.
	ValidateKey(ctx context.Context) bool

	// GenerateText is sugar over Chat with a single user message.
	GenerateText(ctx context.Context, prompt string, cfg *schema.ModelConfig) (*schema.ModelResponse, error)

	// Chat issues one non-streaming completion call.
	Chat(ctx context.Context, messages []schema.Message, cfg *schema.ModelConfig) (*schema.ModelResponse, error)

	// Stream issues a streaming completion call. Each result's Text holds
	// the full accumulated output; the final result carries best-known
	// usage and, when observed, a finish reason.
	Stream(ctx context.Context, messages []schema.Message, cfg *schema.ModelConfig) (<-chan StreamResult, error)

	// Embeddings returns one vector per input text. Vendors without an
	// embeddings endpoint return schema.ErrNotSupported.
	Embeddings(ctx context.Context, texts []string, cfg *schema.ModelConfig) ([][]float64, error)
}

// SupportsCapability reports whether a provider lists the model under the
// named capability.
func SupportsCapability(p Provider, capability, model string) bool {
	for _, c := range p.Capabilities() {
		if c.Name != capability {
			continue
		}
		for _, m := range c.Models {
			if m == model {
				return true
			}
		}
	}
	return false
}
