package api

import "github.com/modelmux/modelmux/pkg/schema"

// ListResponse wraps list endpoints in the conventional envelope.
type ListResponse[T any] struct {
	Object string `json:"object"`
	Data   []T    `json:"data"`
}

func NewListResponse[T any](data []T) ListResponse[T] {
	if data == nil {
		data = []T{}
	}
	return ListResponse[T]{Object: "list", Data: data}
}

// EmbeddingsResponse is the body returned by POST /api/v1/embeddings.
type EmbeddingsResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float64 `json:"embeddings"`
}

// FallbackResponse carries the selected identifier, or Found=false when no
// candidate survived the constraints.
type FallbackResponse struct {
	Model string `json:"model,omitempty"`
	Found bool   `json:"found"`
}

// StreamErrorFrame is the terminal SSE frame emitted when a stream fails
// mid-flight.
type StreamErrorFrame struct {
	Error string `json:"error"`
}

// ModelInfoResponse wraps GET /api/v1/models/info responses.
type ModelInfoResponse struct {
	Model *schema.CatalogEntry `json:"model"`
}
