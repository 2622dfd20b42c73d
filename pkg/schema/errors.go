package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidIdentifier is returned for model identifiers that are not of
	// the form "provider:model". Raised before any adapter is touched.
	ErrInvalidIdentifier = errors.New("invalid model identifier, expected \"provider:model\"")

	// ErrProviderNotFound is returned when the provider segment of an
	// identifier has no registered adapter.
	ErrProviderNotFound = errors.New("provider not registered")

	// ErrNotSupported is returned when an operation has no vendor equivalent,
	// e.g. embeddings against a chat-only vendor.
	ErrNotSupported = errors.New("operation not supported by provider")
)

// VendorError wraps a non-2xx status or transport-level failure from a
// vendor call. Adapters translate their failures into this shape and let it
// propagate; neither adapters nor the manager retry.
type VendorError struct {
	Provider   string
	StatusCode int
	Message    string
	Body       []byte
}

func (e *VendorError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: vendor error %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: vendor error: %s", e.Provider, e.Message)
}
