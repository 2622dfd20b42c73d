package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/modelmux/modelmux/internal/httpclient"
	"github.com/modelmux/modelmux/internal/llm"
	"github.com/modelmux/modelmux/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapVendorErrorNestedMessage(t *testing.T) {
	err := llm.WrapVendorError("openai", &httpclient.UpstreamError{
		StatusCode: 401,
		Body:       []byte(`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`),
		URL:        "https://api.openai.com/v1/chat/completions",
	})

	var vendor *schema.VendorError
	require.ErrorAs(t, err, &vendor)
	assert.Equal(t, "openai", vendor.Provider)
	assert.Equal(t, 401, vendor.StatusCode)
	assert.Equal(t, "Incorrect API key provided", vendor.Message)
}

func TestWrapVendorErrorTopLevelMessage(t *testing.T) {
	err := llm.WrapVendorError("qwen", &httpclient.UpstreamError{
		StatusCode: 429,
		Body:       []byte(`{"code": "Throttling", "message": "Requests throttled"}`),
	})

	var vendor *schema.VendorError
	require.ErrorAs(t, err, &vendor)
	assert.Equal(t, "Requests throttled", vendor.Message)
}

func TestWrapVendorErrorRawBodyFallback(t *testing.T) {
	err := llm.WrapVendorError("google", &httpclient.UpstreamError{
		StatusCode: 503,
		Body:       []byte("upstream connect error"),
	})

	var vendor *schema.VendorError
	require.ErrorAs(t, err, &vendor)
	assert.Equal(t, "upstream connect error", vendor.Message)
}

func TestWrapVendorErrorPassesThroughOtherErrors(t *testing.T) {
	assert.NoError(t, llm.WrapVendorError("openai", nil))

	plain := errors.New("dial tcp: connection refused")
	assert.Same(t, plain, llm.WrapVendorError("openai", plain))

	wrapped := llm.WrapVendorError("openai", context.Canceled)
	assert.ErrorIs(t, wrapped, context.Canceled)
	var vendor *schema.VendorError
	assert.False(t, errors.As(wrapped, &vendor))
}
