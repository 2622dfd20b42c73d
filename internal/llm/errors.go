package llm

import (
	"encoding/json"
	"errors"

	"github.com/modelmux/modelmux/internal/httpclient"
	"github.com/modelmux/modelmux/pkg/schema"
)

// upstreamErrorBody covers the common `{"error": {"message": ...}}` shape
// that OpenAI-style vendors (and Anthropic, under a different key set)
// return alongside a non-2xx status.
type upstreamErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
	Message string `json:"message"` // DashScope puts the message at the top level
}

// WrapVendorError translates an httpclient failure into a schema.VendorError
// attributed to the named provider. Errors that are not upstream failures
// (marshalling, context cancellation) pass through unchanged.
func WrapVendorError(provider string, err error) error {
	if err == nil {
		return nil
	}
	var upstream *httpclient.UpstreamError
	if !errors.As(err, &upstream) {
		return err
	}

	msg := ""
	var parsed upstreamErrorBody
	if jsonErr := json.Unmarshal(upstream.Body, &parsed); jsonErr == nil {
		msg = parsed.Error.Message
		if msg == "" {
			msg = parsed.Message
		}
	}
	if msg == "" {
		msg = string(upstream.Body)
	}

	return &schema.VendorError{
		Provider:   provider,
		StatusCode: upstream.StatusCode,
		Message:    msg,
		Body:       upstream.Body,
	}
}
