package streaming

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EventDecoder handles the Anthropic typed-event format. Each data line
// carries a "type": message_start delivers the authoritative prompt token
// count early, content_block_delta carries text deltas, message_delta
// carries the output token count and stop reason late, and message_stop
// closes the stream.
type EventDecoder struct{}

type anthropicEvent struct {
	Type  string `json:"type"`
	Delta *struct {
		Type       string `json:"type"`
		Text       string `json:"text"`
		StopReason string `json:"stop_reason"`
	} `json:"delta"`
	Message *struct {
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	} `json:"message"`
	Usage *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (d *EventDecoder) Decode(line string) (Chunk, bool, error) {
	data, ok := strings.CutPrefix(line, "data: ")
	if !ok {
		// `event:` lines are redundant with the type field in the data
		return Chunk{}, false, nil
	}

	var ev anthropicEvent
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		return Chunk{}, false, nil
	}

	c := Empty()
	switch ev.Type {
	case "message_start":
		if ev.Message != nil {
			c.PromptTokens = ev.Message.Usage.InputTokens
		}
	case "content_block_delta":
		if ev.Delta != nil && ev.Delta.Type == "text_delta" {
			c.Delta = ev.Delta.Text
		}
	case "message_delta":
		if ev.Usage != nil {
			c.CompletionTokens = ev.Usage.OutputTokens
		}
		if ev.Delta != nil {
			c.FinishReason = ev.Delta.StopReason
		}
	case "message_stop":
		c.Done = true
	case "error":
		msg := "unknown stream error"
		if ev.Error != nil {
			msg = ev.Error.Message
		}
		return Chunk{}, false, fmt.Errorf("stream error: %s", msg)
	default:
		// ping and future event types
		return Chunk{}, false, nil
	}
	return c, true, nil
}
