package streaming

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SSEDecoder handles the OpenAI-style wire format: `data: {...}` lines with
// incremental deltas under choices[0].delta.content, terminated by the
// literal `data: [DONE]` sentinel. Mistral and DeepSeek share this framing.
type SSEDecoder struct{}

type sseFrame struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (d *SSEDecoder) Decode(line string) (Chunk, bool, error) {
	data, ok := strings.CutPrefix(line, "data: ")
	if !ok {
		return Chunk{}, false, nil
	}
	if data == "[DONE]" {
		c := Empty()
		c.Done = true
		return c, true, nil
	}

	var frame sseFrame
	if err := json.Unmarshal([]byte(data), &frame); err != nil {
		// partial or malformed frame, protocol noise
		return Chunk{}, false, nil
	}
	if frame.Error != nil {
		return Chunk{}, false, fmt.Errorf("stream error: %s", frame.Error.Message)
	}

	c := Empty()
	if frame.Usage != nil {
		c.PromptTokens = frame.Usage.PromptTokens
		c.CompletionTokens = frame.Usage.CompletionTokens
	}
	if len(frame.Choices) > 0 {
		c.Delta = frame.Choices[0].Delta.Content
		c.FinishReason = frame.Choices[0].FinishReason
	}
	return c, true, nil
}
