package streaming

import (
	"encoding/json"
	"fmt"
	"strings"
)

// GeminiDecoder handles the Gemini `alt=sse` format: `data: {...}` lines
// carrying candidate part deltas and a usageMetadata block. There is no
// done sentinel; the stream ends when the body does, with the last frame
// carrying finishReason.
type GeminiDecoder struct{}

type geminiFrame struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (d *GeminiDecoder) Decode(line string) (Chunk, bool, error) {
	data, ok := strings.CutPrefix(line, "data: ")
	if !ok {
		return Chunk{}, false, nil
	}

	var frame geminiFrame
	if err := json.Unmarshal([]byte(data), &frame); err != nil {
		return Chunk{}, false, nil
	}
	if frame.Error != nil {
		return Chunk{}, false, fmt.Errorf("stream error %d: %s", frame.Error.Code, frame.Error.Message)
	}

	c := Empty()
	if frame.UsageMetadata != nil {
		c.PromptTokens = frame.UsageMetadata.PromptTokenCount
		c.CompletionTokens = frame.UsageMetadata.CandidatesTokenCount
	}
	if len(frame.Candidates) > 0 {
		cand := frame.Candidates[0]
		var sb strings.Builder
		for _, p := range cand.Content.Parts {
			sb.WriteString(p.Text)
		}
		c.Delta = sb.String()
		c.FinishReason = cand.FinishReason
	}
	return c, true, nil
}
