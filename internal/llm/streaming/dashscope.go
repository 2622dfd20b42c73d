package streaming

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DashScopeDecoder handles the DashScope SSE framing used by Qwen. Frames
// arrive as `data:{...}` (the space after the colon is optional) with the
// content nested under output.choices[0].message.content. The caller knows
// whether it asked for incremental_output: with Incremental set, content is
// a true delta and decodes as such; otherwise each frame carries the full
// cumulative text and the accumulator's prefix folding applies.
// finish_reason is the literal string "null" on intermediate frames.
type DashScopeDecoder struct {
	Incremental bool
}

type dashScopeFrame struct {
	Output struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
	} `json:"output"`
	Usage *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (d *DashScopeDecoder) Decode(line string) (Chunk, bool, error) {
	data, ok := strings.CutPrefix(line, "data:")
	if !ok {
		// id:/event: framing lines
		return Chunk{}, false, nil
	}
	data = strings.TrimPrefix(data, " ")

	var frame dashScopeFrame
	if err := json.Unmarshal([]byte(data), &frame); err != nil {
		return Chunk{}, false, nil
	}
	if frame.Code != "" {
		return Chunk{}, false, fmt.Errorf("stream error %s: %s", frame.Code, frame.Message)
	}

	c := Empty()
	if frame.Usage != nil {
		c.PromptTokens = frame.Usage.InputTokens
		c.CompletionTokens = frame.Usage.OutputTokens
	}
	if len(frame.Output.Choices) > 0 {
		choice := frame.Output.Choices[0]
		if d.Incremental {
			c.Delta = choice.Message.Content
		} else {
			c.Full = choice.Message.Content
		}
		if choice.FinishReason != "" && choice.FinishReason != "null" {
			c.FinishReason = choice.FinishReason
			c.Done = true
		}
	}
	return c, true, nil
}
