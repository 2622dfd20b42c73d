// Package streaming normalizes vendor streaming wire formats into the
// uniform cumulative-text response protocol. A Decoder turns one transport
// line into a Chunk; the Accumulator enforces the shared invariants: text
// is always the full accumulated output, finish reasons only appear on the
// final response, and a final response with best-known usage is always
// produced.
package streaming

import (
	"strings"
)

// Chunk is the normalized content of one transport frame.
//
// Delta is text known to be incremental. Full is text whose framing does
// not say whether it is a delta or the whole output so far (DashScope);
// the Accumulator detects which by prefix comparison. Token counts are -1
// when the frame carries none.
type Chunk struct {
	Delta            string
	Full             string
	PromptTokens     int
	CompletionTokens int
	FinishReason     string
	Done             bool
}

// Empty returns a chunk with no content and unknown token counts.
func Empty() Chunk {
	return Chunk{PromptTokens: -1, CompletionTokens: -1}
}

// Decoder turns one line of a vendor stream into a Chunk.
//
// The second return value is false for protocol noise (comments, keepalives,
// malformed JSON), which the caller skips silently. A non-nil error is a
// typed vendor error frame and aborts the stream.
type Decoder interface {
	Decode(line string) (Chunk, bool, error)
}

// EstimateFunc approximates a token count from text. Estimates are
// vendor-local stand-ins used only while (or when) the vendor reports no
// real counts; they are never used for billing-critical paths.
type EstimateFunc func(text string) int

// EstimateChars is the chars/4 heuristic used by the OpenAI-family and
// Anthropic adapters.
func EstimateChars(text string) int {
	return len(text) / 4
}

// EstimateWords is the whitespace-token heuristic (words * 1.3) used by the
// DashScope adapter. The two heuristics are deliberately not unified.
func EstimateWords(text string) int {
	return int(float64(len(strings.Fields(text))) * 1.3)
}

// EstimateMessages applies an estimator to the concatenated message
// contents, for prompt-side estimates before any vendor count arrives.
func EstimateMessages(contents []string, est EstimateFunc) int {
	var sb strings.Builder
	for _, c := range contents {
		sb.WriteString(c)
		sb.WriteString(" ")
	}
	return est(sb.String())
}
