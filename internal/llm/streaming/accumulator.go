package streaming

import (
	"strings"
	"time"

	"github.com/modelmux/modelmux/internal/llm/pricing"
	"github.com/modelmux/modelmux/pkg/schema"
)

// Accumulator folds decoded chunks into successive ModelResponse values.
// It owns the cumulative text buffer and the opportunistic token tracking;
// decoders only supply the narrow per-frame decode step.
type Accumulator struct {
	id       string
	model    string
	provider string
	table    *pricing.Table
	estimate EstimateFunc

	text   strings.Builder
	start  time.Time
	finish string

	// vendor-reported counts, -1 until observed
	promptTokens     int
	completionTokens int
	// prompt-side estimate used until the vendor reports a real count
	promptEstimate int
}

// NewAccumulator creates an accumulator for one streaming call.
// promptEstimate is the adapter's estimate of the prompt token count, used
// until (unless) the vendor reports an authoritative one.
func NewAccumulator(id, model, provider string, table *pricing.Table, est EstimateFunc, promptEstimate int) *Accumulator {
	return &Accumulator{
		id:               id,
		model:            model,
		provider:         provider,
		table:            table,
		estimate:         est,
		start:            time.Now(),
		promptTokens:     -1,
		completionTokens: -1,
		promptEstimate:   promptEstimate,
	}
}

// Apply folds one chunk into the accumulator state. It returns a response
// to yield when the visible text grew, and nil for bookkeeping-only chunks
// (usage frames, finish markers). The returned response never carries a
// finish reason; that is reserved for Final.
func (a *Accumulator) Apply(c Chunk) *schema.ModelResponse {
	if c.PromptTokens >= 0 {
		a.promptTokens = c.PromptTokens
	}
	if c.CompletionTokens >= 0 {
		a.completionTokens = c.CompletionTokens
	}
	if c.FinishReason != "" {
		a.finish = c.FinishReason
	}

	grew := false
	if c.Delta != "" {
		a.text.WriteString(c.Delta)
		grew = true
	}
	if c.Full != "" {
		grew = a.fold(c.Full) || grew
	}
	if !grew {
		return nil
	}
	return a.snapshot()
}

// fold normalizes text whose framing does not distinguish delta from
// cumulative. Text that extends the current buffer as a prefix replaces
// it; anything else is treated as a delta and appended.
func (a *Accumulator) fold(full string) bool {
	cur := a.text.String()
	if strings.HasPrefix(full, cur) {
		if len(full) == len(cur) {
			return false
		}
		a.text.WriteString(full[len(cur):])
		return true
	}
	a.text.WriteString(full)
	return true
}

// Final produces the terminal response. It is always emitted, even when the
// vendor never sent a done sentinel or finish reason; usage falls back to
// the estimates when no real counts were observed.
func (a *Accumulator) Final() *schema.ModelResponse {
	resp := a.snapshot()
	resp.FinishReason = a.finish
	return resp
}

func (a *Accumulator) snapshot() *schema.ModelResponse {
	text := a.text.String()

	usage := schema.ModelUsage{
		PromptTokens:     a.promptTokens,
		CompletionTokens: a.completionTokens,
	}
	if usage.PromptTokens < 0 {
		usage.PromptTokens = a.promptEstimate
	}
	if usage.CompletionTokens < 0 {
		usage.CompletionTokens = a.estimate(text)
	}
	a.table.Fill(a.model, &usage)

	return &schema.ModelResponse{
		ID:        a.id,
		Text:      text,
		Model:     a.model,
		Provider:  a.provider,
		Usage:     usage,
		CreatedAt: time.Now(),
		LatencyMS: time.Since(a.start).Milliseconds(),
	}
}
