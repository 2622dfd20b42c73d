// Package pricing converts token counts into USD using per-vendor price
// tables. Each adapter owns one Table; the unit convention (per-token or
// per-1K-tokens) follows the vendor's published price sheet and is internal
// to the table.
package pricing

import (
	"regexp"
	"strings"
	"sync"

	"github.com/modelmux/modelmux/internal/platform/logger"
	"github.com/modelmux/modelmux/pkg/schema"
	"go.uber.org/zap"
)

// TokenKind selects which side of the price applies.
type TokenKind int

const (
	Input TokenKind = iota
	Output
)

// Unit is the denomination prices are stored in.
type Unit int

const (
	PerToken Unit = iota
	Per1K
)

// Price is the input/output price pair for one model, in the table's Unit.
type Price struct {
	Input  float64
	Output float64
}

// Table is a static pricing table for one vendor.
type Table struct {
	Vendor  string
	Unit    Unit
	Prices  map[string]Price
	Default Price

	mu     sync.Mutex
	warned map[string]struct{}
}

// dateSuffix matches trailing version stamps like -20240620, -2024-06-20
// or -0613 that vendors append to model IDs.
var dateSuffix = regexp.MustCompile(`-(\d{8}|\d{4}-\d{2}-\d{2}|\d{4})$`)

func normalize(model string) string {
	model = strings.TrimSuffix(model, "-latest")
	return dateSuffix.ReplaceAllString(model, "")
}

// lookup resolves the price for a model: exact match after suffix
// stripping, then longest substring match against table keys, then the
// vendor default (warned once per unknown model).
func (t *Table) lookup(model string) Price {
	base := normalize(model)
	if p, ok := t.Prices[base]; ok {
		return p
	}

	bestLen := 0
	var best Price
	for key, p := range t.Prices {
		if strings.Contains(base, key) && len(key) > bestLen {
			bestLen = len(key)
			best = p
		}
	}
	if bestLen > 0 {
		return best
	}

	t.mu.Lock()
	if t.warned == nil {
		t.warned = make(map[string]struct{})
	}
	if _, seen := t.warned[model]; !seen {
		t.warned[model] = struct{}{}
		logger.Warn("no pricing entry for model, using vendor default",
			zap.String("vendor", t.Vendor),
			zap.String("model", model))
	}
	t.mu.Unlock()

	return t.Default
}

// Cost returns the USD cost of tokens of the given kind for a model.
func (t *Table) Cost(model string, kind TokenKind, tokens int) float64 {
	p := t.lookup(model)
	price := p.Input
	if kind == Output {
		price = p.Output
	}
	cost := price * float64(tokens)
	if t.Unit == Per1K {
		cost /= 1000
	}
	return cost
}

// Fill computes the cost fields of a usage from its token counts and
// re-derives the totals so the additivity invariants hold.
func (t *Table) Fill(model string, u *schema.ModelUsage) {
	u.InputCost = t.Cost(model, Input, u.PromptTokens)
	u.OutputCost = t.Cost(model, Output, u.CompletionTokens)
	u.TotalCost = u.InputCost + u.OutputCost
	u.TotalTokens = u.PromptTokens + u.CompletionTokens
}
