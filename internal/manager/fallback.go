package manager

import (
	"context"

	"github.com/modelmux/modelmux/pkg/schema"
)

// Region tags. Without a configured region map, qwen and deepseek fall
// into "cn" and every other provider into "global". This partition is a
// documented simplification, not a geo-routing policy.
const (
	RegionGlobal = "global"
	RegionCN     = "cn"
)

var defaultCNProviders = map[string]bool{
	"qwen":     true,
	"deepseek": true,
}

func (m *Manager) regionOf(provider string) string {
	m.mu.RLock()
	regions := m.regions
	m.mu.RUnlock()

	if len(regions) > 0 {
		for region, names := range regions {
			for _, n := range names {
				if n == provider {
					return region
				}
			}
		}
		return RegionGlobal
	}
	if defaultCNProviders[provider] {
		return RegionCN
	}
	return RegionGlobal
}

// ListProvidersByRegion returns the registered providers tagged with the
// given region, in insertion order.
func (m *Manager) ListProvidersByRegion(region string) []string {
	var out []string
	for _, name := range m.ListProviders() {
		if m.regionOf(name) == region {
			out = append(out, name)
		}
	}
	return out
}

// ListModelsByRegion returns the aggregated catalog restricted to
// providers in the given region.
func (m *Manager) ListModelsByRegion(ctx context.Context, region string) []schema.CatalogEntry {
	var out []schema.CatalogEntry
	for _, e := range m.ListModels(ctx) {
		if m.regionOf(e.Provider) == region {
			out = append(out, e)
		}
	}
	return out
}

// FallbackRequest constrains fallback model selection.
type FallbackRequest struct {
	Capability         string
	PreferredProviders []string // walked in caller order
	ExcludedProviders  []string
	ExcludedModels     []string // full "provider:model" identifiers
	Region             string   // empty means any
}

// FallbackModel picks an alternate "provider:model" identifier supporting
// the capability. Preferred providers are honored deterministically in the
// caller's order; when none apply, the choice among the remaining
// candidates is uniformly random so unranked fallback does not bias toward
// registration order. The random source is injectable via WithRand.
func (m *Manager) FallbackModel(ctx context.Context, req FallbackRequest) (string, bool) {
	candidates := m.ListModelsByCapability(ctx, req.Capability)

	if req.Region != "" {
		var filtered []schema.CatalogEntry
		for _, e := range candidates {
			if m.regionOf(e.Provider) == req.Region {
				filtered = append(filtered, e)
			}
		}
		candidates = filtered
	}

	excludedProvider := make(map[string]bool, len(req.ExcludedProviders))
	for _, p := range req.ExcludedProviders {
		excludedProvider[p] = true
	}
	excludedModel := make(map[string]bool, len(req.ExcludedModels))
	for _, id := range req.ExcludedModels {
		excludedModel[id] = true
	}

	var remaining []schema.CatalogEntry
	for _, e := range candidates {
		id := e.Provider + ":" + e.ID
		if excludedProvider[e.Provider] || excludedModel[id] {
			continue
		}
		remaining = append(remaining, e)
	}
	if len(remaining) == 0 {
		return "", false
	}

	// first candidate of the first preferred provider wins
	for _, pref := range req.PreferredProviders {
		for _, e := range remaining {
			if e.Provider == pref {
				return e.Provider + ":" + e.ID, true
			}
		}
	}

	m.rngMu.Lock()
	pick := remaining[m.rng.Intn(len(remaining))]
	m.rngMu.Unlock()
	return pick.Provider + ":" + pick.ID, true
}
