// Package manager aggregates provider adapters behind "provider:model"
// identifiers, caches the merged catalog and capability list, and selects
// fallback models under capability, region and exclusion constraints.
package manager

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/modelmux/modelmux/internal/llm"
	"github.com/modelmux/modelmux/pkg/schema"
	"go.uber.org/zap"
)

// Manager owns the provider registry. It is constructed once at process
// start and passed by reference; there is no package-level instance.
//
// The registry and both caches are only mutated by AddProvider and
// RemoveProvider (clear, then rebuild on next read); readers see either the
// pre- or post-mutation state, never a partial one.
type Manager struct {
	mu        sync.RWMutex
	providers map[string]llm.Provider
	order     []string // provider insertion order, kept stable for catalog aggregation

	modelsList  []schema.CatalogEntry
	modelsCache map[string]schema.CatalogEntry // "provider:model" -> entry
	capsCache   []schema.ModelCapability

	regions map[string][]string
	logger  *zap.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

type Option func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithRand injects the random source used by fallback selection, so tests
// can pin the otherwise deliberately non-deterministic tail choice.
func WithRand(r *rand.Rand) Option {
	return func(m *Manager) { m.rng = r }
}

// WithRegions overrides the built-in region partition with a configured
// region -> provider-names map.
func WithRegions(regions map[string][]string) Option {
	return func(m *Manager) { m.regions = regions }
}

func New(opts ...Option) *Manager {
	m := &Manager{
		providers: make(map[string]llm.Provider),
		logger:    zap.NewNop(),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ParseIdentifier splits a "provider:model" identifier on its first colon.
func ParseIdentifier(identifier string) (provider, model string, err error) {
	provider, model, found := strings.Cut(identifier, ":")
	if !found || provider == "" || model == "" {
		return "", "", fmt.Errorf("%w: %q", schema.ErrInvalidIdentifier, identifier)
	}
	return provider, model, nil
}

// AddProvider registers an adapter under name and invalidates the caches.
// Re-registering an existing name overwrites it.
func (m *Manager) AddProvider(name string, p llm.Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.providers[name]; exists {
		m.logger.Info("overwriting registered provider", zap.String("provider", name))
	} else {
		m.order = append(m.order, name)
	}
	m.providers[name] = p
	m.invalidateLocked()
}

// RemoveProvider deletes a registration. It reports false when the name was
// never registered.
func (m *Manager) RemoveProvider(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.providers[name]; !exists {
		return false
	}
	delete(m.providers, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.invalidateLocked()
	return true
}

func (m *Manager) invalidateLocked() {
	m.modelsList = nil
	m.modelsCache = nil
	m.capsCache = nil
}

// ListProviders returns the registered provider names in insertion order.
func (m *Manager) ListProviders() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

func (m *Manager) provider(name string) (llm.Provider, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.providers[name]
	return p, ok
}

// snapshot returns the providers in insertion order without holding the
// lock across adapter calls.
func (m *Manager) snapshot() []llm.Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]llm.Provider, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.providers[name])
	}
	return out
}

// ListModels returns the aggregated catalog across all providers, each
// entry tagged with its provider name. The list is built lazily and cached
// until the registry changes.
func (m *Manager) ListModels(ctx context.Context) []schema.CatalogEntry {
	m.mu.RLock()
	cached := m.modelsList
	m.mu.RUnlock()
	if cached != nil {
		return cached
	}

	names := m.ListProviders()
	var list []schema.CatalogEntry
	index := make(map[string]schema.CatalogEntry)
	for _, name := range names {
		p, ok := m.provider(name)
		if !ok {
			continue
		}
		for _, e := range p.Models(ctx) {
			e.Provider = name
			list = append(list, e)
			index[name+":"+e.ID] = e
		}
	}

	m.mu.Lock()
	m.modelsList = list
	m.modelsCache = index
	m.mu.Unlock()
	return list
}

// ListModelsByProvider returns one provider's catalog.
func (m *Manager) ListModelsByProvider(ctx context.Context, name string) ([]schema.CatalogEntry, error) {
	p, ok := m.provider(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", schema.ErrProviderNotFound, name)
	}
	entries := p.Models(ctx)
	out := make([]schema.CatalogEntry, 0, len(entries))
	for _, e := range entries {
		e.Provider = name
		out = append(out, e)
	}
	return out, nil
}

// ListCapabilities returns the capability list de-duplicated by name; the
// first provider registering a name wins, keeping the aggregate stable in
// provider insertion order.
func (m *Manager) ListCapabilities() []schema.ModelCapability {
	m.mu.RLock()
	cached := m.capsCache
	m.mu.RUnlock()
	if cached != nil {
		return cached
	}

	names := m.ListProviders()
	var caps []schema.ModelCapability
	seen := make(map[string]bool)
	for _, name := range names {
		p, ok := m.provider(name)
		if !ok {
			continue
		}
		for _, c := range p.Capabilities() {
			if seen[c.Name] {
				continue
			}
			seen[c.Name] = true
			caps = append(caps, c)
		}
	}

	m.mu.Lock()
	m.capsCache = caps
	m.mu.Unlock()
	return caps
}

// ListModelsByCapability filters the aggregated catalog down to models
// whose owning adapter lists them under the named capability.
func (m *Manager) ListModelsByCapability(ctx context.Context, capability string) []schema.CatalogEntry {
	var out []schema.CatalogEntry
	for _, e := range m.ListModels(ctx) {
		p, ok := m.provider(e.Provider)
		if !ok {
			continue
		}
		if llm.SupportsCapability(p, capability, e.ID) {
			out = append(out, e)
		}
	}
	return out
}

// GetModelInfo resolves an identifier to its catalog entry: cache first,
// then a direct adapter query on miss. A miss does not repopulate the
// cache, so a partial adapter answer is never silently cached.
func (m *Manager) GetModelInfo(ctx context.Context, identifier string) (*schema.CatalogEntry, error) {
	providerName, modelName, err := ParseIdentifier(identifier)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	cache := m.modelsCache
	m.mu.RUnlock()
	if cache != nil {
		if e, ok := cache[identifier]; ok {
			return &e, nil
		}
	}

	p, ok := m.provider(providerName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", schema.ErrProviderNotFound, providerName)
	}
	for _, e := range p.Models(ctx) {
		if e.ID == modelName {
			e.Provider = providerName
			return &e, nil
		}
	}
	return nil, nil
}

// defaultMaxTokens is used when the catalog has no entry for the model.
const defaultMaxTokens = 4096

// CreateModelConfig builds an immutable per-request config for the model,
// resolving the max-token default from the catalog when the caller omits it.
func (m *Manager) CreateModelConfig(ctx context.Context, identifier string, temperature float64, maxTokens int, extra map[string]any) (*schema.ModelConfig, error) {
	providerName, modelName, err := ParseIdentifier(identifier)
	if err != nil {
		return nil, err
	}
	if _, ok := m.provider(providerName); !ok {
		return nil, fmt.Errorf("%w: %q", schema.ErrProviderNotFound, providerName)
	}

	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
		if info, err := m.GetModelInfo(ctx, identifier); err == nil && info != nil && info.ContextLength > 0 {
			maxTokens = info.ContextLength
		}
	}

	return &schema.ModelConfig{
		ModelName:    modelName,
		ProviderName: providerName,
		MaxTokens:    maxTokens,
		Temperature:  temperature,
		Extra:        extra,
	}, nil
}

func (m *Manager) resolve(identifier string) (llm.Provider, string, error) {
	providerName, modelName, err := ParseIdentifier(identifier)
	if err != nil {
		return nil, "", err
	}
	p, ok := m.provider(providerName)
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", schema.ErrProviderNotFound, providerName)
	}
	return p, modelName, nil
}

// configFor returns cfg with the identifier's provider/model filled in,
// building a default config when the caller passed none.
func (m *Manager) configFor(identifier, modelName, providerName string, cfg *schema.ModelConfig) *schema.ModelConfig {
	if cfg == nil {
		return &schema.ModelConfig{
			ModelName:    modelName,
			ProviderName: providerName,
			MaxTokens:    defaultMaxTokens,
		}
	}
	out := *cfg
	out.ModelName = modelName
	out.ProviderName = providerName
	return &out
}

// GenerateText resolves the identifier and delegates. Adapter failures
// propagate unchanged; the manager never retries.
func (m *Manager) GenerateText(ctx context.Context, identifier, prompt string, cfg *schema.ModelConfig) (*schema.ModelResponse, error) {
	p, modelName, err := m.resolve(identifier)
	if err != nil {
		return nil, err
	}
	return p.GenerateText(ctx, prompt, m.configFor(identifier, modelName, p.Name(), cfg))
}

// Chat resolves the identifier and delegates a non-streaming completion.
func (m *Manager) Chat(ctx context.Context, identifier string, messages []schema.Message, cfg *schema.ModelConfig) (*schema.ModelResponse, error) {
	p, modelName, err := m.resolve(identifier)
	if err != nil {
		return nil, err
	}
	return p.Chat(ctx, messages, m.configFor(identifier, modelName, p.Name(), cfg))
}

// Stream resolves the identifier and delegates a streaming completion.
func (m *Manager) Stream(ctx context.Context, identifier string, messages []schema.Message, cfg *schema.ModelConfig) (<-chan llm.StreamResult, error) {
	p, modelName, err := m.resolve(identifier)
	if err != nil {
		return nil, err
	}
	return p.Stream(ctx, messages, m.configFor(identifier, modelName, p.Name(), cfg))
}

// Embeddings resolves the identifier and delegates a batch embedding call.
func (m *Manager) Embeddings(ctx context.Context, identifier string, texts []string, cfg *schema.ModelConfig) ([][]float64, error) {
	p, modelName, err := m.resolve(identifier)
	if err != nil {
		return nil, err
	}
	return p.Embeddings(ctx, texts, m.configFor(identifier, modelName, p.Name(), cfg))
}
