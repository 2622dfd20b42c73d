package manager_test

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/modelmux/modelmux/internal/llm"
	"github.com/modelmux/modelmux/internal/manager"
	"github.com/modelmux/modelmux/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider is a minimal in-memory Provider for registry tests.
type stubProvider struct {
	name       string
	label      string
	catalog    []schema.CatalogEntry
	caps       []schema.ModelCapability
	modelCalls int
}

func (s *stubProvider) Name() string  { return s.name }
func (s *stubProvider) Label() string { return s.label }

func (s *stubProvider) Models(ctx context.Context) []schema.CatalogEntry {
	s.modelCalls++
	return s.catalog
}

func (s *stubProvider) Capabilities() []schema.ModelCapability { return s.caps }
func (s *stubProvider) ValidateKey(ctx context.Context) bool   { return true }

func (s *stubProvider) GenerateText(ctx context.Context, prompt string, cfg *schema.ModelConfig) (*schema.ModelResponse, error) {
	return &schema.ModelResponse{Text: "echo: " + prompt, Model: cfg.ModelName, Provider: s.label}, nil
}

func (s *stubProvider) Chat(ctx context.Context, messages []schema.Message, cfg *schema.ModelConfig) (*schema.ModelResponse, error) {
	return &schema.ModelResponse{Text: "chat", Model: cfg.ModelName, Provider: s.label}, nil
}

func (s *stubProvider) Stream(ctx context.Context, messages []schema.Message, cfg *schema.ModelConfig) (<-chan llm.StreamResult, error) {
	ch := make(chan llm.StreamResult, 1)
	ch <- llm.StreamResult{Response: &schema.ModelResponse{Text: "streamed", Model: cfg.ModelName}}
	close(ch)
	return ch, nil
}

func (s *stubProvider) Embeddings(ctx context.Context, texts []string, cfg *schema.ModelConfig) ([][]float64, error) {
	return nil, fmt.Errorf("%s: embeddings: %w", s.name, schema.ErrNotSupported)
}

func newStub(name string, models ...string) *stubProvider {
	var catalog []schema.CatalogEntry
	for _, m := range models {
		catalog = append(catalog, schema.CatalogEntry{ID: m, Name: m, ContextLength: 8192})
	}
	return &stubProvider{
		name:    name,
		label:   name,
		catalog: catalog,
		caps: []schema.ModelCapability{
			{Name: schema.CapabilityChat, Description: "chat", Models: models},
		},
	}
}

func TestParseIdentifier(t *testing.T) {
	provider, model, err := manager.ParseIdentifier("openai:gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, "openai", provider)
	assert.Equal(t, "gpt-4o", model)

	// model segment keeps its colons
	provider, model, err = manager.ParseIdentifier("qwen:qwen:extra")
	require.NoError(t, err)
	assert.Equal(t, "qwen", provider)
	assert.Equal(t, "qwen:extra", model)

	for _, bad := range []string{"", "openai", "openai:", ":gpt-4o", ":"} {
		_, _, err := manager.ParseIdentifier(bad)
		assert.ErrorIs(t, err, schema.ErrInvalidIdentifier, bad)
	}
}

func TestAddRemoveProvider(t *testing.T) {
	m := manager.New()
	m.AddProvider("a", newStub("a", "model-1"))
	m.AddProvider("b", newStub("b", "model-2"))

	assert.Equal(t, []string{"a", "b"}, m.ListProviders())

	// overwrite keeps insertion order
	m.AddProvider("a", newStub("a", "model-1b"))
	assert.Equal(t, []string{"a", "b"}, m.ListProviders())

	assert.True(t, m.RemoveProvider("a"))
	assert.False(t, m.RemoveProvider("a"))
	assert.Equal(t, []string{"b"}, m.ListProviders())
}

func TestListModelsAggregatesAndCaches(t *testing.T) {
	ctx := context.Background()
	a := newStub("a", "model-1")
	b := newStub("b", "model-2", "model-3")

	m := manager.New()
	m.AddProvider("a", a)
	m.AddProvider("b", b)

	models := m.ListModels(ctx)
	require.Len(t, models, 3)
	assert.Equal(t, "a", models[0].Provider)
	assert.Equal(t, "b", models[1].Provider)

	// second call is served from the cache
	m.ListModels(ctx)
	assert.Equal(t, 1, a.modelCalls)
	assert.Equal(t, 1, b.modelCalls)

	// registry change invalidates
	m.AddProvider("c", newStub("c", "model-4"))
	models = m.ListModels(ctx)
	assert.Len(t, models, 4)
	assert.Equal(t, 2, a.modelCalls)
}

func TestGetModelInfo(t *testing.T) {
	ctx := context.Background()
	m := manager.New()
	m.AddProvider("a", newStub("a", "model-1"))

	info, err := m.GetModelInfo(ctx, "a:model-1")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "model-1", info.ID)
	assert.Equal(t, "a", info.Provider)

	// unknown model under a known provider is a nil entry, not an error
	info, err = m.GetModelInfo(ctx, "a:nope")
	require.NoError(t, err)
	assert.Nil(t, info)

	_, err = m.GetModelInfo(ctx, "ghost:model-1")
	assert.ErrorIs(t, err, schema.ErrProviderNotFound)

	_, err = m.GetModelInfo(ctx, "no-colon")
	assert.ErrorIs(t, err, schema.ErrInvalidIdentifier)
}

func TestCreateModelConfig(t *testing.T) {
	ctx := context.Background()
	m := manager.New()
	m.AddProvider("a", newStub("a", "model-1"))

	cfg, err := m.CreateModelConfig(ctx, "a:model-1", 0.7, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "model-1", cfg.ModelName)
	assert.Equal(t, "a", cfg.ProviderName)
	assert.Equal(t, 8192, cfg.MaxTokens) // catalog context length
	assert.InDelta(t, 0.7, cfg.Temperature, 1e-9)

	// explicit max tokens wins
	cfg, err = m.CreateModelConfig(ctx, "a:model-1", 0, 256, nil)
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.MaxTokens)

	_, err = m.CreateModelConfig(ctx, "ghost:model-1", 0, 0, nil)
	assert.ErrorIs(t, err, schema.ErrProviderNotFound)
}

func TestDelegation(t *testing.T) {
	ctx := context.Background()
	m := manager.New()
	m.AddProvider("a", newStub("a", "model-1"))

	resp, err := m.GenerateText(ctx, "a:model-1", "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", resp.Text)
	assert.Equal(t, "model-1", resp.Model)

	_, err = m.Chat(ctx, "bad", nil, nil)
	assert.ErrorIs(t, err, schema.ErrInvalidIdentifier)

	_, err = m.Embeddings(ctx, "a:model-1", []string{"x"}, nil)
	assert.ErrorIs(t, err, schema.ErrNotSupported)

	ch, err := m.Stream(ctx, "a:model-1", []schema.Message{{Role: schema.RoleUser, Content: "hi"}}, nil)
	require.NoError(t, err)
	var got []llm.StreamResult
	for r := range ch {
		got = append(got, r)
	}
	require.Len(t, got, 1)
	assert.Equal(t, "streamed", got[0].Response.Text)
}

func TestListCapabilitiesDedupes(t *testing.T) {
	m := manager.New()
	m.AddProvider("a", newStub("a", "model-1"))
	m.AddProvider("b", newStub("b", "model-2"))

	caps := m.ListCapabilities()
	require.Len(t, caps, 1)
	assert.Equal(t, schema.CapabilityChat, caps[0].Name)
	// first registrant wins
	assert.Equal(t, []string{"model-1"}, caps[0].Models)
}

func TestRegionPartition(t *testing.T) {
	m := manager.New()
	m.AddProvider("openai", newStub("openai", "gpt-4o"))
	m.AddProvider("qwen", newStub("qwen", "qwen-max"))
	m.AddProvider("deepseek", newStub("deepseek", "deepseek-chat"))

	assert.Equal(t, []string{"openai"}, m.ListProvidersByRegion(manager.RegionGlobal))
	assert.Equal(t, []string{"qwen", "deepseek"}, m.ListProvidersByRegion(manager.RegionCN))

	cn := m.ListModelsByRegion(context.Background(), manager.RegionCN)
	require.Len(t, cn, 2)
	assert.Equal(t, "qwen-max", cn[0].ID)
}

func TestRegionOverride(t *testing.T) {
	m := manager.New(manager.WithRegions(map[string][]string{
		"eu": {"mistral"},
	}))
	m.AddProvider("mistral", newStub("mistral", "mistral-large"))
	m.AddProvider("qwen", newStub("qwen", "qwen-max"))

	assert.Equal(t, []string{"mistral"}, m.ListProvidersByRegion("eu"))
	// configured map replaces the built-in partition entirely
	assert.Equal(t, []string{"qwen"}, m.ListProvidersByRegion(manager.RegionGlobal))
	assert.Empty(t, m.ListProvidersByRegion(manager.RegionCN))
}

func TestFallbackPreferredProviders(t *testing.T) {
	ctx := context.Background()
	m := manager.New()
	m.AddProvider("a", newStub("a", "model-a"))
	m.AddProvider("b", newStub("b", "model-b"))
	m.AddProvider("c", newStub("c", "model-c"))

	// preference order is the caller's, not registration order
	id, ok := m.FallbackModel(ctx, manager.FallbackRequest{
		Capability:         schema.CapabilityChat,
		PreferredProviders: []string{"c", "a"},
	})
	require.True(t, ok)
	assert.Equal(t, "c:model-c", id)

	// an excluded preferred provider falls through to the next preference
	id, ok = m.FallbackModel(ctx, manager.FallbackRequest{
		Capability:         schema.CapabilityChat,
		PreferredProviders: []string{"c", "a"},
		ExcludedProviders:  []string{"c"},
	})
	require.True(t, ok)
	assert.Equal(t, "a:model-a", id)
}

func TestFallbackExclusions(t *testing.T) {
	ctx := context.Background()
	m := manager.New(manager.WithRand(rand.New(rand.NewSource(1))))
	m.AddProvider("a", newStub("a", "model-a"))
	m.AddProvider("b", newStub("b", "model-b"))

	id, ok := m.FallbackModel(ctx, manager.FallbackRequest{
		Capability:     schema.CapabilityChat,
		ExcludedModels: []string{"a:model-a"},
	})
	require.True(t, ok)
	assert.Equal(t, "b:model-b", id)

	_, ok = m.FallbackModel(ctx, manager.FallbackRequest{
		Capability:        schema.CapabilityChat,
		ExcludedProviders: []string{"a", "b"},
	})
	assert.False(t, ok)

	_, ok = m.FallbackModel(ctx, manager.FallbackRequest{Capability: "no-such-capability"})
	assert.False(t, ok)
}

func TestFallbackRandomTailIsSeedable(t *testing.T) {
	ctx := context.Background()

	pick := func(seed int64) string {
		m := manager.New(manager.WithRand(rand.New(rand.NewSource(seed))))
		m.AddProvider("a", newStub("a", "model-a"))
		m.AddProvider("b", newStub("b", "model-b"))
		m.AddProvider("c", newStub("c", "model-c"))
		id, ok := m.FallbackModel(ctx, manager.FallbackRequest{Capability: schema.CapabilityChat})
		require.True(t, ok)
		return id
	}

	// same seed, same choice
	assert.Equal(t, pick(42), pick(42))
}

func TestFallbackRegionConstraint(t *testing.T) {
	ctx := context.Background()
	m := manager.New()
	m.AddProvider("openai", newStub("openai", "gpt-4o"))
	m.AddProvider("qwen", newStub("qwen", "qwen-max"))

	id, ok := m.FallbackModel(ctx, manager.FallbackRequest{
		Capability: schema.CapabilityChat,
		Region:     manager.RegionCN,
	})
	require.True(t, ok)
	assert.Equal(t, "qwen:qwen-max", id)
}
