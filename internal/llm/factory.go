package llm

import (
	"fmt"
	"sync"

	"github.com/modelmux/modelmux/internal/config"
)

// Factory builds a Provider from its configuration. Adapters register one
// per provider type in their init(), so the set of constructible providers
// is fixed at compile time; there is no reflection or dynamic loading.
type Factory func(cfg config.ProviderConfig) (Provider, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register installs a factory for a provider type. Double registration is a
// programming error.
func Register(providerType string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := factories[providerType]; exists {
		panic(fmt.Sprintf("provider factory %s already registered", providerType))
	}
	factories[providerType] = f
}

// New builds a provider of the given type.
func New(cfg config.ProviderConfig) (Provider, error) {
	mu.RLock()
	f, ok := factories[cfg.Type]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("provider factory not found for type: %s", cfg.Type)
	}
	return f(cfg)
}
