package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/modelmux/modelmux/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("CONFIG_FILE", path)
}

func TestLoadConfigDefaults(t *testing.T) {
	writeConfig(t, "server:\n  env: development\n")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.False(t, cfg.Database.Enabled)
	assert.InDelta(t, 10.0, cfg.RateLimit.RequestsPerSecond, 1e-9)
	assert.Equal(t, 20, cfg.RateLimit.Burst)

	// with no providers block, the built-in six apply
	require.Len(t, cfg.Providers, 6)
	names := make([]string, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"openai", "anthropic", "google", "mistral", "deepseek", "qwen"}, names)
}

func TestLoadConfigResolvesEnvKeys(t *testing.T) {
	writeConfig(t, `
providers:
  - name: openai
    type: openai
    api_key: "ENV:TEST_OPENAI_KEY"
  - name: literal
    type: openai
    api_key: "sk-literal"
`)
	t.Setenv("TEST_OPENAI_KEY", "sk-from-env")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	require.Len(t, cfg.Providers, 2)
	assert.Equal(t, "sk-from-env", cfg.Providers[0].APIKey)
	assert.Equal(t, "sk-literal", cfg.Providers[1].APIKey)
}

func TestLoadConfigMissingEnvKeyIsEmpty(t *testing.T) {
	writeConfig(t, `
providers:
  - name: openai
    type: openai
    api_key: "ENV:DEFINITELY_NOT_SET_12345"
`)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Empty(t, cfg.Providers[0].APIKey)
}

func TestLoadConfigRegions(t *testing.T) {
	writeConfig(t, `
regions:
  eu:
    - mistral
  cn:
    - qwen
    - deepseek
`)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"mistral"}, cfg.Regions["eu"])
	assert.Equal(t, []string{"qwen", "deepseek"}, cfg.Regions["cn"])
}
