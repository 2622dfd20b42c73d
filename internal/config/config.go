package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Database  DatabaseConfig   `mapstructure:"database"`
	Redis     RedisConfig      `mapstructure:"redis"`
	RateLimit RateLimitConfig  `mapstructure:"rate_limit"`
	Providers []ProviderConfig `mapstructure:"providers"`
	// Regions maps a region tag to the provider names it contains. Empty
	// means the built-in partition applies (qwen/deepseek -> cn, rest ->
	// global); this feature is best-effort, not a geo-routing policy.
	Regions map[string][]string `mapstructure:"regions"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	DSN     string `mapstructure:"dsn"`
	Enabled bool   `mapstructure:"enabled"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// ProviderConfig describes one adapter instance. A provider whose APIKey
// resolves to empty is simply not registered; that is not an error.
type ProviderConfig struct {
	Name    string            `mapstructure:"name"`  // registry key, e.g. "openai"
	Type    string            `mapstructure:"type"`  // factory type tag
	Label   string            `mapstructure:"label"` // display name, e.g. "OpenAI"
	APIKey  string            `mapstructure:"api_key"`
	BaseURL string            `mapstructure:"base_url"`
	Region  string            `mapstructure:"region"`
	Config  map[string]string `mapstructure:"config"` // vendor-specific extras (org id, version header)
}

// DefaultProviders is the built-in provider set, with API keys resolved
// from the conventional environment variables.
func DefaultProviders() []ProviderConfig {
	return []ProviderConfig{
		{Name: "openai", Type: "openai", Label: "OpenAI", APIKey: "ENV:OPENAI_API_KEY"},
		{Name: "anthropic", Type: "anthropic", Label: "Anthropic", APIKey: "ENV:ANTHROPIC_API_KEY",
			Config: map[string]string{"version": "2023-06-01"}},
		{Name: "google", Type: "google", Label: "Google Gemini", APIKey: "ENV:GOOGLE_API_KEY"},
		{Name: "mistral", Type: "mistral", Label: "Mistral", APIKey: "ENV:MISTRAL_API_KEY"},
		{Name: "deepseek", Type: "deepseek", Label: "DeepSeek", APIKey: "ENV:DEEPSEEK_API_KEY"},
		{Name: "qwen", Type: "qwen", Label: "Qwen", APIKey: "ENV:DASHSCOPE_API_KEY"},
	}
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig() (*Config, error) {
	// Load .env file if present
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
	}

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("database.dsn", "modelmux.db")
	v.SetDefault("database.enabled", false)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("rate_limit.requests_per_second", 10.0)
	v.SetDefault("rate_limit.burst", 20)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if len(cfg.Providers) == 0 {
		cfg.Providers = DefaultProviders()
	}

	// Resolve ENV: indirected API keys
	for i, p := range cfg.Providers {
		if envVar, ok := strings.CutPrefix(p.APIKey, "ENV:"); ok {
			val := os.Getenv(envVar)
			if val == "" {
				val = v.GetString(envVar)
			}
			cfg.Providers[i].APIKey = val
		}
	}

	return &cfg, nil
}
