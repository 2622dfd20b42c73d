package model

import "time"

// ProviderSetting is one row of the provider settings table. The API key is
// referenced by environment variable name, never stored.
type ProviderSetting struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"` // registry key, unique
	Type      string    `db:"type"` // factory type tag
	Label     string    `db:"label"`
	APIKeyEnv string    `db:"api_key_env"`
	BaseURL   string    `db:"base_url"`
	Region    string    `db:"region"`
	Enabled   bool      `db:"enabled"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// RequestLog is the accounting record for one gateway request.
type RequestLog struct {
	ID               string    `db:"id"`
	Identifier       string    `db:"identifier"` // "provider:model" as requested
	Provider         string    `db:"provider"`
	Model            string    `db:"model"`
	PromptTokens     int       `db:"prompt_tokens"`
	CompletionTokens int       `db:"completion_tokens"`
	TotalCost        float64   `db:"total_cost"`
	FinishReason     string    `db:"finish_reason"`
	StatusCode       int       `db:"status_code"`
	LatencyMS        int64     `db:"latency_ms"`
	Streamed         bool      `db:"streamed"`
	CreatedAt        time.Time `db:"created_at"`
}
