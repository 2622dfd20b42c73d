package store

import (
	"context"

	"github.com/modelmux/modelmux/internal/store/model"
)

// Repository is the contract for the settings/accounting data layer. The
// gateway core never touches it; provider settings are read once at
// startup and request logs are written by the HTTP layer.
type Repository interface {
	Providers() ProviderSettingsRepository
	Requests() RequestRepository
	Close() error
}

type ProviderSettingsRepository interface {
	// ListEnabled returns the enabled provider settings rows.
	ListEnabled(ctx context.Context) ([]model.ProviderSetting, error)
	// Upsert creates or replaces a settings row keyed by provider name.
	Upsert(ctx context.Context, s *model.ProviderSetting) error
}

type RequestRepository interface {
	// Log stores one completed request.
	Log(ctx context.Context, log *model.RequestLog) error
	// GetRecent returns the last N request logs.
	GetRecent(ctx context.Context, limit int) ([]model.RequestLog, error)
}
