package sqlite

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/modelmux/modelmux/internal/store"
	"github.com/modelmux/modelmux/internal/store/model"
)

type sqliteRepository struct {
	db        *sqlx.DB
	providers *providerSettingsRepo
	requests  *requestRepo
}

func NewSqliteRepository(db *sqlx.DB) store.Repository {
	return &sqliteRepository{
		db:        db,
		providers: &providerSettingsRepo{db: db},
		requests:  &requestRepo{db: db},
	}
}

func (r *sqliteRepository) Providers() store.ProviderSettingsRepository { return r.providers }
func (r *sqliteRepository) Requests() store.RequestRepository          { return r.requests }
func (r *sqliteRepository) Close() error                               { return r.db.Close() }

type providerSettingsRepo struct {
	db *sqlx.DB
}

func (r *providerSettingsRepo) ListEnabled(ctx context.Context) ([]model.ProviderSetting, error) {
	var settings []model.ProviderSetting
	err := r.db.SelectContext(ctx, &settings,
		`SELECT * FROM provider_settings WHERE enabled = 1 ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return settings, nil
}

func (r *providerSettingsRepo) Upsert(ctx context.Context, s *model.ProviderSetting) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO provider_settings
			(id, name, type, label, api_key_env, base_url, region, enabled, created_at, updated_at)
		VALUES
			(:id, :name, :type, :label, :api_key_env, :base_url, :region, :enabled, :created_at, :updated_at)
		ON CONFLICT(name) DO UPDATE SET
			type        = excluded.type,
			label       = excluded.label,
			api_key_env = excluded.api_key_env,
			base_url    = excluded.base_url,
			region      = excluded.region,
			enabled     = excluded.enabled,
			updated_at  = excluded.updated_at`, s)
	return err
}

type requestRepo struct {
	db *sqlx.DB
}

func (r *requestRepo) Log(ctx context.Context, log *model.RequestLog) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO request_logs
			(id, identifier, provider, model, prompt_tokens, completion_tokens,
			 total_cost, finish_reason, status_code, latency_ms, streamed, created_at)
		VALUES
			(:id, :identifier, :provider, :model, :prompt_tokens, :completion_tokens,
			 :total_cost, :finish_reason, :status_code, :latency_ms, :streamed, :created_at)`, log)
	return err
}

func (r *requestRepo) GetRecent(ctx context.Context, limit int) ([]model.RequestLog, error) {
	var logs []model.RequestLog
	err := r.db.SelectContext(ctx, &logs,
		`SELECT * FROM request_logs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return logs, nil
}
