package v1

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/modelmux/modelmux/internal/manager"
	"github.com/modelmux/modelmux/internal/store"
	"github.com/modelmux/modelmux/internal/store/cache"
	"github.com/modelmux/modelmux/internal/store/model"
	"github.com/modelmux/modelmux/pkg/api"
	"github.com/modelmux/modelmux/pkg/schema"
	"go.uber.org/zap"
)

// Handler carries the dependencies shared by the v1 endpoints. repo may be
// nil when the settings database is disabled; request logging is then
// skipped.
type Handler struct {
	manager *manager.Manager
	repo    store.Repository
	cache   cache.CacheService
	logger  *zap.Logger
}

func NewHandler(m *manager.Manager, repo store.Repository, c cache.CacheService, logger *zap.Logger) *Handler {
	return &Handler{
		manager: m,
		repo:    repo,
		cache:   c,
		logger:  logger,
	}
}

// fail maps domain errors onto problem responses.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, schema.ErrInvalidIdentifier):
		_ = c.Error(api.BadRequest(err.Error()))
	case errors.Is(err, schema.ErrProviderNotFound):
		_ = c.Error(api.NotFound(err.Error()))
	case errors.Is(err, schema.ErrNotSupported):
		_ = c.Error(api.BadRequest(err.Error()))
	default:
		var vendorErr *schema.VendorError
		if errors.As(err, &vendorErr) {
			_ = c.Error(api.UpstreamError(vendorErr.Provider, vendorErr.StatusCode, vendorErr.Message, err))
			return
		}
		_ = c.Error(api.InternalError("Failed to process request", err))
	}
}

// logRequest writes an accounting row, fire-and-forget.
func (h *Handler) logRequest(identifier string, resp *schema.ModelResponse, status int, streamed bool) {
	if h.repo == nil || resp == nil {
		return
	}

	row := &model.RequestLog{
		ID:               uuid.NewString(),
		Identifier:       identifier,
		Provider:         resp.Provider,
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalCost:        resp.Usage.TotalCost,
		FinishReason:     resp.FinishReason,
		StatusCode:       status,
		LatencyMS:        resp.LatencyMS,
		Streamed:         streamed,
		CreatedAt:        time.Now().UTC(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.repo.Requests().Log(ctx, row); err != nil {
			h.logger.Warn("failed to persist request log", zap.Error(err))
		}
	}()
}
