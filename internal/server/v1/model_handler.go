package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/modelmux/modelmux/pkg/api"
	"github.com/modelmux/modelmux/pkg/schema"
	"go.uber.org/zap"
)

const modelListTTL = 5 * time.Minute

// HandleListModels returns the aggregated catalog, optionally filtered by
// ?region= or ?capability=. The unfiltered listing is served through the
// cache.
func (h *Handler) HandleListModels(c *gin.Context) {
	region := c.Query("region")
	capability := c.Query("capability")
	ctx := c.Request.Context()

	switch {
	case region != "":
		c.JSON(http.StatusOK, api.NewListResponse(h.manager.ListModelsByRegion(ctx, region)))
	case capability != "":
		c.JSON(http.StatusOK, api.NewListResponse(h.manager.ListModelsByCapability(ctx, capability)))
	default:
		var cached []schema.CatalogEntry
		if h.cache != nil {
			if err := h.cache.Get(ctx, "models:all", &cached); err == nil {
				c.JSON(http.StatusOK, api.NewListResponse(cached))
				return
			}
		}

		models := h.manager.ListModels(ctx)
		if h.cache != nil {
			if err := h.cache.Set(ctx, "models:all", models, modelListTTL); err != nil {
				h.logger.Warn("failed to cache model listing", zap.Error(err))
			}
		}
		c.JSON(http.StatusOK, api.NewListResponse(models))
	}
}

func (h *Handler) HandleListProviderModels(c *gin.Context) {
	models, err := h.manager.ListModelsByProvider(c.Request.Context(), c.Param("provider"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NewListResponse(models))
}

func (h *Handler) HandleListProviders(c *gin.Context) {
	c.JSON(http.StatusOK, api.NewListResponse(h.manager.ListProviders()))
}

func (h *Handler) HandleListCapabilities(c *gin.Context) {
	c.JSON(http.StatusOK, api.NewListResponse(h.manager.ListCapabilities()))
}

// HandleModelInfo resolves ?model=provider:model to its catalog entry. An
// unknown model under a known provider answers 200 with a null body, per
// the catalog's lookup contract.
func (h *Handler) HandleModelInfo(c *gin.Context) {
	identifier := c.Query("model")
	if identifier == "" {
		_ = c.Error(api.BadRequest("query parameter 'model' is required"))
		return
	}

	info, err := h.manager.GetModelInfo(c.Request.Context(), identifier)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.ModelInfoResponse{Model: info})
}
