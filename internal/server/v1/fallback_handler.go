package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/modelmux/modelmux/internal/manager"
	"github.com/modelmux/modelmux/internal/server/validator"
	"github.com/modelmux/modelmux/pkg/api"
)

func (h *Handler) HandleFallback(c *gin.Context) {
	var req api.FallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseError(err)))
		return
	}

	identifier, found := h.manager.FallbackModel(c.Request.Context(), manager.FallbackRequest{
		Capability:         req.Capability,
		PreferredProviders: req.PreferredProviders,
		ExcludedProviders:  req.ExcludedProviders,
		ExcludedModels:     req.ExcludedModels,
		Region:             req.Region,
	})

	c.JSON(http.StatusOK, api.FallbackResponse{Model: identifier, Found: found})
}
