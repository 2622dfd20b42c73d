package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/modelmux/modelmux/internal/server/validator"
	"github.com/modelmux/modelmux/pkg/api"
	"github.com/modelmux/modelmux/pkg/schema"
)

func (h *Handler) HandleGenerate(c *gin.Context) {
	var req api.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseError(err)))
		return
	}

	cfg := &schema.ModelConfig{
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	if req.Stream {
		messages := []schema.Message{{Role: schema.RoleUser, Content: req.Prompt}}
		h.streamSSE(c, req.Model, messages, cfg)
		return
	}

	resp, err := h.manager.GenerateText(c.Request.Context(), req.Model, req.Prompt, cfg)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.logRequest(req.Model, resp, http.StatusOK, false)
	c.JSON(http.StatusOK, resp)
}
