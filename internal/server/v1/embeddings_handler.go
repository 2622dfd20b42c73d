package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/modelmux/modelmux/internal/server/validator"
	"github.com/modelmux/modelmux/pkg/api"
)

func (h *Handler) HandleEmbeddings(c *gin.Context) {
	var req api.EmbeddingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseError(err)))
		return
	}

	vectors, err := h.manager.Embeddings(c.Request.Context(), req.Model, req.Input, nil)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, api.EmbeddingsResponse{
		Model:      req.Model,
		Embeddings: vectors,
	})
}
