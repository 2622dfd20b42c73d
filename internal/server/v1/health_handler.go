package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"providers": len(h.manager.ListProviders()),
	})
}
