package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/modelmux/modelmux/pkg/api"
)

const defaultRecentLimit = 50

// HandleRecentRequests returns the latest accounting rows. Answers 404 when
// the settings database is disabled.
func (h *Handler) HandleRecentRequests(c *gin.Context) {
	if h.repo == nil {
		_ = c.Error(api.NotFound("request logging is disabled"))
		return
	}

	limit := defaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			_ = c.Error(api.BadRequest("query parameter 'limit' must be a positive integer"))
			return
		}
		limit = n
	}

	logs, err := h.repo.Requests().GetRecent(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, api.NewListResponse(logs))
}
