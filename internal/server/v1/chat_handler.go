package v1

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/modelmux/modelmux/internal/server/validator"
	"github.com/modelmux/modelmux/pkg/api"
	"github.com/modelmux/modelmux/pkg/schema"
)

func (h *Handler) HandleChatCompletion(c *gin.Context) {
	var req api.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseError(err)))
		return
	}

	cfg := &schema.ModelConfig{
		MaxTokens:        req.MaxTokens,
		Temperature:      req.Temperature,
		TopP:             req.TopP,
		FrequencyPenalty: req.FrequencyPenalty,
		PresencePenalty:  req.PresencePenalty,
		Stop:             req.Stop,
		Extra:            req.Extra,
	}

	if req.Stream {
		h.streamSSE(c, req.Model, req.Messages, cfg)
		return
	}

	resp, err := h.manager.Chat(c.Request.Context(), req.Model, req.Messages, cfg)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.logRequest(req.Model, resp, http.StatusOK, false)
	c.JSON(http.StatusOK, resp)
}

// streamSSE relays the normalized stream as SSE frames. Every frame carries
// the accumulated text so far; the terminal frame is "[DONE]".
func (h *Handler) streamSSE(c *gin.Context, identifier string, messages []schema.Message, cfg *schema.ModelConfig) {
	streamChan, err := h.manager.Stream(c.Request.Context(), identifier, messages, cfg)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	var last *schema.ModelResponse
	c.Stream(func(w io.Writer) bool {
		result, ok := <-streamChan
		if !ok {
			_, _ = io.WriteString(w, "data: [DONE]\n\n")
			h.logRequest(identifier, last, http.StatusOK, true)
			return false
		}

		if result.Err != nil {
			frame := api.StreamErrorFrame{Error: result.Err.Error()}
			data, _ := json.Marshal(frame)
			_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
			return false
		}

		if result.Response != nil {
			last = result.Response
			data, err := json.Marshal(result.Response)
			if err == nil {
				_, err = fmt.Fprintf(w, "data: %s\n\n", data)
				return err == nil
			}
		}

		return true
	})
}
