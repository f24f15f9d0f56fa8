package prompthandler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/thaiduongngo/cool-asa/internal/domain/chat"
	"github.com/thaiduongngo/cool-asa/internal/interfaces/httpserver/requests"
	"github.com/thaiduongngo/cool-asa/internal/interfaces/httpserver/responses"
)

// PromptHandler serves the recent prompt suggestion endpoints.
type PromptHandler struct {
	store  chat.Store
	logger zerolog.Logger
}

// NewPromptHandler creates a prompt handler.
func NewPromptHandler(store chat.Store, logger zerolog.Logger) *PromptHandler {
	return &PromptHandler{store: store, logger: logger}
}

// List handles GET /api/prompts.
func (h *PromptHandler) List(c *gin.Context) {
	prompts, err := h.store.ListPrompts(c.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list recent prompts")
		responses.Error(c, "failed to fetch recent prompts", err)
		return
	}
	c.JSON(http.StatusOK, prompts)
}

// Add handles POST /api/prompts.
func (h *PromptHandler) Add(c *gin.Context) {
	var req requests.PromptRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error: "prompt text is required and cannot be empty",
		})
		return
	}

	prompt, err := h.store.AddPrompt(c.Request.Context(), req.Text)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to add recent prompt")
		responses.Error(c, "failed to add recent prompt", err)
		return
	}
	c.JSON(http.StatusCreated, prompt)
}

// Delete handles DELETE /api/prompts with the prompt text in the body.
func (h *PromptHandler) Delete(c *gin.Context) {
	var req requests.PromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error: "prompt text is required for deletion",
		})
		return
	}

	removed, err := h.store.DeletePrompt(c.Request.Context(), req.Text)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to delete recent prompt")
		responses.Error(c, "failed to delete recent prompt", err)
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, responses.MessageResponse{Message: "Prompt not found or already deleted"})
		return
	}
	c.JSON(http.StatusOK, responses.MessageResponse{Message: "Prompt deleted successfully"})
}
