package historyhandler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/thaiduongngo/cool-asa/internal/domain/chat"
	"github.com/thaiduongngo/cool-asa/internal/interfaces/httpserver/requests"
	"github.com/thaiduongngo/cool-asa/internal/interfaces/httpserver/responses"
)

// HistoryHandler serves the chat session CRUD endpoints.
type HistoryHandler struct {
	store  chat.Store
	logger zerolog.Logger
}

// NewHistoryHandler creates a history handler.
func NewHistoryHandler(store chat.Store, logger zerolog.Logger) *HistoryHandler {
	return &HistoryHandler{store: store, logger: logger}
}

// List handles GET /api/history.
func (h *HistoryHandler) List(c *gin.Context) {
	sessions, err := h.store.ListSessions(c.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list chat sessions")
		responses.Error(c, "failed to fetch chat history", err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// Get handles GET /api/history/:id.
func (h *HistoryHandler) Get(c *gin.Context) {
	id := c.Param("id")
	session, err := h.store.GetSession(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, chat.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, responses.ErrorResponse{Error: "chat session not found"})
			return
		}
		h.logger.Error().Err(err).Str("session_id", id).Msg("failed to fetch chat session")
		responses.Error(c, "failed to fetch chat session", err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// Save handles POST /api/history. The stored session, including the
// server-assigned lastUpdated, is echoed back.
func (h *HistoryHandler) Save(c *gin.Context) {
	var req requests.SaveSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "invalid session payload",
			Details: err.Error(),
		})
		return
	}

	stored, err := h.store.SaveSession(c.Request.Context(), req.Session())
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", req.ID).Msg("failed to save chat session")
		responses.Error(c, "failed to save chat session", err)
		return
	}
	c.JSON(http.StatusCreated, stored)
}

// Delete handles DELETE /api/history/:id. Deleting an absent session still
// succeeds; only a store failure is an error.
func (h *HistoryHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	existed, err := h.store.DeleteSession(c.Request.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", id).Msg("failed to delete chat session")
		responses.Error(c, "failed to delete chat session", err)
		return
	}
	if !existed {
		h.logger.Warn().Str("session_id", id).Msg("chat session not found for deletion")
	}
	c.JSON(http.StatusOK, responses.MessageResponse{Message: "Chat session deleted successfully"})
}
