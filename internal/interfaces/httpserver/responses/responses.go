package responses

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/thaiduongngo/cool-asa/internal/domain/chat"
	"github.com/thaiduongngo/cool-asa/internal/utils/platformerrors"
)

// ErrorResponse is the JSON error shape for every non-stream failure.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// MessageResponse carries a human-readable outcome for mutations.
type MessageResponse struct {
	Message string `json:"message"`
}

// Error writes the structured error body with the status mapped from the
// error category.
func Error(c *gin.Context, message string, err error) {
	status := platformerrors.HTTPStatus(err)
	if errors.Is(err, chat.ErrSessionNotFound) {
		status = 404
	}

	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	c.JSON(status, resp)
}
