package requests

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/thaiduongngo/cool-asa/internal/domain/chat"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("chatrole", func(fl validator.FieldLevel) bool {
			return chat.Role(fl.Field().String()).Valid()
		})
	}
}

// FilePayload is an attachment as the client uploads it.
type FilePayload struct {
	MIMEType   string `json:"mimeType"`
	Base64Data string `json:"base64Data"`
}

// HistoryTurn is one prior exchange sent back with a new prompt.
type HistoryTurn struct {
	Role  chat.Role   `json:"role" binding:"required,chatrole"`
	Parts []chat.Part `json:"parts" binding:"required,min=1"`
}

// GenerateRequest is the relay endpoint body. At least one of Prompt,
// VoicePrompt or FilesData must be present; the handler enforces that after
// binding.
type GenerateRequest struct {
	Prompt      string        `json:"prompt"`
	VoicePrompt *FilePayload  `json:"voicePrompt"`
	FilesData   []FilePayload `json:"filesData"`
	History     []HistoryTurn `json:"history" binding:"omitempty,dive"`
}

// Turns converts the prior history to domain turns.
func (r *GenerateRequest) Turns() []chat.Turn {
	turns := make([]chat.Turn, 0, len(r.History))
	for _, h := range r.History {
		turns = append(turns, chat.Turn{Role: h.Role, Parts: h.Parts})
	}
	return turns
}

// SaveSessionRequest is the POST /api/history body.
type SaveSessionRequest struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Messages []chat.Message `json:"messages" binding:"required,min=1"`
}

// Session converts the request into a domain session; the store stamps
// LastUpdated.
func (r *SaveSessionRequest) Session() *chat.ChatSession {
	return &chat.ChatSession{
		ID:       r.ID,
		Title:    r.Title,
		Messages: r.Messages,
	}
}

// PromptRequest carries the prompt text for add and delete operations.
type PromptRequest struct {
	Text string `json:"text" binding:"required"`
}
