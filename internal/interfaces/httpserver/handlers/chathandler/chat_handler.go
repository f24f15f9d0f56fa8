package chathandler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/thaiduongngo/cool-asa/internal/domain/relay"
	"github.com/thaiduongngo/cool-asa/internal/interfaces/httpserver/requests"
	"github.com/thaiduongngo/cool-asa/internal/interfaces/httpserver/responses"
)

// ChatHandler relays generation requests to the configured provider and
// streams the response to the client as plain text fragments.
type ChatHandler struct {
	relay           *relay.Service
	generateTimeout time.Duration
	logger          zerolog.Logger
}

// NewChatHandler creates a chat handler.
func NewChatHandler(relayService *relay.Service, generateTimeout time.Duration, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		relay:           relayService,
		generateTimeout: generateTimeout,
		logger:          logger,
	}
}

// ginSink forwards fragments straight to the response writer, flushing after
// every write so the client sees output as it is produced.
type ginSink struct {
	c *gin.Context
}

func (s ginSink) WriteFragment(fragment string) error {
	if _, err := s.c.Writer.WriteString(fragment); err != nil {
		return err
	}
	s.c.Writer.Flush()
	return nil
}

// Generate handles POST /api/chat.
func (h *ChatHandler) Generate(c *gin.Context) {
	var req requests.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "invalid request body",
			Details: err.Error(),
		})
		return
	}

	var voice *relay.Attachment
	if req.VoicePrompt != nil {
		voice = &relay.Attachment{MIMEType: req.VoicePrompt.MIMEType, Data: req.VoicePrompt.Base64Data}
	}
	files := make([]relay.Attachment, 0, len(req.FilesData))
	for _, f := range req.FilesData {
		files = append(files, relay.Attachment{MIMEType: f.MIMEType, Data: f.Base64Data})
	}

	userTurn, err := relay.BuildUserTurn(req.Prompt, files, voice)
	if err != nil {
		responses.Error(c, "prompt or file is required", err)
		return
	}

	turns := append(req.Turns(), userTurn)

	ctx := c.Request.Context()
	if h.generateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.generateTimeout)
		defer cancel()
	}

	// Headers are held back until the provider has accepted the call so a
	// pre-stream failure can still produce a proper status code.
	streamStarted := false
	sink := startOnWriteSink{c: c, started: &streamStarted}

	if err := h.relay.Stream(ctx, turns, sink); err != nil {
		h.logger.Error().Err(err).Str("provider", h.relay.Provider()).Msg("generation failed before streaming")
		responses.Error(c, "generation failed", err)
		return
	}

	if !streamStarted {
		// Provider produced no text at all; commit an empty 200 stream.
		writeStreamHeaders(c)
	}
}

// startOnWriteSink commits the streaming headers on the first fragment.
type startOnWriteSink struct {
	c       *gin.Context
	started *bool
}

func (s startOnWriteSink) WriteFragment(fragment string) error {
	if !*s.started {
		writeStreamHeaders(s.c)
		*s.started = true
	}
	return ginSink{c: s.c}.WriteFragment(fragment)
}

func writeStreamHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Writer.WriteHeaderNow()
}
