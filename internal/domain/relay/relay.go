package relay

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/thaiduongngo/cool-asa/internal/domain/chat"
	"github.com/thaiduongngo/cool-asa/internal/infrastructure/metrics"
	"github.com/thaiduongngo/cool-asa/internal/utils/platformerrors"
)

// StreamErrorSentinel marks an in-band mid-stream failure. It is appended as
// the terminal fragment when the provider fails after output has started,
// since the HTTP status line is already committed at that point.
const StreamErrorSentinel = "STREAM_ERROR:"

// ErrInvalidCredentials is wrapped by providers when the upstream rejects the
// configured API key.
var ErrInvalidCredentials = errors.New("invalid provider credentials")

// ChunkMessage is the flat response shape some providers stream.
type ChunkMessage struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content"`
}

// ChunkPart is one text part inside a nested candidate.
type ChunkPart struct {
	Text string `json:"text"`
}

// ChunkContent wraps the parts of a candidate.
type ChunkContent struct {
	Parts []ChunkPart `json:"parts"`
}

// Candidate is one generation alternative in the nested response shape.
type Candidate struct {
	Content ChunkContent `json:"content"`
}

// Chunk is one incremental unit from a provider stream. Providers populate
// whichever shape their wire format uses; extraction tolerates both.
type Chunk struct {
	Candidates []Candidate   `json:"candidates,omitempty"`
	Message    *ChunkMessage `json:"message,omitempty"`
}

// FragmentText extracts the textual payload from a chunk: the nested
// candidate text is preferred, the flat message content is the fallback, and
// an empty string means the chunk carries no text (metadata, keep-alive) and
// must be skipped rather than failing the stream. The fallback order is
// load-bearing: fixtures exercise either shape.
func (c Chunk) FragmentText() string {
	if len(c.Candidates) > 0 && len(c.Candidates[0].Content.Parts) > 0 {
		if text := c.Candidates[0].Content.Parts[0].Text; text != "" {
			return text
		}
	}
	if c.Message != nil {
		return c.Message.Content
	}
	return ""
}

// Stream is an ordered sequence of chunks from a provider. Recv returns
// io.EOF on natural exhaustion. Close releases the upstream connection and
// must be safe to call after Recv has failed.
type Stream interface {
	Recv() (Chunk, error)
	Close() error
}

// Provider starts a generation stream for an ordered conversation.
type Provider interface {
	Name() string
	GenerateStream(ctx context.Context, turns []chat.Turn) (Stream, error)
}

// Sink receives extracted text fragments. Writes must be forwarded to the
// consumer immediately; the relay never buffers or coalesces.
type Sink interface {
	WriteFragment(fragment string) error
}

// Attachment is an inline binary piece of a new user turn.
type Attachment struct {
	MIMEType string
	Data     string
}

// Service relays provider output to a sink, preserving fragment order.
type Service struct {
	provider Provider
	logger   zerolog.Logger
}

// NewService creates a relay service bound to a provider.
func NewService(provider Provider, logger zerolog.Logger) *Service {
	return &Service{provider: provider, logger: logger}
}

// Provider exposes the configured provider name for logging and metrics.
func (s *Service) Provider() string {
	return s.provider.Name()
}

// BuildUserTurn assembles the new user turn from the request pieces. Part
// order is files, then voice, then text, matching what the client renders.
// At least one piece must be present and attachments must carry both a MIME
// type and data; violations are validation errors and no provider call is
// made for them.
func BuildUserTurn(prompt string, files []Attachment, voice *Attachment) (chat.Turn, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" && len(files) == 0 && voice == nil {
		return chat.Turn{}, platformerrors.NewError(
			platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"prompt, file or voice data is required", nil)
	}

	parts := make([]chat.Part, 0, len(files)+2)
	for _, file := range files {
		if file.MIMEType == "" || file.Data == "" {
			return chat.Turn{}, platformerrors.NewError(
				platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
				"invalid file data received", nil)
		}
		parts = append(parts, chat.InlinePart(file.MIMEType, file.Data))
	}
	if voice != nil {
		if voice.MIMEType == "" || voice.Data == "" {
			return chat.Turn{}, platformerrors.NewError(
				platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
				"invalid voice prompt received", nil)
		}
		parts = append(parts, chat.InlinePart(voice.MIMEType, voice.Data))
	}
	if prompt != "" {
		parts = append(parts, chat.TextPart(prompt))
	}

	return chat.Turn{Role: chat.RoleUser, Parts: parts}, nil
}

// Stream submits the full conversation to the provider and forwards each
// non-empty fragment to the sink in provider order.
//
// A failure before any output was produced is returned as a structured error
// so the handler can respond with a proper status. A failure after output has
// started cannot un-send prior fragments; the sentinel plus the error detail
// is appended as the final fragment and Stream returns nil, because the
// consumer treats the sentinel as authoritative. An expired generate timeout
// takes these same paths; only a consumer cancellation ends the stream
// silently.
func (s *Service) Stream(ctx context.Context, turns []chat.Turn, sink Sink) error {
	stream, err := s.provider.GenerateStream(ctx, turns)
	if err != nil {
		metrics.RecordStreamError(s.provider.Name(), "pre_stream")
		if errors.Is(err, ErrInvalidCredentials) {
			return platformerrors.NewError(
				platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized,
				"invalid API key, please check the provider credentials", err)
		}
		return platformerrors.NewError(
			platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
			"generation request failed", err)
	}
	defer stream.Close()

	emitted := 0
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				// Client went away; stop pulling from the provider. A deadline
				// expiry is not a disconnect and falls through to the error
				// handling below so the consumer learns the answer is cut short.
				s.logger.Debug().Str("provider", s.provider.Name()).Msg("stream cancelled by consumer")
				return nil
			}
			if emitted == 0 {
				metrics.RecordStreamError(s.provider.Name(), "pre_stream")
				if errors.Is(err, ErrInvalidCredentials) {
					return platformerrors.NewError(
						platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized,
						"invalid API key, please check the provider credentials", err)
				}
				return platformerrors.NewError(
					platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
					"generation stream failed", err)
			}
			metrics.RecordStreamError(s.provider.Name(), "mid_stream")
			s.logger.Error().Err(err).Str("provider", s.provider.Name()).Msg("stream failed after partial output")
			if writeErr := sink.WriteFragment("\n" + StreamErrorSentinel + " " + err.Error()); writeErr != nil {
				s.logger.Warn().Err(writeErr).Msg("failed to write stream error sentinel")
			}
			return nil
		}

		fragment := chunk.FragmentText()
		if fragment == "" {
			continue
		}
		if err := sink.WriteFragment(fragment); err != nil {
			// The consumer is gone; there is nobody left to signal.
			s.logger.Debug().Err(err).Str("provider", s.provider.Name()).Msg("consumer write failed, aborting stream")
			return nil
		}
		emitted++
		metrics.RecordFragment(s.provider.Name())
	}
}
