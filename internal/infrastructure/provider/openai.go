package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/thaiduongngo/cool-asa/internal/domain/chat"
	"github.com/thaiduongngo/cool-asa/internal/domain/relay"
)

// OpenAIProvider streams from any OpenAI-compatible chat completion endpoint.
type OpenAIProvider struct {
	client            *openai.Client
	model             string
	systemInstruction string
}

// NewOpenAIProvider creates an OpenAI-backed provider. baseURL may be empty
// for the hosted API or point at a compatible gateway.
func NewOpenAIProvider(apiKey, baseURL, model, systemInstruction string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{
		client:            openai.NewClientWithConfig(cfg),
		model:             model,
		systemInstruction: systemInstruction,
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

// GenerateStream opens a streaming chat completion for the turns.
func (p *OpenAIProvider) GenerateStream(ctx context.Context, turns []chat.Turn) (relay.Stream, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns)+1)
	if p.systemInstruction != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: p.systemInstruction,
		})
	}
	messages = append(messages, mapOpenAIMessages(turns)...)

	stream, err := p.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		if isOpenAIAuthFailure(err) {
			return nil, fmt.Errorf("%w: %v", relay.ErrInvalidCredentials, err)
		}
		return nil, fmt.Errorf("openai request: %w", err)
	}

	return &openaiStream{stream: stream}, nil
}

// mapOpenAIMessages maps domain turns to chat messages, converting inline
// attachments to data-URL image content parts.
func mapOpenAIMessages(turns []chat.Turn) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, turn := range turns {
		role := openai.ChatMessageRoleUser
		switch turn.Role {
		case chat.RoleModel:
			role = openai.ChatMessageRoleAssistant
		case chat.RoleSystem:
			role = openai.ChatMessageRoleSystem
		}

		hasInline := false
		for _, part := range turn.Parts {
			if _, ok := part.Inline(); ok {
				hasInline = true
				break
			}
		}

		if !hasInline {
			var content string
			for _, part := range turn.Parts {
				content += part.Text()
			}
			messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: content})
			continue
		}

		multi := make([]openai.ChatMessagePart, 0, len(turn.Parts))
		for _, part := range turn.Parts {
			if inline, ok := part.Inline(); ok {
				multi = append(multi, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL: "data:" + inline.MIMEType + ";base64," + inline.Data,
					},
				})
				continue
			}
			multi = append(multi, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: part.Text(),
			})
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, MultiContent: multi})
	}
	return messages
}

func isOpenAIAuthFailure(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden
	}
	return false
}

// openaiStream adapts the SDK stream, surfacing delta content through the
// flat message shape.
type openaiStream struct {
	stream *openai.ChatCompletionStream
}

func (s *openaiStream) Recv() (relay.Chunk, error) {
	resp, err := s.stream.Recv()
	if err != nil {
		// io.EOF passes through untouched to terminate the relay loop.
		return relay.Chunk{}, err
	}

	var content string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Delta.Content
	}
	return relay.Chunk{Message: &relay.ChunkMessage{
		Role:    openai.ChatMessageRoleAssistant,
		Content: content,
	}}, nil
}

func (s *openaiStream) Close() error {
	return s.stream.Close()
}
