package provider

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"resty.dev/v3"

	"github.com/thaiduongngo/cool-asa/internal/domain/chat"
	"github.com/thaiduongngo/cool-asa/internal/domain/relay"
)

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaOptions struct {
	NumCtx      int     `json:"num_ctx"`
	Temperature float64 `json:"temperature"`
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaChunk struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}

// OllamaProvider streams from a local Ollama daemon over its NDJSON chat API.
type OllamaProvider struct {
	client            *resty.Client
	baseURL           string
	model             string
	systemInstruction string
}

// NewOllamaProvider creates an Ollama-backed provider.
func NewOllamaProvider(client *resty.Client, baseURL, model, systemInstruction string) *OllamaProvider {
	return &OllamaProvider{
		client:            client,
		baseURL:           strings.TrimRight(baseURL, "/"),
		model:             model,
		systemInstruction: systemInstruction,
	}
}

func (p *OllamaProvider) Name() string { return "ollama" }

// GenerateStream opens a streaming /api/chat call for the turns.
func (p *OllamaProvider) GenerateStream(ctx context.Context, turns []chat.Turn) (relay.Stream, error) {
	messages := make([]ollamaMessage, 0, len(turns)+1)
	if p.systemInstruction != "" {
		messages = append(messages, ollamaMessage{Role: "system", Content: p.systemInstruction})
	}
	messages = append(messages, mapOllamaMessages(turns)...)

	body := ollamaRequest{
		Model:    p.model,
		Messages: messages,
		Stream:   true,
		Options: ollamaOptions{
			NumCtx:      8192,
			Temperature: 0,
		},
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(p.baseURL + "/api/chat")
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}

	if resp.IsError() {
		defer resp.RawResponse.Body.Close()
		detail, _ := io.ReadAll(resp.RawResponse.Body)
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode(), strings.TrimSpace(string(detail)))
	}

	return newNDJSONStream(resp.RawResponse.Body), nil
}

// mapOllamaMessages flattens each part into its own message because the API
// takes plain text plus an optional image list. Attachments without a caption
// keep a placeholder so the turn still reads coherently.
func mapOllamaMessages(turns []chat.Turn) []ollamaMessage {
	messages := make([]ollamaMessage, 0, len(turns))
	for _, turn := range turns {
		role := "user"
		switch turn.Role {
		case chat.RoleModel:
			role = "assistant"
		case chat.RoleSystem:
			role = "system"
		}

		for _, part := range turn.Parts {
			msg := ollamaMessage{Role: role}
			if inline, ok := part.Inline(); ok {
				msg.Content = "Attached file."
				msg.Images = []string{inline.Data}
			} else {
				msg.Content = part.Text()
			}
			messages = append(messages, msg)
		}
	}
	return messages
}

// ndjsonStream decodes one JSON object per line into relay chunks.
type ndjsonStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

func newNDJSONStream(body io.ReadCloser) *ndjsonStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, scannerInitialBuffer), scannerMaxBuffer)
	return &ndjsonStream{body: body, scanner: scanner}
}

func (s *ndjsonStream) Recv() (relay.Chunk, error) {
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}

		var chunk ollamaChunk
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			return relay.Chunk{}, fmt.Errorf("decode ollama chunk: %w", err)
		}
		if chunk.Error != "" {
			return relay.Chunk{}, fmt.Errorf("ollama: %s", chunk.Error)
		}

		return relay.Chunk{Message: &relay.ChunkMessage{
			Role:    chunk.Message.Role,
			Content: chunk.Message.Content,
		}}, nil
	}

	if err := s.scanner.Err(); err != nil {
		return relay.Chunk{}, err
	}
	return relay.Chunk{}, io.EOF
}

func (s *ndjsonStream) Close() error {
	return s.body.Close()
}
