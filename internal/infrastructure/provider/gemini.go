package provider

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"resty.dev/v3"

	"github.com/thaiduongngo/cool-asa/internal/domain/chat"
	"github.com/thaiduongngo/cool-asa/internal/domain/relay"
)

const (
	geminiStreamPath = "/v1beta/models/%s:streamGenerateContent"

	dataPrefix           = "data: "
	scannerInitialBuffer = 12 * 1024        // 12KB
	scannerMaxBuffer     = 10 * 1024 * 1024 // 10MB
)

type geminiPart struct {
	Text       string           `json:"text,omitempty"`
	InlineData *chat.InlineData `json:"inlineData,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
}

// GeminiProvider streams from the Google generative language REST API using
// server-sent events.
type GeminiProvider struct {
	client            *resty.Client
	apiKey            string
	model             string
	baseURL           string
	systemInstruction string
}

// NewGeminiProvider creates a Gemini-backed provider.
func NewGeminiProvider(client *resty.Client, apiKey, model, baseURL, systemInstruction string) *GeminiProvider {
	return &GeminiProvider{
		client:            client,
		apiKey:            apiKey,
		model:             model,
		baseURL:           strings.TrimRight(baseURL, "/"),
		systemInstruction: systemInstruction,
	}
}

func (p *GeminiProvider) Name() string { return "google" }

// GenerateStream opens a streamGenerateContent SSE stream for the turns.
func (p *GeminiProvider) GenerateStream(ctx context.Context, turns []chat.Turn) (relay.Stream, error) {
	body := geminiRequest{
		Contents: mapGeminiContents(turns),
		GenerationConfig: geminiGenerationConfig{
			Temperature:     0,
			TopP:            0.95,
			MaxOutputTokens: 65536,
		},
	}
	if p.systemInstruction != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: p.systemInstruction}}}
	}

	url := p.baseURL + fmt.Sprintf(geminiStreamPath, p.model)
	resp, err := p.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("alt", "sse").
		SetQueryParam("key", p.apiKey).
		SetBody(body).
		Post(url)
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}

	if resp.IsError() {
		defer resp.RawResponse.Body.Close()
		detail, _ := io.ReadAll(resp.RawResponse.Body)
		msg := strings.TrimSpace(string(detail))
		if isGeminiAuthFailure(resp.StatusCode(), msg) {
			return nil, fmt.Errorf("%w: %s", relay.ErrInvalidCredentials, msg)
		}
		return nil, fmt.Errorf("gemini returned status %d: %s", resp.StatusCode(), msg)
	}

	return newSSEStream(resp.RawResponse.Body), nil
}

// mapGeminiContents converts domain turns to the wire shape. Gemini only
// knows user and model roles; system turns are folded in as user content
// because the standing instruction travels via systemInstruction instead.
func mapGeminiContents(turns []chat.Turn) []geminiContent {
	contents := make([]geminiContent, 0, len(turns))
	for _, turn := range turns {
		role := "user"
		if turn.Role == chat.RoleModel {
			role = "model"
		}

		parts := make([]geminiPart, 0, len(turn.Parts))
		for _, part := range turn.Parts {
			if inline, ok := part.Inline(); ok {
				inlineCopy := inline
				parts = append(parts, geminiPart{InlineData: &inlineCopy})
				continue
			}
			parts = append(parts, geminiPart{Text: part.Text()})
		}
		contents = append(contents, geminiContent{Role: role, Parts: parts})
	}
	return contents
}

func isGeminiAuthFailure(status int, body string) bool {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return true
	}
	return strings.Contains(body, "API key not valid")
}

// sseStream decodes "data: {json}" lines into relay chunks.
type sseStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

func newSSEStream(body io.ReadCloser) *sseStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, scannerInitialBuffer), scannerMaxBuffer)
	return &sseStream{body: body, scanner: scanner}
}

func (s *sseStream) Recv() (relay.Chunk, error) {
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		data, found := strings.CutPrefix(line, dataPrefix)
		if !found || data == "" {
			continue
		}

		var chunk relay.Chunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return relay.Chunk{}, fmt.Errorf("decode gemini chunk: %w", err)
		}
		return chunk, nil
	}

	if err := s.scanner.Err(); err != nil {
		return relay.Chunk{}, err
	}
	return relay.Chunk{}, io.EOF
}

func (s *sseStream) Close() error {
	return s.body.Close()
}
