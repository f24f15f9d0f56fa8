package provider

import (
	"fmt"

	"resty.dev/v3"

	"github.com/thaiduongngo/cool-asa/internal/config"
	"github.com/thaiduongngo/cool-asa/internal/domain/relay"
)

// New selects the generation provider from configuration.
func New(cfg *config.Config, client *resty.Client) (relay.Provider, error) {
	switch cfg.AIProvider {
	case "google", "gemini":
		if cfg.GoogleAPIKey == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY is required for the %s provider", cfg.AIProvider)
		}
		return NewGeminiProvider(client, cfg.GoogleAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL, cfg.SystemInstruction), nil
	case "ollama":
		return NewOllamaProvider(client, cfg.OllamaBaseURL, cfg.OllamaModel, cfg.SystemInstruction), nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
		return NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.SystemInstruction), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.AIProvider)
	}
}
