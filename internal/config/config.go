package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all runtime configuration, populated from the environment.
type Config struct {
	HTTPPort int `env:"PORT" envDefault:"8080"`

	RedisURL         string        `env:"REDIS_URL" envDefault:"redis://localhost:6379"`
	MaxChatHistory   int           `env:"MAX_CHAT_HISTORY" envDefault:"5"`
	MaxRecentPrompts int           `env:"MAX_RECENT_PROMPTS" envDefault:"5"`
	StoreOpTimeout   time.Duration `env:"STORE_OP_TIMEOUT" envDefault:"5s"`

	// AIProvider selects the generation backend: google, ollama or openai.
	AIProvider string `env:"AI_PROVIDER" envDefault:"google"`

	GoogleAPIKey  string `env:"GOOGLE_API_KEY"`
	GeminiModel   string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	GeminiBaseURL string `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com"`

	OllamaBaseURL string `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`
	OllamaModel   string `env:"OLLAMA_MODEL" envDefault:"qwen3:8b"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`

	SystemInstruction string        `env:"SYSTEM_INSTRUCTION" envDefault:"Trả lời chi tiết bằng tiếng Việt. Responses are rendered in markdown with clear indents and highlights."`
	GenerateTimeout   time.Duration `env:"GENERATE_TIMEOUT" envDefault:"120s"`

	MaxFileSizeMB    int    `env:"MAX_FILE_SIZE_MB" envDefault:"10"`
	AllowedFileTypes string `env:"ALLOWED_FILE_TYPES" envDefault:"image/png,image/jpeg,image/webp,application/pdf,audio/webm"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	IdleTimeout    time.Duration `env:"IDLE_TIMEOUT" envDefault:"120s"`

	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost,http://localhost:3000,http://localhost:8080,http://127.0.0.1"`

	// RetentionSweepSchedule is a crontab expression for the periodic
	// retention sweep that restores the history/prompt bounds after a
	// crash between upsert and trim.
	RetentionSweepSchedule string `env:"RETENTION_SWEEP_SCHEDULE" envDefault:"* * * * *"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
}

// Load parses configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	cfg.AIProvider = strings.ToLower(strings.TrimSpace(cfg.AIProvider))

	return cfg, nil
}

// CORSAllowedOriginList returns the browser origins allowed to call the API.
func (c *Config) CORSAllowedOriginList() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSAllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// AllowedFileTypeList returns the allowed MIME types as a cleaned slice.
// The raw value tolerates quoting and whitespace, e.g. "'image/png', 'image/jpeg'".
func (c *Config) AllowedFileTypeList() []string {
	cleaned := strings.ReplaceAll(c.AllowedFileTypes, "'", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if cleaned == "" {
		return nil
	}
	return strings.Split(cleaned, ",")
}
