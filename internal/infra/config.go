package infra

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"promptsmith/internal/domain"
)

const (
	StoreBackendJSONL    = "jsonl"
	StoreBackendPostgres = "postgres"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string        `envconfig:"APP_ENV" default:"development"`
	Port             string        `envconfig:"PORT" default:"8080"`
	HTTPReadTimeout  time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	HTTPWriteTimeout time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"180s"`
	HTTPIdleTimeout  time.Duration `envconfig:"HTTP_IDLE_TIMEOUT" default:"60s"`
	RateLimitPerMin  int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"30"`
	CORSOrigins      []string      `envconfig:"CORS_ALLOWED_ORIGINS"`

	PersonaPath string `envconfig:"PERSONA_PATH" default:"config/persona.yaml"`
	BankPath    string `envconfig:"BANK_PATH" default:"config/bank.yaml"`

	StoreBackend    string `envconfig:"STORE_BACKEND" default:"jsonl"`
	StorePath       string `envconfig:"STORE_PATH" default:"data/bundles.jsonl"`
	StoreMaxEntries int    `envconfig:"STORE_MAX_ENTRIES" default:"500"`
	DatabaseURL     string `envconfig:"DATABASE_URL"`

	TextgenProvider    string        `envconfig:"TEXTGEN_PROVIDER" default:"openai"`
	TextgenTimeout     time.Duration `envconfig:"TEXTGEN_TIMEOUT" default:"30s"`
	TextgenMaxRetries  int           `envconfig:"TEXTGEN_MAX_RETRIES" default:"3"`
	TextgenBackoffBase time.Duration `envconfig:"TEXTGEN_BACKOFF_BASE" default:"500ms"`
	TextgenTemperature float64       `envconfig:"TEXTGEN_TEMPERATURE" default:"0.9"`

	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY"`
	OpenAIModel   string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`
	OpenAIOrg     string `envconfig:"OPENAI_ORG"`

	GeminiAPIKey  string `envconfig:"GEMINI_API_KEY"`
	GeminiModel   string `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash"`
	GeminiBaseURL string `envconfig:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta"`

	AnthropicAPIKey    string `envconfig:"ANTHROPIC_API_KEY"`
	AnthropicModel     string `envconfig:"ANTHROPIC_MODEL" default:"claude-3-5-haiku-latest"`
	AnthropicBaseURL   string `envconfig:"ANTHROPIC_BASE_URL"`
	AnthropicMaxTokens int    `envconfig:"ANTHROPIC_MAX_TOKENS" default:"4096"`

	PromptMinChars   int     `envconfig:"PROMPT_MIN_CHARS" default:"950"`
	PromptMaxChars   int     `envconfig:"PROMPT_MAX_CHARS" default:"1200"`
	FuzzyThreshold   float64 `envconfig:"FUZZY_THRESHOLD" default:"0.8"`
	PoseAnchor       string  `envconfig:"POSE_ANCHOR" default:"anywhere"`
	PoseAnchorWindow int     `envconfig:"POSE_ANCHOR_WINDOW" default:"40"`
	MaxAttempts      int     `envconfig:"MAX_ATTEMPTS" default:"3"`

	ImageWidth           int `envconfig:"IMAGE_WIDTH" default:"1080"`
	ImageHeight          int `envconfig:"IMAGE_HEIGHT" default:"1920"`
	VideoDurationSeconds int `envconfig:"VIDEO_DURATION_SECONDS" default:"6"`
}

// LoadDotEnv loads .env files when present. Missing files are not an error.
func LoadDotEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
// Variables set to an empty string are taken as set; unset them to get the default.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("infra: load config: %w", err)
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	cfg.TextgenProvider = strings.ToLower(strings.TrimSpace(cfg.TextgenProvider))
	cfg.PoseAnchor = strings.ToLower(strings.TrimSpace(cfg.PoseAnchor))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.PromptMinChars <= 0 || c.PromptMaxChars <= 0 || c.PromptMinChars >= c.PromptMaxChars {
		return domain.NewConfigError("PROMPT_MIN_CHARS", fmt.Sprintf("window [%d, %d] is invalid", c.PromptMinChars, c.PromptMaxChars))
	}
	if c.FuzzyThreshold <= 0 || c.FuzzyThreshold > 1 {
		return domain.NewConfigError("FUZZY_THRESHOLD", "must be in (0, 1]")
	}
	if c.MaxAttempts <= 0 {
		return domain.NewConfigError("MAX_ATTEMPTS", "must be positive")
	}
	if c.TextgenMaxRetries < 0 {
		return domain.NewConfigError("TEXTGEN_MAX_RETRIES", "must not be negative")
	}
	switch c.PoseAnchor {
	case "anywhere", "section_start":
	default:
		return domain.NewConfigError("POSE_ANCHOR", fmt.Sprintf("unknown mode %q", c.PoseAnchor))
	}
	// With the postgres store a missing key may still come from the
	// provider_credentials table.
	keyOptional := c.StoreBackend == StoreBackendPostgres
	switch c.TextgenProvider {
	case "openai":
		if c.OpenAIAPIKey == "" && !keyOptional {
			return domain.NewConfigError("OPENAI_API_KEY", "is required")
		}
	case "gemini":
		if c.GeminiAPIKey == "" && !keyOptional {
			return domain.NewConfigError("GEMINI_API_KEY", "is required")
		}
	case "anthropic":
		if c.AnthropicAPIKey == "" && !keyOptional {
			return domain.NewConfigError("ANTHROPIC_API_KEY", "is required")
		}
	default:
		return domain.NewConfigError("TEXTGEN_PROVIDER", fmt.Sprintf("unsupported provider %q", c.TextgenProvider))
	}
	switch c.StoreBackend {
	case StoreBackendJSONL:
		if strings.TrimSpace(c.StorePath) == "" {
			return domain.NewConfigError("STORE_PATH", "is required for the jsonl store")
		}
	case StoreBackendPostgres:
		if c.DatabaseURL == "" {
			return domain.NewConfigError("DATABASE_URL", "is required for the postgres store")
		}
	default:
		return domain.NewConfigError("STORE_BACKEND", fmt.Sprintf("unsupported backend %q", c.StoreBackend))
	}
	if c.StoreMaxEntries <= 0 {
		return domain.NewConfigError("STORE_MAX_ENTRIES", "must be positive")
	}
	return nil
}
