package textgen

import (
	"fmt"
	"strings"

	"promptsmith/internal/domain"
)

// ProviderConfig selects and configures one provider.
type ProviderConfig struct {
	Provider  string
	OpenAI    OpenAIOptions
	Gemini    GeminiOptions
	Anthropic AnthropicOptions
}

// NewCompleter builds the completer named by cfg.Provider.
func NewCompleter(cfg ProviderConfig) (Completer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderOpenAI, "":
		return NewOpenAICompleter(cfg.OpenAI)
	case ProviderGemini:
		return NewGeminiCompleter(cfg.Gemini)
	case ProviderAnthropic:
		return NewAnthropicCompleter(cfg.Anthropic)
	default:
		return nil, domain.NewConfigError("TEXTGEN_PROVIDER", fmt.Sprintf("unsupported provider %q", cfg.Provider))
	}
}
