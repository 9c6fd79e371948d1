package textgen

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"

	"promptsmith/internal/domain"
)

const (
	defaultAnthropicModel     = "claude-3-5-haiku-latest"
	defaultAnthropicMaxTokens = 4096
)

type AnthropicOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	MaxTokens  int
	HTTPClient *http.Client
}

// AnthropicCompleter calls the messages API through go-anthropic.
type AnthropicCompleter struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

func NewAnthropicCompleter(opts AnthropicOptions) (*AnthropicCompleter, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, domain.NewConfigError("ANTHROPIC_API_KEY", "required for the anthropic provider")
	}
	var clientOpts []anthropic.ClientOption
	if base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"); base != "" {
		clientOpts = append(clientOpts, anthropic.WithBaseURL(base))
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, anthropic.WithHTTPClient(opts.HTTPClient))
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultAnthropicModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	return &AnthropicCompleter{
		client:    anthropic.NewClient(opts.APIKey, clientOpts...),
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

func (a *AnthropicCompleter) Name() string { return ProviderAnthropic }

func (a *AnthropicCompleter) Complete(ctx context.Context, in Instruction) (string, error) {
	temperature := float32(in.Temperature)
	resp, err := a.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(a.model),
		System:      in.System,
		Messages:    []anthropic.Message{anthropic.NewUserTextMessage(in.User)},
		MaxTokens:   a.maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return "", classifyAnthropicError(err)
	}
	var sb strings.Builder
	for _, content := range resp.Content {
		if content.Type == anthropic.MessagesContentTypeText {
			sb.WriteString(content.GetText())
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", &domain.GenerationError{Provider: ProviderAnthropic, Err: errors.New("response had no text content")}
	}
	return text, nil
}

func classifyAnthropicError(err error) error {
	var reqErr *anthropic.RequestError
	if errors.As(err, &reqErr) && reqErr.StatusCode > 0 {
		return statusErrorWrap(ProviderAnthropic, reqErr.StatusCode, err)
	}
	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		retryable := apiErr.IsRateLimitErr() || apiErr.IsOverloadedErr() || apiErr.IsApiErr()
		return &domain.GenerationError{Provider: ProviderAnthropic, Retryable: retryable, Err: err}
	}
	return callError(ProviderAnthropic, err)
}

var _ Completer = (*AnthropicCompleter)(nil)
