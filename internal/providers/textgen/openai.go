package textgen

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"promptsmith/internal/domain"
)

const defaultOpenAIModel = "gpt-4o-mini"

var openAIModelAliases = map[string]string{
	"gpt4o-mini":             "gpt-4o-mini",
	"gpt4omini":              "gpt-4o-mini",
	"gpt-4o-mini-2024-07-18": "gpt-4o-mini",
	"gpt4o":                  "gpt-4o",
	"gpt-4-1-mini":           "gpt-4.1-mini",
	"gpt4.1-mini":            "gpt-4.1-mini",
}

type OpenAIOptions struct {
	APIKey       string
	Model        string
	BaseURL      string
	Organization string
	HTTPClient   *http.Client
}

// OpenAICompleter talks to the chat completions API, or any endpoint that
// speaks it, through go-openai.
type OpenAICompleter struct {
	client *openai.Client
	model  string
}

func NewOpenAICompleter(opts OpenAIOptions) (*OpenAICompleter, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, domain.NewConfigError("OPENAI_API_KEY", "required for the openai provider")
	}
	config := openai.DefaultConfig(opts.APIKey)
	if base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"); base != "" {
		config.BaseURL = base
	}
	if opts.Organization != "" {
		config.OrgID = opts.Organization
	}
	if opts.HTTPClient != nil {
		config.HTTPClient = opts.HTTPClient
	}
	return &OpenAICompleter{
		client: openai.NewClientWithConfig(config),
		model:  normalizeOpenAIModel(opts.Model),
	}, nil
}

func (o *OpenAICompleter) Name() string { return ProviderOpenAI }

func (o *OpenAICompleter) Complete(ctx context.Context, in Instruction) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if in.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: in.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: in.User,
	})
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		Temperature: float32(in.Temperature),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	for _, choice := range resp.Choices {
		if text := strings.TrimSpace(choice.Message.Content); text != "" {
			return text, nil
		}
	}
	return "", &domain.GenerationError{Provider: ProviderOpenAI, Err: errors.New("response had no content")}
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return statusErrorWrap(ProviderOpenAI, apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return statusErrorWrap(ProviderOpenAI, reqErr.HTTPStatusCode, err)
	}
	return callError(ProviderOpenAI, err)
}

func normalizeOpenAIModel(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return defaultOpenAIModel
	}
	normalized := strings.ToLower(trimmed)
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	if alias, ok := openAIModelAliases[normalized]; ok {
		return alias
	}
	return normalized
}

var _ Completer = (*OpenAICompleter)(nil)
