package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAI generates text through any OpenAI-compatible chat completions API
// (OpenAI, OpenRouter, vLLM, LM Studio).
type OpenAI struct {
	client *openai.Client
	model  string
}

var _ Generator = (*OpenAI)(nil)

// NewOpenAI creates an OpenAI-compatible generator. cfg.URL overrides the
// base URL when set.
func NewOpenAI(cfg Config) *OpenAI {
	config := openai.DefaultConfig(cfg.Token)
	if cfg.URL != "" {
		config.BaseURL = strings.TrimSuffix(cfg.URL, "/")
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
	}
}

// Generate implements Generator.
func (o *OpenAI) Generate(ctx context.Context, prompt, system string) (string, error) {
	var messages []openai.ChatCompletionMessage
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		Temperature: Temperature,
		TopP:        TopP,
	})
	if err != nil {
		return "", &TransportError{Provider: ProviderOpenAI, StatusCode: openAIStatus(err), Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &TransportError{Provider: ProviderOpenAI, Err: errNoChoices}
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func openAIStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
