package llm

import (
	"context"
	"net/http"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// DefaultOllamaURL is used when no server URL is configured.
const DefaultOllamaURL = "http://localhost:11434"

// Ollama generates text through an Ollama-compatible server.
type Ollama struct {
	llm *ollama.LLM
}

var _ Generator = (*Ollama)(nil)

// NewOllama creates an Ollama generator. A non-empty cfg.Token is sent as a
// bearer token on every request.
func NewOllama(cfg Config) (*Ollama, error) {
	opts := []ollama.Option{
		ollama.WithServerURL(ollamaServerURL(cfg.URL)),
	}
	if cfg.Model != "" {
		opts = append(opts, ollama.WithModel(cfg.Model))
	}
	if cfg.Token != "" {
		opts = append(opts, ollama.WithHTTPClient(&http.Client{
			Transport: &bearerTransport{token: cfg.Token},
		}))
	}

	client, err := ollama.New(opts...)
	if err != nil {
		return nil, &TransportError{Provider: ProviderOllama, Err: err}
	}
	return &Ollama{llm: client}, nil
}

// Generate implements Generator.
func (o *Ollama) Generate(ctx context.Context, prompt, system string) (string, error) {
	var messages []llms.MessageContent
	if system != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, system))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, prompt))

	resp, err := o.llm.GenerateContent(ctx, messages,
		llms.WithTemperature(Temperature),
		llms.WithTopP(TopP),
	)
	if err != nil {
		return "", &TransportError{Provider: ProviderOllama, Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &TransportError{Provider: ProviderOllama, Err: errNoChoices}
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}

// ollamaServerURL accepts either a server root or a full generate endpoint
// URL such as http://host:11434/api/generate.
func ollamaServerURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultOllamaURL
	}
	raw = strings.TrimSuffix(raw, "/")
	for _, suffix := range []string{"/api/generate", "/api/chat"} {
		raw = strings.TrimSuffix(raw, suffix)
	}
	return raw
}
