// Package llm is the inference gateway: a single blocking text-generation call
// backed by one of several model providers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Fixed sampling parameters used by every provider.
const (
	Temperature = 0.7
	TopP        = 0.95
)

// Generator produces text for a prompt and an optional system instruction.
type Generator interface {
	Generate(ctx context.Context, prompt, system string) (string, error)
}

// GeneratorFunc adapts an ordinary function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt, system string) (string, error)

// Generate calls f(ctx, prompt, system).
func (f GeneratorFunc) Generate(ctx context.Context, prompt, system string) (string, error) {
	return f(ctx, prompt, system)
}

// TransportError reports a failed call to the inference service: a network
// error, a non-2xx status, or an unusable response body.
type TransportError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransportError reports whether err wraps a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// errNoChoices is wrapped when a provider response carries no candidates.
var errNoChoices = errors.New("response has no choices")

// Provider names accepted by New.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Config selects and configures a provider.
type Config struct {
	// Provider is one of the Provider* constants. Empty means ollama.
	Provider string
	// URL is the server or base URL of the inference service.
	URL string
	// Model is the model name passed to the provider.
	Model string
	// Token is the bearer token or API key.
	Token string
	// Bedrock routes the anthropic provider through AWS Bedrock.
	Bedrock bool
	// AWSRegion is the AWS region for Bedrock (e.g., "us-west-2").
	AWSRegion string
	// AWSProfile is the optional AWS profile name to use.
	AWSProfile string
}

// New builds the Generator for cfg.Provider.
func New(ctx context.Context, cfg Config) (Generator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOllama:
		return NewOllama(cfg)
	case ProviderOpenAI:
		return NewOpenAI(cfg), nil
	case ProviderAnthropic:
		return NewAnthropic(ctx, cfg)
	case ProviderGemini:
		return NewGemini(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

