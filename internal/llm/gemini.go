package llm

import (
	"context"
	"errors"
	"os"
	"strings"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// Gemini generates text through the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

var _ Generator = (*Gemini)(nil)

// NewGemini creates a Gemini generator. An empty cfg.Token falls back to
// GEMINI_API_KEY.
func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	apiKey := cfg.Token
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &TransportError{Provider: ProviderGemini, Err: err}
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{client: client, model: model}, nil
}

// Generate implements Generator.
func (g *Gemini) Generate(ctx context.Context, prompt, system string) (string, error) {
	gc := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](Temperature),
		TopP:        genai.Ptr[float32](TopP),
	}
	if system != "" {
		gc.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), gc)
	if err != nil {
		te := &TransportError{Provider: ProviderGemini, Err: err}
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			te.StatusCode = apiErr.Code
		}
		return "", te
	}
	if len(resp.Candidates) == 0 {
		return "", &TransportError{Provider: ProviderGemini, Err: errNoChoices}
	}
	return strings.TrimSpace(resp.Text()), nil
}
