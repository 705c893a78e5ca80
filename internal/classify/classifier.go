package classify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ShayCichocki/hive/internal/llm"
)

// BuildPrompt renders the classification prompt for content. Categories are
// listed in mapping order.
func BuildPrompt(content string, m *Mapping) string {
	var sb strings.Builder
	sb.WriteString("Here is a list of task categories and their associated keywords:\n")
	for _, c := range m.categories {
		fmt.Fprintf(&sb, "- %s: %s\n", c.Name, strings.Join(c.Keywords, ", "))
	}
	sb.WriteString("\nBased on the mapping above, classify the following task into one of the categories.\n")
	sb.WriteString("Return only the category name.\n")
	sb.WriteString("Task:\n")
	sb.WriteString(content)
	return sb.String()
}

// Normalize reduces a model answer to a candidate category name.
func Normalize(response string) string {
	return strings.ToLower(strings.TrimSpace(llm.StripThinking(response)))
}

// Classify returns the category of content. It never fails: a gateway error
// or an answer outside the mapping falls back to m.FindTypeFor.
func Classify(ctx context.Context, gen llm.Generator, content string, m *Mapping) string {
	return classify(ctx, gen, content, m, zap.NewNop())
}

func classify(ctx context.Context, gen llm.Generator, content string, m *Mapping, logger *zap.Logger) string {
	resp, err := gen.Generate(ctx, BuildPrompt(content, m), "")
	if err != nil {
		logger.Warn("classification call failed, using keyword fallback", zap.Error(err))
		return m.FindTypeFor(content)
	}

	category := Normalize(resp)
	if m.Has(category) {
		return category
	}

	fallback := m.FindTypeFor(content)
	logger.Warn("model returned unknown category",
		zap.String("response", category),
		zap.String("fallback", fallback))
	return fallback
}

// Classifier binds a generator to a mapping source.
type Classifier struct {
	gen    llm.Generator
	source MappingSource
	logger *zap.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets the classifier's logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Classifier.
func New(gen llm.Generator, source MappingSource, opts ...Option) *Classifier {
	c := &Classifier{
		gen:    gen,
		source: source,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns the category of content against the source's current
// mapping.
func (c *Classifier) Classify(ctx context.Context, content string) string {
	m := c.source.Mapping()
	c.logger.Debug("classifying task", zap.String("task", content), zap.Int("categories", m.Len()))
	category := classify(ctx, c.gen, content, m, c.logger)
	c.logger.Info("classified task", zap.String("task", content), zap.String("type", category))
	return category
}

// Mapping returns the source's current mapping.
func (c *Classifier) Mapping() *Mapping {
	return c.source.Mapping()
}
