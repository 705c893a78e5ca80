package agent

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ShayCichocki/hive/internal/config"
	"github.com/ShayCichocki/hive/internal/llm"
	"github.com/ShayCichocki/hive/internal/logging"
	"github.com/ShayCichocki/hive/internal/memory"
	"github.com/ShayCichocki/hive/internal/prompts"
	"github.com/ShayCichocki/hive/pkg/models"
)

// Overrides are explicit settings that win over the agent's config record.
type Overrides struct {
	Role     string
	TaskType string
	Caste    models.Caste
}

// GeneratorFor builds a generator for a per-agent model name.
type GeneratorFor func(model string) (llm.Generator, error)

// Factory builds agents from their config record, prompt file and stored
// conversation log.
type Factory struct {
	gen     llm.Generator
	store   memory.Store
	records *config.AgentStore
	prompts *prompts.Loader
	logs    *logging.Factory
	models  GeneratorFor
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithRecords reads agent records from s.
func WithRecords(s *config.AgentStore) FactoryOption {
	return func(f *Factory) { f.records = s }
}

// WithPrompts reads system prompts from l.
func WithPrompts(l *prompts.Loader) FactoryOption {
	return func(f *Factory) { f.prompts = l }
}

// WithLogs gives every agent its own logger from lf.
func WithLogs(lf *logging.Factory) FactoryOption {
	return func(f *Factory) {
		if lf != nil {
			f.logs = lf
		}
	}
}

// WithModels builds a dedicated generator for records that name a model.
func WithModels(fn GeneratorFor) FactoryOption {
	return func(f *Factory) { f.models = fn }
}

// NewFactory creates a Factory. A nil store disables persistence.
func NewFactory(gen llm.Generator, store memory.Store, opts ...FactoryOption) *Factory {
	f := &Factory{
		gen:   gen,
		store: store,
		logs:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Records returns the config record store, or nil.
func (f *Factory) Records() *config.AgentStore { return f.records }

// Record returns name's config record, or the built-in default.
func (f *Factory) Record(name string) (config.AgentRecord, error) {
	if f.records == nil {
		return config.DefaultAgentRecord(), nil
	}
	return f.records.Load(name)
}

// Build creates the agent called name.
func (f *Factory) Build(name string, ov Overrides) (*Agent, error) {
	if err := memory.CheckName(name); err != nil {
		return nil, err
	}
	rec, err := f.Record(name)
	if err != nil {
		return nil, err
	}
	logger := f.logs.ForAgent(name)

	if ov.Role != "" {
		rec.Role = ov.Role
		if ov.TaskType == "" {
			rec.TaskType = ov.Role
		}
	}
	if ov.TaskType != "" {
		rec.TaskType = ov.TaskType
	}

	caste := ov.Caste
	if caste == "" {
		var ok bool
		caste, ok = rec.ResolveCaste()
		if !ok {
			logger.Warn("unknown caste, using larva", zap.String("caste", rec.Caste))
		}
	}

	system, err := f.systemPrompt(name, rec)
	if err != nil {
		return nil, err
	}

	var log []models.ConversationEntry
	if f.store != nil {
		log, err = f.store.Load(name)
		if err != nil {
			return nil, fmt.Errorf("load log for %s: %w", name, err)
		}
	}

	gen := f.gen
	if rec.LLM.Model != "" && f.models != nil {
		gen, err = f.models(rec.LLM.Model)
		if err != nil {
			return nil, fmt.Errorf("model for %s: %w", name, err)
		}
	}

	opts := []Option{
		WithRole(rec.Role),
		WithTaskType(rec.Capability()),
		WithCaste(caste),
		WithSystemPrompt(system),
		WithStore(f.store),
		WithLog(log),
		WithLogger(logger),
	}
	for _, d := range []models.Difficulty{models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard} {
		opts = append(opts, WithDifficultySuffix(d, rec.DifficultySuffix(d)))
	}
	return New(name, gen, opts...), nil
}

// systemPrompt picks the prompt file, then the record, then the default.
func (f *Factory) systemPrompt(name string, rec config.AgentRecord) (string, error) {
	if f.prompts != nil {
		text, ok, err := f.prompts.Lookup(name)
		if err != nil {
			return "", err
		}
		if ok {
			return text, nil
		}
	}
	if rec.SystemPrompt != "" {
		return rec.SystemPrompt, nil
	}
	return prompts.DefaultSystemPrompt, nil
}
