package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/ShayCichocki/hive/internal/agent"
	"github.com/ShayCichocki/hive/internal/classify"
	"github.com/ShayCichocki/hive/internal/config"
	"github.com/ShayCichocki/hive/internal/llm"
	"github.com/ShayCichocki/hive/internal/logging"
	"github.com/ShayCichocki/hive/internal/memory"
	"github.com/ShayCichocki/hive/internal/prompts"
	"github.com/ShayCichocki/hive/internal/queen"
	"github.com/ShayCichocki/hive/internal/swarm"
	"github.com/ShayCichocki/hive/pkg/models"
)

// app holds everything a command needs. Components are built on demand.
type app struct {
	cfg    *config.Config
	logs   *logging.Factory
	logger *zap.Logger

	gen     llm.Generator
	store   memory.Store
	factory *agent.Factory
	swarm   *swarm.Swarm

	mapping classify.MappingSource
	queen   *queen.Queen

	closers []func() error
}

// newApp loads configuration and builds the shared components.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagQuiet {
		cfg.Log.Console = false
	}

	logs, err := logging.New(logging.Options{
		Dir:     cfg.Paths.Logs,
		Level:   cfg.Log.Level,
		Console: cfg.Log.Console,
	})
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:    cfg,
		logs:   logs,
		logger: logs.Named("hive"),
	}
	a.closers = append(a.closers, logs.Close)

	a.gen, err = llm.New(ctx, llmConfig(cfg.LLM, ""))
	if err != nil {
		a.close()
		return nil, fmt.Errorf("inference gateway: %w", err)
	}

	if err := a.assemble(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

// assemble builds the store, the agent factory and the swarm on top of the
// configuration, logs and gateway already set on a.
func (a *app) assemble(ctx context.Context) error {
	store, err := openStore(a.cfg.Storage, a.cfg.Paths.Data)
	if err != nil {
		return err
	}
	a.store = store
	if c, ok := store.(io.Closer); ok {
		a.closers = append(a.closers, c.Close)
	}

	llmCfg := a.cfg.LLM
	a.factory = agent.NewFactory(a.gen, a.store,
		agent.WithRecords(config.NewAgentStore(a.cfg.Paths.Configs)),
		agent.WithPrompts(prompts.NewLoader(a.cfg.Paths.Prompts)),
		agent.WithLogs(a.logs),
		agent.WithModels(func(model string) (llm.Generator, error) {
			if model == llmCfg.Model {
				return a.gen, nil
			}
			return llm.New(ctx, llmConfig(llmCfg, model))
		}),
	)
	a.swarm = swarm.New(a.factory)
	return nil
}

func loadConfig() (*config.Config, error) {
	if flagConfigPath != "" {
		config.LoadDotEnv()
		return config.LoadFromPath(flagConfigPath)
	}
	return config.Load()
}

func llmConfig(c config.LLMConfig, model string) llm.Config {
	if model == "" {
		model = c.Model
	}
	return llm.Config{
		Provider:   c.Provider,
		URL:        c.URL,
		Model:      model,
		Token:      c.Token,
		Bedrock:    c.Bedrock,
		AWSRegion:  c.AWSRegion,
		AWSProfile: c.AWSProfile,
	}
}

func openStore(c config.StorageConfig, dataDir string) (memory.Store, error) {
	switch c.Backend {
	case "", "json":
		return memory.NewJSONStore(dataDir), nil
	case "sqlite":
		s, err := memory.OpenSQLite(c.Path, c.Driver)
		if err != nil {
			return nil, fmt.Errorf("open conversation store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.Backend)
	}
}

// records returns the agent config store.
func (a *app) records() *config.AgentStore {
	return a.factory.Records()
}

// preload registers every agent that has a config record.
func (a *app) preload() error {
	names, err := a.records().Names()
	if err != nil {
		return err
	}
	return a.swarm.Preload(names)
}

// mappingSource loads the classification mapping once. A malformed mapping
// is fatal.
func (a *app) mappingSource() (classify.MappingSource, error) {
	if a.mapping != nil {
		return a.mapping, nil
	}
	path := a.cfg.Paths.Mapping
	if a.cfg.Queen.WatchMapping {
		src, err := classify.WatchMapping(path, a.logs.Named("mapping"))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, src.Close)
		a.mapping = src
		return src, nil
	}
	m, err := classify.LoadMapping(path)
	if err != nil {
		return nil, err
	}
	a.mapping = classify.NewStaticSource(m)
	return a.mapping, nil
}

// coordinator builds the Queen. It is not registered in the swarm, so it
// never dispatches to itself.
func (a *app) coordinator(events chan<- queen.Event) (*queen.Queen, error) {
	if a.queen != nil {
		return a.queen, nil
	}
	src, err := a.mappingSource()
	if err != nil {
		return nil, err
	}

	name := a.cfg.Queen.Name
	rec, err := a.factory.Record(name)
	if err != nil {
		return nil, err
	}
	ov := agent.Overrides{}
	if rec.Caste == "" && rec.LLM.Caste == "" {
		ov.Caste = models.CasteQueen
	}
	qa, err := a.factory.Build(name, ov)
	if err != nil {
		return nil, err
	}

	c := classify.New(a.gen, src, classify.WithLogger(a.logs.Named("classifier")))
	a.queen = queen.New(qa, c,
		queen.WithSpawnLimit(a.cfg.Queen.SpawnLimit),
		queen.WithEvents(events),
		queen.WithSpecialistFunc(func(name, taskType string) (*agent.Agent, error) {
			return a.factory.Build(name, agent.Overrides{TaskType: taskType, Caste: models.DefaultCaste})
		}),
	)
	return a.queen, nil
}

// workers returns every registered agent except the coordinator.
func (a *app) workers() []*agent.Agent {
	all := a.swarm.Agents()
	out := make([]*agent.Agent, 0, len(all))
	for _, w := range all {
		if w.Name() == a.cfg.Queen.Name {
			continue
		}
		out = append(out, w)
	}
	return out
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.logger != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
}
