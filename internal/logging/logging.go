// Package logging builds the zap loggers used across hive: a console core,
// a shared JSON file at <dir>/interactions.log, and one extra JSON file per
// agent at <dir>/<agent>.log.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InteractionsFile is the shared log file name.
const InteractionsFile = "interactions.log"

// Options configures a Factory.
type Options struct {
	// Dir is the log directory. Empty disables file logging.
	Dir string
	// Level is a zap level name (debug, info, warn, error). Empty means info.
	Level string
	// Console enables human-readable output on Stderr.
	Console bool
	// ConsoleWriter replaces Stderr when set.
	ConsoleWriter io.Writer
}

// Factory hands out loggers that share cores and level.
type Factory struct {
	dir   string
	level zap.AtomicLevel
	base  *zap.Logger

	mu      sync.Mutex
	agents  map[string]*zap.Logger
	closers []func()
}

// New builds a Factory from opts.
func New(opts Options) (*Factory, error) {
	level := zap.NewAtomicLevel()
	if opts.Level != "" {
		lvl, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		level.SetLevel(lvl)
	}

	f := &Factory{
		dir:    opts.Dir,
		level:  level,
		agents: make(map[string]*zap.Logger),
	}

	var cores []zapcore.Core
	if opts.Console {
		w := opts.ConsoleWriter
		if w == nil {
			w = os.Stderr
		}
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level))
	}
	if opts.Dir != "" {
		core, err := f.fileCore(InteractionsFile)
		if err != nil {
			return nil, err
		}
		cores = append(cores, core)
	}

	f.base = zap.New(zapcore.NewTee(cores...))
	return f, nil
}

// Nop returns a Factory whose loggers discard everything.
func Nop() *Factory {
	return &Factory{
		level:  zap.NewAtomicLevel(),
		base:   zap.NewNop(),
		agents: make(map[string]*zap.Logger),
	}
}

// Logger returns the shared logger.
func (f *Factory) Logger() *zap.Logger {
	return f.base
}

// Named returns the shared logger with a component name.
func (f *Factory) Named(component string) *zap.Logger {
	return f.base.Named(component)
}

// ForAgent returns a logger named after the agent that also writes to
// <dir>/<agent>.log. If the agent file cannot be opened the shared logger is
// returned and the failure is logged.
func (f *Factory) ForAgent(agent string) *zap.Logger {
	f.mu.Lock()
	defer f.mu.Unlock()

	if l, ok := f.agents[agent]; ok {
		return l
	}

	l := f.base.Named(agent)
	if f.dir != "" {
		core, err := f.fileCore(agent + ".log")
		if err != nil {
			f.base.Warn("agent log file unavailable", zap.String("agent", agent), zap.Error(err))
		} else {
			l = l.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
				return zapcore.NewTee(c, core)
			}))
		}
	}
	f.agents[agent] = l
	return l
}

// fileCore opens dir/name for appending and wraps it in a JSON core.
func (f *Factory) fileCore(name string) (zapcore.Core, error) {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	path := filepath.Join(f.dir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	f.closers = append(f.closers, func() { file.Close() })

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), f.level), nil
}

// SetLevel changes the level of every logger from this factory.
func (f *Factory) SetLevel(l zapcore.Level) {
	f.level.SetLevel(l)
}

// Close flushes and closes every log file.
// Safe to call on a Nop factory.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	_ = f.base.Sync()
	for _, c := range f.closers {
		c()
	}
	f.closers = nil
	return nil
}
