// Package agent implements hive workers: named units with a capability, a
// caste and a busy flag that accept tasks and execute them through the
// inference gateway.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ShayCichocki/hive/internal/llm"
	"github.com/ShayCichocki/hive/internal/memory"
	"github.com/ShayCichocki/hive/internal/prompts"
	"github.com/ShayCichocki/hive/pkg/models"
)

// Admission errors.
var (
	// ErrRejected indicates the agent declined the task: wrong type or busy.
	ErrRejected = errors.New("task rejected")
	// ErrBusy indicates the agent is already executing a task.
	ErrBusy = errors.New("agent busy")
)

// Agent is a worker. It executes at most one task at a time.
type Agent struct {
	id           string
	name         string
	role         string
	taskType     string
	caste        models.Caste
	systemPrompt string
	suffixes     map[models.Difficulty]string

	gen    llm.Generator
	store  memory.Store
	logger *zap.Logger

	// mu guards busy. Admission and the busy claim happen under one lock.
	mu   sync.Mutex
	busy bool

	logMu sync.Mutex
	log   []models.ConversationEntry
}

// Option configures an Agent.
type Option func(*Agent)

// WithRole sets the free-form role description.
func WithRole(role string) Option {
	return func(a *Agent) { a.role = role }
}

// WithTaskType sets the capability label. Empty means generic.
func WithTaskType(taskType string) Option {
	return func(a *Agent) {
		if taskType != "" {
			a.taskType = taskType
		}
	}
}

// WithCaste sets the caste. Invalid castes are ignored.
func WithCaste(c models.Caste) Option {
	return func(a *Agent) {
		if c.Valid() {
			a.caste = c
		}
	}
}

// WithSystemPrompt sets the system instruction sent with every task.
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) { a.systemPrompt = prompt }
}

// WithDifficultySuffix appends suffix to the system instruction for tasks
// of difficulty d.
func WithDifficultySuffix(d models.Difficulty, suffix string) Option {
	return func(a *Agent) {
		if d != models.DifficultyNone && suffix != "" {
			a.suffixes[d] = suffix
		}
	}
}

// WithStore persists the conversation log after every execution.
func WithStore(s memory.Store) Option {
	return func(a *Agent) { a.store = s }
}

// WithLog seeds the conversation log, usually from a store.
func WithLog(log []models.ConversationEntry) Option {
	return func(a *Agent) {
		a.log = append([]models.ConversationEntry(nil), log...)
	}
}

// WithLogger sets the agent logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Agent) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an idle generic agent of the default caste.
func New(name string, gen llm.Generator, opts ...Option) *Agent {
	a := &Agent{
		id:           uuid.New().String(),
		name:         name,
		role:         "assistant",
		taskType:     models.TaskTypeGeneric,
		caste:        models.DefaultCaste,
		systemPrompt: prompts.DefaultSystemPrompt,
		suffixes:     make(map[models.Difficulty]string),
		gen:          gen,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ID returns the agent's unique identifier.
func (a *Agent) ID() string { return a.id }

// Name returns the agent's unique human key.
func (a *Agent) Name() string { return a.name }

// Role returns the role description.
func (a *Agent) Role() string { return a.role }

// TaskType returns the capability label.
func (a *Agent) TaskType() string { return a.taskType }

// Caste returns the agent's caste.
func (a *Agent) Caste() models.Caste { return a.caste }

// SystemPrompt returns the base system instruction.
func (a *Agent) SystemPrompt() string { return a.systemPrompt }

// Generator returns the agent's inference gateway.
func (a *Agent) Generator() llm.Generator { return a.gen }

// Logger returns the agent logger.
func (a *Agent) Logger() *zap.Logger { return a.logger }

// Busy reports whether the agent is executing a task.
func (a *Agent) Busy() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.busy
}

// ReceiveTask reports whether the agent would take a task of requestedType
// right now. An empty type matches any capability. It does not change state.
func (a *Agent) ReceiveTask(requestedType string) models.Admission {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.admitsLocked(requestedType) {
		return models.Accepted
	}
	return models.Rejected
}

func (a *Agent) admitsLocked(requestedType string) bool {
	if a.busy {
		return false
	}
	return requestedType == "" || requestedType == a.taskType
}

// claim atomically admits requestedType and marks the agent busy.
func (a *Agent) claim(requestedType string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.admitsLocked(requestedType) {
		return false
	}
	a.busy = true
	return true
}

func (a *Agent) release() {
	a.mu.Lock()
	a.busy = false
	a.mu.Unlock()
}

// Accept admits task by its type and executes it. It returns ErrRejected,
// without side effects, if the type does not match or the agent is busy.
func (a *Agent) Accept(ctx context.Context, task *models.Task) (string, error) {
	if !a.claim(task.Type()) {
		a.logger.Debug("task rejected",
			zap.String("task_id", task.ID()),
			zap.String("task_type", task.Type()),
			zap.String("capability", a.taskType))
		return "", fmt.Errorf("agent %s: %w", a.name, ErrRejected)
	}
	defer a.release()
	return a.run(ctx, task)
}

// Execute runs task regardless of its type. It returns ErrBusy if the agent
// is already executing.
func (a *Agent) Execute(ctx context.Context, task *models.Task) (string, error) {
	if !a.claim("") {
		return "", fmt.Errorf("agent %s: %w", a.name, ErrBusy)
	}
	defer a.release()
	return a.run(ctx, task)
}

// Think executes content as a fresh generic task.
func (a *Agent) Think(ctx context.Context, content string) (string, error) {
	return a.Execute(ctx, models.NewTask(content))
}

// run executes task. The caller holds the busy claim.
func (a *Agent) run(ctx context.Context, task *models.Task) (string, error) {
	if task.Status() == models.TaskStatusPending {
		if err := task.AssignTo(a.name); err != nil {
			return "", fmt.Errorf("agent %s: %w", a.name, err)
		}
	}
	if err := task.MarkRunning(); err != nil {
		return "", fmt.Errorf("agent %s: %w", a.name, err)
	}

	a.logger.Info("thinking", zap.String("task_id", task.ID()), zap.String("task", task.Content()))
	start := time.Now()
	raw, err := a.gen.Generate(ctx, task.Content(), a.systemFor(task.Difficulty()))
	if err != nil {
		_ = task.MarkFailed(err.Error())
		a.logger.Error("generation failed", zap.String("task_id", task.ID()), zap.Error(err))
		return "", fmt.Errorf("agent %s: %w", a.name, err)
	}
	response := llm.StripThinking(raw)
	a.logger.Debug("generation finished", zap.Duration("elapsed", time.Since(start)))
	a.logger.Info("final response", zap.String("response", preview(response, 80)))

	a.remember(task.Content(), response)
	_ = task.MarkCompleted(response)
	return response, nil
}

func (a *Agent) systemFor(d models.Difficulty) string {
	suffix, ok := a.suffixes[d]
	if !ok {
		return a.systemPrompt
	}
	if a.systemPrompt == "" {
		return suffix
	}
	return a.systemPrompt + "\n\n" + suffix
}

// remember appends an entry and overwrites the stored log. Castes without
// memory keep the entry for the session only. A persistence failure is
// logged; the entry stays in memory.
func (a *Agent) remember(task, response string) {
	a.logMu.Lock()
	defer a.logMu.Unlock()
	a.log = append(a.log, models.ConversationEntry{Task: task, Response: response})
	if a.store == nil || !models.Traits(a.caste).Memory {
		return
	}
	if err := a.store.Save(a.name, a.log); err != nil {
		a.logger.Error("failed to persist conversation log", zap.Error(err))
	}
}

// Log returns a copy of the conversation log.
func (a *Agent) Log() []models.ConversationEntry {
	a.logMu.Lock()
	defer a.logMu.Unlock()
	return append([]models.ConversationEntry(nil), a.log...)
}

// CanCommunicateWith reports whether a may address other.
func (a *Agent) CanCommunicateWith(other *Agent) bool {
	return models.CanCommunicate(a.caste, other.caste)
}

// Info is a snapshot of an agent for listings.
type Info struct {
	Name     string
	Role     string
	TaskType string
	Caste    models.Caste
	Busy     bool
	Entries  int
}

// Info returns a snapshot of the agent.
func (a *Agent) Info() Info {
	a.logMu.Lock()
	entries := len(a.log)
	a.logMu.Unlock()
	return Info{
		Name:     a.name,
		Role:     a.role,
		TaskType: a.taskType,
		Caste:    a.caste,
		Busy:     a.Busy(),
		Entries:  entries,
	}
}

func (a *Agent) String() string {
	return fmt.Sprintf("Agent(%s) [%s/%s]", a.name, a.taskType, a.caste)
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
