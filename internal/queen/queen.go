// Package queen implements the coordinator: a privileged worker that
// classifies, splits, dispatches, aggregates and spawns specialists.
package queen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ShayCichocki/hive/internal/agent"
	"github.com/ShayCichocki/hive/internal/classify"
	"github.com/ShayCichocki/hive/pkg/models"
)

// DefaultSpawnLimit bounds the specialists a Queen may create.
const DefaultSpawnLimit = 3

var (
	// ErrCapacityExhausted indicates the spawn limit has been reached.
	ErrCapacityExhausted = errors.New("specialist capacity exhausted")
	// ErrNoAgentsAvailable indicates every worker is busy.
	ErrNoAgentsAvailable = errors.New("no agents available")
)

// SpecialistFunc constructs a specialist worker.
type SpecialistFunc func(name, taskType string) (*agent.Agent, error)

// Queen coordinates workers. It is itself a worker.
type Queen struct {
	*agent.Agent

	classifier    *classify.Classifier
	spawnLimit    int
	newSpecialist SpecialistFunc
	events        chan<- Event
	logger        *zap.Logger

	spawnMu sync.Mutex
	spawned []*agent.Agent
}

// Option configures a Queen.
type Option func(*Queen)

// WithSpawnLimit sets the maximum number of specialists. Negative values
// are treated as zero.
func WithSpawnLimit(n int) Option {
	return func(q *Queen) {
		if n < 0 {
			n = 0
		}
		q.spawnLimit = n
	}
}

// WithSpecialistFunc replaces the specialist constructor.
func WithSpecialistFunc(fn SpecialistFunc) Option {
	return func(q *Queen) {
		if fn != nil {
			q.newSpecialist = fn
		}
	}
}

// WithEvents sends coordinator events to ch. Sends never block.
func WithEvents(ch chan<- Event) Option {
	return func(q *Queen) { q.events = ch }
}

// WithLogger sets the coordinator logger. It defaults to the agent logger.
func WithLogger(l *zap.Logger) Option {
	return func(q *Queen) {
		if l != nil {
			q.logger = l
		}
	}
}

// New wraps a as a Queen that classifies with c.
func New(a *agent.Agent, c *classify.Classifier, opts ...Option) *Queen {
	q := &Queen{
		Agent:      a,
		classifier: c,
		spawnLimit: DefaultSpawnLimit,
		logger:     a.Logger(),
	}
	q.newSpecialist = q.defaultSpecialist
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// defaultSpecialist builds a specialist of the default caste, the one
// workers get when their record names none.
func (q *Queen) defaultSpecialist(name, taskType string) (*agent.Agent, error) {
	return agent.New(name, q.Generator(),
		agent.WithRole("specialist"),
		agent.WithTaskType(taskType),
		agent.WithCaste(models.DefaultCaste),
		agent.WithLogger(q.logger.Named(name)),
	), nil
}

// Classifier returns the Queen's classifier.
func (q *Queen) Classifier() *classify.Classifier { return q.classifier }

// DefineTaskType classifies content.
func (q *Queen) DefineTaskType(ctx context.Context, content string) string {
	q.logger.Info("analyzing task type", zap.String("task", content))
	taskType := q.classifier.Classify(ctx, content)
	q.logger.Info("classified task", zap.String("type", taskType))
	return taskType
}

// SpawnLimit returns the maximum number of specialists.
func (q *Queen) SpawnLimit() int { return q.spawnLimit }

// Spawned returns the specialists created so far.
func (q *Queen) Spawned() []*agent.Agent {
	q.spawnMu.Lock()
	defer q.spawnMu.Unlock()
	return append([]*agent.Agent(nil), q.spawned...)
}

// SpawnSpecialist creates a worker for taskType and keeps it in the Queen's
// private spawn list. The specialist is not registered anywhere else.
// It returns ErrCapacityExhausted once the spawn limit is reached.
func (q *Queen) SpawnSpecialist(taskType string) (*agent.Agent, error) {
	if taskType == "" {
		taskType = models.TaskTypeGeneric
	}

	q.spawnMu.Lock()
	defer q.spawnMu.Unlock()

	if len(q.spawned) >= q.spawnLimit {
		q.logger.Warn("spawn limit reached",
			zap.String("task_type", taskType),
			zap.Int("limit", q.spawnLimit))
		return nil, fmt.Errorf("spawn %s specialist: %w", taskType, ErrCapacityExhausted)
	}

	name := fmt.Sprintf("specialist-%s-%s", nameSafe(taskType), uuid.New().String()[:8])
	a, err := q.newSpecialist(name, taskType)
	if err != nil {
		return nil, fmt.Errorf("spawn %s specialist: %w", taskType, err)
	}
	q.spawned = append(q.spawned, a)

	q.logger.Info("spawned specialist", zap.String("agent", name), zap.String("task_type", taskType))
	q.emit(Event{Type: EventSpecialistSpawned, Agent: name, TaskType: taskType})
	return a, nil
}

// nameSafe maps taskType onto the characters allowed in agent names.
func nameSafe(taskType string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		default:
			return '-'
		}
	}, taskType)
}
