package models

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TaskTypeGeneric is the capability label of catch-all workers and the
// default type of every new task.
const TaskTypeGeneric = "generic"

// ErrInvalidTransition is returned when a status change is not an edge of the
// task state machine.
var ErrInvalidTransition = errors.New("invalid task status transition")

// ErrTypeLocked is returned when a task's type is changed after assignment.
var ErrTypeLocked = errors.New("task type is immutable after assignment")

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has not been assigned.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusAssigned indicates a worker accepted the task.
	TaskStatusAssigned TaskStatus = "assigned"
	// TaskStatusRunning indicates the worker is executing the task.
	TaskStatusRunning TaskStatus = "running"
	// TaskStatusCompleted indicates the task finished with a result.
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusFailed indicates execution failed.
	TaskStatusFailed TaskStatus = "failed"
	// TaskStatusRejected indicates no worker accepted the task.
	TaskStatusRejected TaskStatus = "rejected"
)

// transitions lists the allowed next states for every state.
var transitions = map[TaskStatus][]TaskStatus{
	TaskStatusPending:  {TaskStatusAssigned, TaskStatusRejected},
	TaskStatusAssigned: {TaskStatusRunning, TaskStatusRejected},
	TaskStatusRunning:  {TaskStatusCompleted, TaskStatusFailed},
}

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusAssigned, TaskStatusRunning,
		TaskStatusCompleted, TaskStatusFailed, TaskStatusRejected:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if no transition leaves this status.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed || s == TaskStatusRejected
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Difficulty is an optional hint that selects a system prompt suffix.
type Difficulty string

const (
	DifficultyNone   Difficulty = ""
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid returns true if the difficulty is empty or a known level.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyNone, DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

// Task is the unit of work routed through the hive.
// All accessors are safe for concurrent use.
type Task struct {
	mu sync.RWMutex

	id         string
	content    string
	taskType   string
	difficulty Difficulty
	status     TaskStatus
	assignedTo string
	result     string
	startedAt  *time.Time
	endedAt    *time.Time
}

// NewTask creates a pending generic task with a fresh ID.
func NewTask(content string) *Task {
	return &Task{
		id:       uuid.New().String(),
		content:  content,
		taskType: TaskTypeGeneric,
		status:   TaskStatusPending,
	}
}

// NewTypedTask creates a pending task with the given type.
func NewTypedTask(content, taskType string) *Task {
	t := NewTask(content)
	if taskType != "" {
		t.taskType = taskType
	}
	return t
}

// ID returns the task identifier.
func (t *Task) ID() string { return t.id }

// Content returns the task text.
func (t *Task) Content() string { return t.content }

// Type returns the task type label.
func (t *Task) Type() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.taskType
}

// SetType changes the task type. It fails once the task has left Pending.
func (t *Task) SetType(taskType string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != TaskStatusPending {
		return fmt.Errorf("set type %q on %s task: %w", taskType, t.status, ErrTypeLocked)
	}
	if taskType == "" {
		taskType = TaskTypeGeneric
	}
	t.taskType = taskType
	return nil
}

// Difficulty returns the declared difficulty, if any.
func (t *Task) Difficulty() Difficulty {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.difficulty
}

// SetDifficulty declares the task difficulty.
func (t *Task) SetDifficulty(d Difficulty) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.difficulty = d
}

// Status returns the current status.
func (t *Task) Status() TaskStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// AssignedTo returns the name of the worker the task was assigned to.
func (t *Task) AssignedTo() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.assignedTo
}

// Result returns the result text or failure reason.
func (t *Task) Result() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.result
}

// AssignTo moves a pending task to Assigned.
func (t *Task) AssignTo(worker string) error {
	if worker == "" {
		return fmt.Errorf("assign task %s: empty worker name", t.id)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.transitionLocked(TaskStatusAssigned); err != nil {
		return err
	}
	t.assignedTo = worker
	return nil
}

// MarkRunning moves an assigned task to Running.
func (t *Task) MarkRunning() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transitionLocked(TaskStatusRunning)
}

// MarkCompleted records the result of a running task.
func (t *Task) MarkCompleted(result string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.transitionLocked(TaskStatusCompleted); err != nil {
		return err
	}
	t.result = result
	return nil
}

// MarkFailed records the failure reason of a running task.
func (t *Task) MarkFailed(reason string) error {
	if reason == "" {
		reason = "unknown error"
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.transitionLocked(TaskStatusFailed); err != nil {
		return err
	}
	t.result = reason
	return nil
}

// MarkRejected records that no worker accepted the task.
func (t *Task) MarkRejected() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transitionLocked(TaskStatusRejected)
}

// MarkStarted records the start of a dispatch attempt.
func (t *Task) MarkStarted() {
	now := time.Now()
	t.mu.Lock()
	t.startedAt = &now
	t.mu.Unlock()
}

// MarkEnded records the end of a dispatch attempt.
func (t *Task) MarkEnded() {
	now := time.Now()
	t.mu.Lock()
	t.endedAt = &now
	t.mu.Unlock()
}

// StartedAt returns when the dispatch attempt started, or nil.
func (t *Task) StartedAt() *time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.startedAt
}

// EndedAt returns when the dispatch attempt ended, or nil.
func (t *Task) EndedAt() *time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.endedAt
}

// Duration returns the time between start and end, or zero if either is unset.
func (t *Task) Duration() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.startedAt == nil || t.endedAt == nil {
		return 0
	}
	return t.endedAt.Sub(*t.startedAt)
}

// String implements fmt.Stringer.
func (t *Task) String() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	short := t.id
	if len(short) > 6 {
		short = short[:6]
	}
	return fmt.Sprintf("Task(%s...) [%s] %s -> %s", short, t.taskType, t.status, t.assignedTo)
}

func (t *Task) transitionLocked(next TaskStatus) error {
	if !t.status.CanTransitionTo(next) {
		return fmt.Errorf("task %s %s -> %s: %w", t.id, t.status, next, ErrInvalidTransition)
	}
	t.status = next
	return nil
}
