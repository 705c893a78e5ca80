package queen

import "time"

// EventType represents the type of coordinator event.
type EventType string

const (
	// EventSubtaskStarted indicates a subtask was classified and is being dispatched.
	EventSubtaskStarted EventType = "subtask_started"
	// EventSubtaskAssigned indicates a worker produced output for a subtask.
	EventSubtaskAssigned EventType = "subtask_assigned"
	// EventSubtaskSkipped indicates no worker took the subtask.
	EventSubtaskSkipped EventType = "subtask_skipped"
	// EventSubtaskFailed indicates the chosen worker failed.
	EventSubtaskFailed EventType = "subtask_failed"
	// EventSpecialistSpawned indicates a new specialist was created.
	EventSpecialistSpawned EventType = "specialist_spawned"
	// EventOrchestrationDone indicates all subtasks and the summary are done.
	EventOrchestrationDone EventType = "orchestration_done"
)

// Event is emitted by the Queen while it works.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// TaskID is the ID of the related task, if applicable.
	TaskID string
	// Content is the task content.
	Content string
	// TaskType is the classified type of the task.
	TaskType string
	// Agent names the worker or specialist involved.
	Agent string
	// Message provides additional context.
	Message string
	// Error contains error details for failure events.
	Error error
	// Duration is the dispatch time of a finished subtask.
	Duration time.Duration
	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// emit sends e without blocking. Events are dropped when the channel is full.
func (q *Queen) emit(e Event) {
	if q.events == nil {
		return
	}
	e.Timestamp = time.Now()
	select {
	case q.events <- e:
	default:
	}
}
