package queen

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ShayCichocki/hive/internal/agent"
	"github.com/ShayCichocki/hive/pkg/models"
)

// Outputs reported for subtasks no worker took.
const (
	NoSuitableAgent = "No suitable agent available."
	AllAgentsBusy   = "Skipped: every matching agent is busy."
)

// Outcome is the result class of one dispatch.
type Outcome string

const (
	// OutcomeAssigned means a worker executed the task.
	OutcomeAssigned Outcome = "assigned"
	// OutcomeSkippedBusy means a matching worker existed but was busy.
	OutcomeSkippedBusy Outcome = "skipped_busy"
	// OutcomeNoSuitableWorker means no worker could take the task.
	OutcomeNoSuitableWorker Outcome = "no_suitable_worker"
	// OutcomeFailed means the chosen worker failed to execute the task.
	OutcomeFailed Outcome = "failed"
)

// Assignment is the result of dispatching one task.
type Assignment struct {
	// Task is the dispatched task.
	Task *models.Task
	// Outcome classifies the result.
	Outcome Outcome
	// Executor names the worker that ran the task, if any.
	Executor string
	// Output is the worker's response, or a marker for other outcomes.
	Output string
	// Err is the execution error for OutcomeFailed.
	Err error
	// Notes records workers that were skipped and why.
	Notes []string
}

// FreeWorkers returns the workers that are not busy, preserving order.
func FreeWorkers(workers []*agent.Agent) []*agent.Agent {
	free := make([]*agent.Agent, 0, len(workers))
	for _, w := range workers {
		if !w.Busy() {
			free = append(free, w)
		}
	}
	return free
}

// AssignOne gives task to the first worker whose capability equals the task
// type and that accepts it. Failing that, it falls back to the first generic
// worker. Workers the Queen's caste may not address are skipped.
func (q *Queen) AssignOne(ctx context.Context, task *models.Task, workers []*agent.Agent) Assignment {
	res := Assignment{Task: task}
	taskType := task.Type()
	sawBusy := false

	for _, w := range workers {
		if w.Busy() {
			res.Notes = append(res.Notes, fmt.Sprintf("%s is busy", w.Name()))
			if w.TaskType() == taskType {
				sawBusy = true
			}
			continue
		}
		if !q.CanCommunicateWith(w) {
			res.Notes = append(res.Notes, fmt.Sprintf("%s (%s) is outside the %s caste's reach", w.Name(), w.Caste(), q.Caste()))
			continue
		}
		if w.TaskType() != taskType {
			continue
		}
		out, err := w.Accept(ctx, task)
		if errors.Is(err, agent.ErrRejected) {
			// Claimed by another dispatch since the busy check.
			res.Notes = append(res.Notes, fmt.Sprintf("%s rejected the task", w.Name()))
			sawBusy = true
			continue
		}
		q.logger.Info("assigning task", zap.String("agent", w.Name()), zap.String("task_type", taskType))
		return q.finish(res, w, out, err)
	}

	if fallback := q.firstGeneric(workers); fallback != nil {
		q.logger.Info("no exact match, using generic agent", zap.String("agent", fallback.Name()))
		out, err := fallback.Execute(ctx, task)
		if !errors.Is(err, agent.ErrBusy) {
			return q.finish(res, fallback, out, err)
		}
		res.Notes = append(res.Notes, fmt.Sprintf("%s is busy", fallback.Name()))
		sawBusy = true
	}

	_ = task.MarkRejected()
	if sawBusy {
		res.Outcome = OutcomeSkippedBusy
		res.Output = AllAgentsBusy
	} else {
		res.Outcome = OutcomeNoSuitableWorker
		res.Output = NoSuitableAgent
	}
	q.logger.Warn("no suitable agent found",
		zap.String("task", task.Content()),
		zap.String("task_type", taskType),
		zap.String("outcome", string(res.Outcome)))
	return res
}

// firstGeneric returns the first addressable generic worker, or nil.
func (q *Queen) firstGeneric(workers []*agent.Agent) *agent.Agent {
	for _, w := range workers {
		if w.TaskType() == models.TaskTypeGeneric && q.CanCommunicateWith(w) {
			return w
		}
	}
	return nil
}

func (q *Queen) finish(res Assignment, w *agent.Agent, out string, err error) Assignment {
	res.Executor = w.Name()
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Err = err
		res.Output = "Error: " + err.Error()
		q.logger.Error("agent failed", zap.String("agent", w.Name()), zap.Error(err))
		return res
	}
	res.Outcome = OutcomeAssigned
	res.Output = out
	return res
}

// Delegate classifies content and assigns it to one of workers.
func (q *Queen) Delegate(ctx context.Context, content string, workers []*agent.Agent) Assignment {
	task := models.NewTask(content)
	_ = task.SetType(q.DefineTaskType(ctx, content))
	return q.AssignOne(ctx, task, workers)
}
