package queen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ShayCichocki/hive/internal/agent"
	"github.com/ShayCichocki/hive/internal/llm"
	"github.com/ShayCichocki/hive/pkg/models"
)

// splitPrompt is the prompt template for task decomposition.
const splitPrompt = `Split the following task into at most %d subtasks.
Return one subtask per line.
Do not number the lines and do not add explanations.

Task:
%s`

// summaryPrompt is the prompt template for the executive summary.
const summaryPrompt = `Create a concise executive summary of the results below.
Stay concise, do not embellish, and avoid repetition.

Results:
%s`

// Result is the outcome of an orchestration.
type Result struct {
	// Task is the orchestrated task.
	Task *models.Task
	// Subtasks holds one assignment per subtask in submission order.
	Subtasks []Assignment
	// Summary is the executive summary of the non-empty outputs of assigned
	// subtasks. Markers and error outputs are left out; with nothing
	// assigned no summary call is made and Summary is empty.
	Summary string
	// SummaryErr is set when the summary call failed.
	SummaryErr error
}

// Map returns subtask content -> output.
func (r *Result) Map() map[string]string {
	m := make(map[string]string, len(r.Subtasks))
	for _, a := range r.Subtasks {
		m[a.Task.Content()] = a.Output
	}
	return m
}

// Count returns the number of subtasks with outcome o.
func (r *Result) Count(o Outcome) int {
	n := 0
	for _, a := range r.Subtasks {
		if a.Outcome == o {
			n++
		}
	}
	return n
}

// SplitTask asks the gateway to decompose task into at most limit subtasks.
// Every non-blank line of the answer becomes a generic subtask; the limit is
// passed to the model and not enforced on its answer.
func (q *Queen) SplitTask(ctx context.Context, task *models.Task, limit int) ([]*models.Task, error) {
	if limit < 1 {
		limit = 1
	}
	resp, err := q.Generator().Generate(ctx, fmt.Sprintf(splitPrompt, limit, task.Content()), q.SystemPrompt())
	if err != nil {
		return nil, fmt.Errorf("split task: %w", err)
	}
	subtasks := ParseSubtasks(resp)
	q.logger.Info("split task", zap.String("task", task.Content()), zap.Int("subtasks", len(subtasks)), zap.Int("limit", limit))
	return subtasks, nil
}

// ParseSubtasks turns a split answer into pending generic tasks.
func ParseSubtasks(response string) []*models.Task {
	var tasks []*models.Task
	for _, line := range strings.Split(llm.StripThinking(response), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		tasks = append(tasks, models.NewTask(line))
	}
	return tasks
}

// Orchestrate splits task, dispatches every subtask concurrently and
// summarizes the outputs of the assigned subtasks. Per-subtask problems are
// reported in the Result, never as an error; a failed summary call lands in
// Result.SummaryErr.
//
// With no free workers Orchestrate returns ErrNoAgentsAvailable, unless
// force is set, in which case it spawns a specialist for the task type and
// carries on with a limit of one subtask.
func (q *Queen) Orchestrate(ctx context.Context, task *models.Task, workers []*agent.Agent, force bool) (*Result, error) {
	free := FreeWorkers(workers)
	if len(free) == 0 {
		if !force {
			q.logger.Warn("no agents available", zap.Int("workers", len(workers)))
			return nil, ErrNoAgentsAvailable
		}
		if _, err := q.SpawnSpecialist(task.Type()); err != nil {
			q.logger.Warn("forced orchestration without a specialist", zap.Error(err))
		}
	}

	subtasks, err := q.SplitTask(ctx, task, max(len(free), 1))
	if err != nil {
		return nil, err
	}

	res := &Result{
		Task:     task,
		Subtasks: make([]Assignment, len(subtasks)),
	}

	// Each unit writes only its own index, so order survives any completion order.
	var g errgroup.Group
	for i, st := range subtasks {
		g.Go(func() error {
			res.Subtasks[i] = q.dispatch(ctx, st, workers)
			return nil
		})
	}
	_ = g.Wait()

	res.Summary, res.SummaryErr = q.summarize(ctx, res.Subtasks)
	if res.SummaryErr != nil {
		q.logger.Error("summary failed", zap.Error(res.SummaryErr))
	}

	q.logger.Info("orchestration done",
		zap.Int("subtasks", len(res.Subtasks)),
		zap.Int("assigned", res.Count(OutcomeAssigned)))
	q.emit(Event{
		Type:    EventOrchestrationDone,
		TaskID:  task.ID(),
		Content: task.Content(),
		Message: fmt.Sprintf("%d/%d subtasks assigned", res.Count(OutcomeAssigned), len(res.Subtasks)),
		Error:   res.SummaryErr,
	})
	return res, nil
}

// dispatch classifies and assigns one subtask against the workers that are
// free at this moment.
func (q *Queen) dispatch(ctx context.Context, st *models.Task, workers []*agent.Agent) Assignment {
	taskType := q.DefineTaskType(ctx, st.Content())
	_ = st.SetType(taskType)
	q.emit(Event{Type: EventSubtaskStarted, TaskID: st.ID(), Content: st.Content(), TaskType: taskType})

	st.MarkStarted()
	a := q.AssignOne(ctx, st, FreeWorkers(workers))
	st.MarkEnded()
	if a.Outcome == OutcomeNoSuitableWorker && busyMatch(workers, taskType) {
		a.Outcome = OutcomeSkippedBusy
		a.Output = AllAgentsBusy
	}

	e := Event{
		TaskID:   st.ID(),
		Content:  st.Content(),
		TaskType: taskType,
		Agent:    a.Executor,
		Message:  a.Output,
		Error:    a.Err,
		Duration: st.Duration(),
	}
	switch a.Outcome {
	case OutcomeAssigned:
		e.Type = EventSubtaskAssigned
	case OutcomeFailed:
		e.Type = EventSubtaskFailed
	default:
		e.Type = EventSubtaskSkipped
	}
	q.emit(e)
	return a
}

// busyMatch reports whether a busy worker could have taken a task of taskType.
func busyMatch(workers []*agent.Agent, taskType string) bool {
	for _, w := range workers {
		if w.Busy() && (w.TaskType() == taskType || w.TaskType() == models.TaskTypeGeneric) {
			return true
		}
	}
	return false
}

// summarize makes one gateway call over the non-empty outputs of assigned
// subtasks. Nothing to summarize is not an error.
func (q *Queen) summarize(ctx context.Context, subtasks []Assignment) (string, error) {
	var outputs []string
	for _, a := range subtasks {
		if a.Outcome == OutcomeAssigned && strings.TrimSpace(a.Output) != "" {
			outputs = append(outputs, a.Output)
		}
	}
	if len(outputs) == 0 {
		return "", nil
	}

	start := time.Now()
	resp, err := q.Generator().Generate(ctx, fmt.Sprintf(summaryPrompt, strings.Join(outputs, "\n\n")), q.SystemPrompt())
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	q.logger.Debug("summary generated", zap.Duration("elapsed", time.Since(start)))
	return llm.StripThinking(resp), nil
}
