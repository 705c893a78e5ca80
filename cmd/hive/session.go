package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/ShayCichocki/hive/internal/agent"
	"github.com/ShayCichocki/hive/internal/config"
	"github.com/ShayCichocki/hive/internal/memory"
	"github.com/ShayCichocki/hive/internal/queen"
	"github.com/ShayCichocki/hive/pkg/models"
)

// errUsage marks a malformed command line.
var errUsage = errors.New("usage")

// eventBuffer bounds the coordinator events kept between two prints.
const eventBuffer = 256

// session runs hive commands against one app and writes their output to out.
type session struct {
	app *app
	out io.Writer

	events     chan queen.Event
	showEvents bool
	render     bool
}

func newSession(a *app, out io.Writer) *session {
	return &session{
		app:    a,
		out:    out,
		events: make(chan queen.Event, eventBuffer),
	}
}

// printStatus prints a status line with a colored symbol.
func (s *session) printStatus(symbol string, attr color.Attribute, format string, args ...any) {
	fmt.Fprintf(s.out, "%s %s\n", color.New(attr).Sprint(symbol), fmt.Sprintf(format, args...))
}

func (s *session) ok(format string, args ...any) {
	s.printStatus("[OK]", color.FgGreen, format, args...)
}

func (s *session) info(format string, args ...any) {
	s.printStatus("[INFO]", color.FgCyan, format, args...)
}

func (s *session) warn(format string, args ...any) {
	s.printStatus("[!]", color.FgYellow, format, args...)
}

// createOptions are the optional parts of an agent definition.
type createOptions struct {
	Role     string
	TaskType string
	Caste    string
}

// create writes name's config record and registers the agent. Fields left
// empty keep the values the record already had.
func (s *session) create(name string, opts createOptions) error {
	if err := memory.CheckName(name); err != nil {
		return err
	}
	if opts.Caste != "" {
		if _, ok := models.ParseCaste(opts.Caste); !ok {
			return fmt.Errorf("unknown caste %q", opts.Caste)
		}
	}
	if _, ok := s.app.swarm.Lookup(name); ok {
		s.info("Agent '%s' is already registered.", name)
		return nil
	}

	records := s.app.records()
	rec, err := records.Load(name)
	if err != nil {
		return err
	}
	if !records.Exists(name) || opts != (createOptions{}) {
		if err := records.Save(name, recordFor(rec, opts)); err != nil {
			return err
		}
	}

	a, err := s.app.swarm.Get(name)
	if err != nil {
		return err
	}
	s.ok("Created agent '%s' with role: %s", a.Name(), a.Role())
	return nil
}

// assign runs content on the named agent, bypassing classification.
func (s *session) assign(ctx context.Context, name, content string, d models.Difficulty) error {
	a, err := s.agent(name)
	if err != nil {
		return err
	}
	task := models.NewTypedTask(content, a.TaskType())
	task.SetDifficulty(d)

	out, err := a.Execute(ctx, task)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Agent '%s' says:\n%s\n", a.Name(), s.format(out))
	return nil
}

// agent returns a registered agent, registering it from its config record
// when one exists.
func (s *session) agent(name string) (*agent.Agent, error) {
	if a, ok := s.app.swarm.Lookup(name); ok {
		return a, nil
	}
	if !s.app.records().Exists(name) {
		return nil, fmt.Errorf("agent '%s' not found", name)
	}
	return s.app.swarm.Get(name)
}

func (s *session) format(text string) string {
	if !s.render {
		return text
	}
	out, err := glamour.Render(text, "auto")
	if err != nil {
		s.app.logger.Debug("markdown render failed", zap.Error(err))
		return text
	}
	return strings.TrimRight(out, "\n")
}

// list prints every registered agent.
func (s *session) list() {
	agents := s.app.swarm.Agents()
	if len(agents) == 0 {
		s.info("No agents registered in this session.")
		return
	}
	name := color.New(color.Bold)
	dim := color.New(color.Faint)
	for _, a := range agents {
		info := a.Info()
		state := "idle"
		if info.Busy {
			state = color.YellowString("busy")
		}
		fmt.Fprintf(s.out, "🐜 %s %s\n", name.Sprint(info.Name),
			dim.Sprintf("role=%s type=%s caste=%s entries=%d %s",
				info.Role, info.TaskType, info.Caste, info.Entries, state))
	}
}

// log prints the conversation log of the named agent.
func (s *session) log(name string) error {
	a, err := s.agent(name)
	if err != nil {
		return err
	}
	entries := a.Log()
	if len(entries) == 0 {
		s.info("Agent '%s' has no history.", name)
		return nil
	}
	for i, e := range entries {
		fmt.Fprintf(s.out, "[%d] * %s\n -> %s\n", i+1, e.Task, e.Response)
	}
	return nil
}

// roles prints the classification categories.
func (s *session) roles() error {
	src, err := s.app.mappingSource()
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Available roles (task types):")
	for _, c := range src.Mapping().Categories() {
		fmt.Fprintf(s.out, " - %s: %s\n", c.Name, strings.Join(c.Keywords, ", "))
	}
	return nil
}

// coordinator returns the Queen, building it on first use.
func (s *session) coordinator() (*queen.Queen, error) {
	return s.app.coordinator(s.events)
}

// delegate classifies content and routes it to one worker.
func (s *session) delegate(ctx context.Context, content string) error {
	q, err := s.coordinator()
	if err != nil {
		return err
	}
	res := q.Delegate(ctx, content, s.app.workers())
	s.printAssignment(res)
	for _, n := range res.Notes {
		fmt.Fprintf(s.out, "    %s\n", color.New(color.Faint).Sprint(n))
	}
	s.flushEvents()
	return nil
}

// orchestrate splits content, fans the subtasks out and prints the
// results in submission order followed by the summary.
func (s *session) orchestrate(ctx context.Context, content string, force bool) error {
	q, err := s.coordinator()
	if err != nil {
		return err
	}
	workers := s.app.workers()
	if len(workers) == 0 && !force {
		s.warn("No agents available. Use 'create' to make some agents.")
		return nil
	}

	start := time.Now()
	res, err := q.Orchestrate(ctx, models.NewTask(content), workers, force)
	s.flushEvents()
	if errors.Is(err, queen.ErrNoAgentsAvailable) {
		s.warn("Every agent is busy. Retry later or pass --force.")
		return nil
	}
	if err != nil {
		return err
	}

	for _, a := range res.Subtasks {
		s.printAssignment(a)
	}
	switch {
	case res.SummaryErr != nil:
		s.warn("Summary unavailable: %v", res.SummaryErr)
	case res.Summary != "":
		fmt.Fprintf(s.out, "\n%s\n%s\n", color.New(color.Bold).Sprint("Summary:"), s.format(res.Summary))
	}
	s.info("%d/%d subtasks assigned in %s", res.Count(queen.OutcomeAssigned), len(res.Subtasks), time.Since(start).Round(time.Millisecond))
	return nil
}

func (s *session) printAssignment(a queen.Assignment) {
	symbol, attr := "[+]", color.FgGreen
	switch a.Outcome {
	case queen.OutcomeFailed:
		symbol, attr = "[x]", color.FgRed
	case queen.OutcomeSkippedBusy, queen.OutcomeNoSuitableWorker:
		symbol, attr = "[-]", color.FgYellow
	}
	by := ""
	if a.Executor != "" {
		by = " (" + a.Executor + ")"
	}
	s.printStatus(symbol, attr, "%s%s\n -> %s", a.Task.Content(), by, a.Output)
}

// flushEvents drains pending coordinator events, printing them when asked.
func (s *session) flushEvents() {
	for {
		select {
		case e := <-s.events:
			if s.showEvents {
				s.printEvent(e)
			}
		default:
			return
		}
	}
}

func (s *session) printEvent(e queen.Event) {
	line := string(e.Type)
	if e.Agent != "" {
		line += " agent=" + e.Agent
	}
	if e.TaskType != "" {
		line += " type=" + e.TaskType
	}
	if e.Content != "" {
		line += fmt.Sprintf(" task=%q", e.Content)
	}
	if e.Duration > 0 {
		line += " took=" + e.Duration.Round(time.Millisecond).String()
	}
	if e.Error != nil {
		line += " error=" + e.Error.Error()
	}
	fmt.Fprintf(s.out, "%s %s\n", color.New(color.Faint).Sprint(e.Timestamp.Format("15:04:05")), line)
}

// spawned prints the specialists created during this session.
func (s *session) spawned() error {
	q, err := s.coordinator()
	if err != nil {
		return err
	}
	sp := q.Spawned()
	if len(sp) == 0 {
		s.info("No specialists spawned (limit %d).", q.SpawnLimit())
		return nil
	}
	for _, a := range sp {
		fmt.Fprintf(s.out, "🐜 %s type=%s\n", a.Name(), a.TaskType())
	}
	return nil
}

const replHelp = `
Available commands:

  queen                                Create the Queen agent
  delegate <task>                      Route one task via the Queen
  orchestrate [--force] <task>         Split a task and delegate the parts via the Queen
  create <name> [role...]              Create a new agent with an optional role
  assign <name> <task>                 Assign a task to the agent
  log <name>                           Show the agent's conversation log
  list                                 List the agents in the swarm
  list_roles                           Show the roles from the task mapping
  specialists                          List the specialists the Queen spawned
  events on|off                        Show coordinator events
  exit                                 Exit the application
`

// Run executes one REPL line. It reports quit for exit commands.
func (s *session) Run(ctx context.Context, line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := fields[0], fields[1:]
	rest := strings.Join(args, " ")

	switch cmd {
	case "help", "?":
		fmt.Fprint(s.out, replHelp)
	case "exit", "quit", "EOF":
		fmt.Fprintln(s.out, "Bye, Kingo")
		return true, nil
	case "queen":
		q, err := s.coordinator()
		if err != nil {
			return false, err
		}
		s.ok("Queen '%s' ready (caste %s, spawn limit %d)", q.Name(), q.Caste(), q.SpawnLimit())
	case "create":
		if len(args) < 1 {
			return false, fmt.Errorf("%w: create <name> [role...]", errUsage)
		}
		return false, s.create(args[0], createOptions{Role: strings.Join(args[1:], " ")})
	case "assign":
		if len(args) < 2 {
			return false, fmt.Errorf("%w: assign <name> <task>", errUsage)
		}
		return false, s.assign(ctx, args[0], strings.Join(args[1:], " "), models.DifficultyNone)
	case "log":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: log <name>", errUsage)
		}
		return false, s.log(args[0])
	case "list":
		s.list()
	case "list_roles", "roles":
		return false, s.roles()
	case "delegate":
		if rest == "" {
			return false, fmt.Errorf("%w: delegate <task>", errUsage)
		}
		return false, s.delegate(ctx, rest)
	case "orchestrate":
		force := false
		if len(args) > 0 && args[0] == "--force" {
			force = true
			rest = strings.Join(args[1:], " ")
		}
		if rest == "" {
			return false, fmt.Errorf("%w: orchestrate [--force] <task>", errUsage)
		}
		return false, s.orchestrate(ctx, rest, force)
	case "specialists":
		return false, s.spawned()
	case "events":
		switch rest {
		case "on":
			s.showEvents = true
		case "off":
			s.showEvents = false
		default:
			return false, fmt.Errorf("%w: events on|off", errUsage)
		}
		s.ok("events %s", rest)
	default:
		return false, fmt.Errorf("unknown command %q, type help", cmd)
	}
	return false, nil
}

// recordFor applies opts to rec. A role without a type also sets the type.
func recordFor(rec config.AgentRecord, opts createOptions) config.AgentRecord {
	if opts.Role != "" {
		rec.Role = opts.Role
		if opts.TaskType == "" {
			rec.TaskType = opts.Role
		}
	}
	if opts.TaskType != "" {
		rec.TaskType = opts.TaskType
	}
	if opts.Caste != "" {
		rec.Caste = opts.Caste
	}
	return rec
}
