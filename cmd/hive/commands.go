package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/hive/pkg/models"
)

var (
	createType  string
	createCaste string

	assignDifficulty string
	assignRender     bool

	orchestrateForce  bool
	orchestrateEvents bool
	orchestrateRender bool
)

var createCmd = &cobra.Command{
	Use:   "create <name> [role...]",
	Short: "Create or update an agent",
	Long: `Write <configs>/<name>.ant.yaml and register the agent.

The role doubles as the task type the agent accepts unless --type is given.
Fields not given keep the values of the existing record or default.ant.yaml.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			return s.create(args[0], createOptions{
				Role:     strings.Join(args[1:], " "),
				TaskType: createType,
				Caste:    createCaste,
			})
		})
	},
}

var assignCmd = &cobra.Command{
	Use:   "assign <name> <task...>",
	Short: "Run a task on a specific agent",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d := models.Difficulty(strings.ToLower(assignDifficulty))
		if !d.Valid() {
			return fmt.Errorf("invalid difficulty %q (want easy, medium or hard)", assignDifficulty)
		}
		return withSession(cmd, func(s *session) error {
			s.render = assignRender
			return s.assign(cmd.Context(), args[0], strings.Join(args[1:], " "), d)
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured agents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			if err := s.app.preload(); err != nil {
				return err
			}
			s.list()
			return nil
		})
	},
}

var logCmd = &cobra.Command{
	Use:   "log <name>",
	Short: "Show an agent's conversation log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			return s.log(args[0])
		})
	},
}

var rolesCmd = &cobra.Command{
	Use:     "roles",
	Aliases: []string{"list-roles"},
	Short:   "List the task types of the classification mapping",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			return s.roles()
		})
	},
}

var delegateCmd = &cobra.Command{
	Use:   "delegate <task...>",
	Short: "Classify a task and route it to one agent",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			if err := s.app.preload(); err != nil {
				return err
			}
			return s.delegate(cmd.Context(), strings.Join(args, " "))
		})
	},
}

var orchestrateCmd = &cobra.Command{
	Use:   "orchestrate <task...>",
	Short: "Split a task and dispatch the parts to the swarm",
	Long: `Load every configured agent, let the Queen split the task into at most
one subtask per free agent, dispatch the subtasks concurrently and print the
results in order followed by an executive summary.

With --force the Queen spawns a specialist when every agent is busy.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			s.showEvents = orchestrateEvents
			s.render = orchestrateRender
			if err := s.app.preload(); err != nil {
				return err
			}
			return s.orchestrate(cmd.Context(), strings.Join(args, " "), orchestrateForce)
		})
	},
}

func init() {
	createCmd.Flags().StringVar(&createType, "type", "", "Task type the agent accepts (default: the role)")
	createCmd.Flags().StringVar(&createCaste, "caste", "", "Caste: queen, major, minor, scribe, soldier or larva")

	assignCmd.Flags().StringVarP(&assignDifficulty, "difficulty", "d", "", "Difficulty: easy, medium or hard")
	assignCmd.Flags().BoolVar(&assignRender, "render", false, "Render the response as markdown")

	orchestrateCmd.Flags().BoolVarP(&orchestrateForce, "force", "f", false, "Spawn a specialist when every agent is busy")
	orchestrateCmd.Flags().BoolVar(&orchestrateEvents, "events", false, "Print coordinator events")
	orchestrateCmd.Flags().BoolVar(&orchestrateRender, "render", false, "Render the summary as markdown")
}
