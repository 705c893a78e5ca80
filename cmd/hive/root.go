package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	flagConfigPath string
	flagLogLevel   string
	flagQuiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "hive",
	Short: "Multi-agent task router",
	Long: `Hive routes natural-language tasks to a swarm of LLM-backed agents.

Agents are declared in <configs>/<name>.ant.yaml and advertise the task type
they accept. The Queen classifies incoming work against the task mapping,
splits large tasks into subtasks, dispatches them concurrently to matching
agents and summarizes the results.

With no arguments, starts the interactive shell.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runREPL(cmd.Context())
	},
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Config file (default: ~/.config/hive/config.yaml and .hive.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Do not log to the console")

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(assignCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(rolesCmd)
	rootCmd.AddCommand(delegateCmd)
	rootCmd.AddCommand(orchestrateCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// withSession builds the app and a session writing to the command's output,
// runs fn and tears everything down.
func withSession(cmd *cobra.Command, fn func(s *session) error) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()
	return fn(newSession(a, cmd.OutOrStdout()))
}
