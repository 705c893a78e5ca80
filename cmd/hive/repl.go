package main

import (
	"bytes"
	"context"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/hive/internal/tui"
)

const replIntro = "Welcome to hive. Enter help or ? to list the commands"

var replPreload bool

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start the interactive shell",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runREPL(cmd.Context())
	},
}

func init() {
	replCmd.Flags().BoolVar(&replPreload, "preload", false, "Register every configured agent at startup")
}

// runREPL runs the interactive shell. Console logging is turned off so it
// does not tear the screen; logs still go to the log files.
func runREPL(ctx context.Context) error {
	flagQuiet = true
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if replPreload {
		if err := a.preload(); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	s := newSession(a, &buf)
	return tui.RunREPL(ctx, func(ctx context.Context, line string) tui.Reply {
		buf.Reset()
		quit, err := s.Run(ctx, line)
		return tui.Reply{Output: buf.String(), Err: err, Quit: quit}
	}, replIntro)
}
