// Package tui provides the interactive shell of hive.
//
// The shell is a bubbletea program: a scrolling transcript above a command
// line with history. Each submitted line is handed to an Executor off the
// update loop, and its Reply is appended to the transcript.
//
// Usage:
//
//	err := tui.RunREPL(ctx, func(ctx context.Context, line string) tui.Reply {
//	    out, err := session.Run(ctx, line)
//	    return tui.Reply{Output: out, Err: err}
//	}, "Welcome to hive")
package tui
