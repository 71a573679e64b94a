// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/MariBotOfficial/MariCommands-sub001/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	var traceSpans bool

	root := &cobra.Command{
		Use:   "maricmd",
		Short: "A text command dispatcher",
		Long: TitleStyle.Render("maricmd") + SubtitleStyle.Render(" - a text command dispatcher") + `

maricmd resolves a line of text to a registered command, parses the
arguments into typed values and runs the handler through a middleware
pipeline (logging, tracing, recovery, preconditions, binding, execution).

` + SubtitleStyle.Render("Examples:") + `
  maricmd list                 List the built-in commands
  maricmd run add 1 2          Dispatch a single line
  maricmd repl                 Read lines from stdin
  maricmd serve --port 2222    Serve the commands over SSH
  maricmd config show          Show the effective configuration`,
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if traceSpans {
				app.enableTracing()
			}
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return app.shutdownTracing(cmd.Context())
		},
	}

	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable debug logging and detailed failure guidance")
	root.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default is $HOME/.config/maricmd/config.cue)")
	root.PersistentFlags().StringVar(&app.style, "style", app.style, "glamour style for Markdown output (dark, light, notty)")
	root.PersistentFlags().BoolVar(&traceSpans, "trace", false, "log a span for every dispatch")

	root.AddCommand(
		newRunCommand(app),
		newReplCommand(app),
		newListCommand(app),
		newServeCommand(app),
		newConfigCommand(app),
	)
	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI. It is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// formatErrorForDisplay formats an error for user display.
// ActionableErrors list their suggestions; verbose mode adds the error chain.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}
