// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"mvdan.cc/sh/v3/syntax"

	"github.com/MariBotOfficial/MariCommands-sub001/internal/binder"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/config"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/engine"
)

func newRunCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <command> [args...]",
		Short: "Dispatch a single command line",
		Long: `Dispatch a single command line and print its result.

The arguments are joined with the configured separator. With the shell
tokenizer each argument is quoted, so arguments that contain spaces stay
whole.`,
		Example: `  maricmd run ping
  maricmd run sum 1 2 3
  maricmd run greet "Ana Maria" hi`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return silenceExitError(cmd, app.runLine(cmd.Context(), args))
		},
	}
	// Everything after the command name belongs to the dispatched line.
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func (a *App) runLine(ctx context.Context, args []string) (err error) {
	e, err := a.newEngine(ctx)
	if err != nil {
		a.reportFault(err)
		return &ExitError{Code: 2, Err: err}
	}
	// Close waits for commands running in the background.
	defer func() { err = errors.Join(err, e.Close(context.WithoutCancel(ctx))) }()

	line, err := joinArgs(e.Config(), args)
	if err != nil {
		return err
	}
	r, err := e.DispatchLine(ctx, line)
	if err != nil {
		a.reportFault(err)
		return &ExitError{Code: 2, Err: err}
	}
	if !a.printResult("", r) {
		return &ExitError{Code: 1}
	}
	return nil
}

// joinArgs rebuilds a command line from CLI arguments.
func joinArgs(cfg *config.Config, args []string) (string, error) {
	if cfg.Tokenizer != binder.ModeShell {
		return strings.Join(args, cfg.Separator), nil
	}
	quoted := make([]string, len(args))
	for i, arg := range args {
		q, err := syntax.Quote(arg, syntax.LangPOSIX)
		if err != nil {
			return "", fmt.Errorf("quote argument %d: %w", i, err)
		}
		quoted[i] = q
	}
	return strings.Join(quoted, " "), nil
}

// dispatchAndPrint runs one interactive line. Faults are printed, not returned.
func (a *App) dispatchAndPrint(ctx context.Context, e *engine.Engine, line string) {
	r, err := e.DispatchLine(ctx, line)
	if err != nil {
		a.reportFault(err)
		return
	}
	a.printResult("", r)
}
