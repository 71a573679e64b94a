// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newReplCommand(app *App) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Read command lines from stdin",
		Long: `Read command lines from stdin until EOF, "exit" or "quit".

Each line is dispatched on its own; failures are printed and the loop
continues. Commands scheduled in the background finish before repl exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.repl(cmd, quiet)
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print the prompt")
	return cmd
}

func (a *App) repl(cmd *cobra.Command, quiet bool) (err error) {
	ctx := cmd.Context()
	e, err := a.newEngine(ctx)
	if err != nil {
		a.reportFault(err)
		return silenceExitError(cmd, &ExitError{Code: 2, Err: err})
	}
	defer func() { err = errors.Join(err, e.Close(context.WithoutCancel(ctx))) }()

	prompt := CmdStyle.Render("maricmd> ")
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		if !quiet {
			a.outMu.Lock()
			fmt.Fprint(a.stdout, prompt)
			a.outMu.Unlock()
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		a.dispatchAndPrint(ctx, e, line)
		if ctx.Err() != nil {
			return nil
		}
	}
	return scanner.Err()
}
