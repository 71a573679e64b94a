// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/MariBotOfficial/MariCommands-sub001/pkg/command"
)

func newListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the registered commands",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := app.newEngine(cmd.Context())
			if err != nil {
				app.reportFault(err)
				return silenceExitError(cmd, &ExitError{Code: 2, Err: err})
			}
			defer func() { _ = e.Close(cmd.Context()) }()

			out, err := glamour.Render(commandTable(e.Commands()), app.style)
			if err != nil {
				return fmt.Errorf("render command list: %w", err)
			}
			fmt.Fprint(app.stdout, out)
			return nil
		},
	}
}

// commandTable renders cmds as a Markdown table sorted by name.
func commandTable(cmds []*command.Command) string {
	cmds = slices.Clone(cmds)
	slices.SortStableFunc(cmds, func(a, b *command.Command) int {
		return strings.Compare(a.Name(), b.Name())
	})

	var sb strings.Builder
	sb.WriteString("# Commands\n\n")
	sb.WriteString("| Command | Aliases | Usage | Description |\n")
	sb.WriteString("|---------|---------|-------|-------------|\n")
	for _, c := range cmds {
		usage := make([]string, 0, c.NumParameters())
		for _, p := range c.Parameters() {
			usage = append(usage, "`"+paramUsage(p)+"`")
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n",
			c.Name(), strings.Join(c.Aliases()[1:], ", "), strings.Join(usage, " "), c.Description())
	}
	return sb.String()
}

// paramUsage renders a parameter the way usage lines do: "name", "name..."
// for variadic and remainder parameters, brackets when optional and the
// default after "=" when it is not the zero value.
func paramUsage(p *command.Parameter) string {
	s := p.Name()
	if p.IsVariadic() || p.IsRemainder() {
		s += "..."
	}
	if !p.IsOptional() {
		return s
	}
	if v, ok := p.Default(); ok && v != nil {
		if d := fmt.Sprint(v); d != "" && d != "0" {
			s += "=" + d
		}
	}
	return "[" + s + "]"
}
