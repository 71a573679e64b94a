// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/MariBotOfficial/MariCommands-sub001/internal/config"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/issue"
	"github.com/MariBotOfficial/MariCommands-sub001/pkg/command"
	"github.com/MariBotOfficial/MariCommands-sub001/pkg/result"
)

// printResult writes r for the user and reports whether it succeeded.
// Background results are prefixed with the alias that scheduled them.
func (a *App) printResult(alias string, r result.Result) bool {
	a.outMu.Lock()
	defer a.outMu.Unlock()

	prefix := ""
	if alias != "" {
		prefix = CmdStyle.Render(alias) + " "
	}

	switch {
	case r == nil || r.Success() && r.Code() != result.CodeScheduled:
		if text := result.Text(r); text != "" {
			fmt.Fprintln(a.stdout, prefix+text)
		}
		return true
	case r.Code() == result.CodeScheduled:
		fmt.Fprintln(a.stderr, prefix+WarningStyle.Render("scheduled, the result will follow"))
		return true
	}

	fmt.Fprintln(a.stderr, prefix+ErrorStyle.Render("✗ ")+result.Text(r))
	if a.verbose {
		if iss, ok := issue.ForCode(r.Code()); ok {
			a.renderIssue(iss)
		}
	}
	return false
}

// reportFault prints an error that stopped the CLI itself. In verbose mode
// the matching catalog issue is rendered after it.
func (a *App) reportFault(err error) {
	a.outMu.Lock()
	defer a.outMu.Unlock()

	fmt.Fprintln(a.stderr, ErrorStyle.Render("✗ ")+formatErrorForDisplay(err, a.verbose))
	if !a.verbose {
		return
	}
	if id, ok := issueForError(err); ok {
		a.renderIssue(issue.Get(id))
	}
}

func (a *App) renderIssue(iss *issue.Issue) {
	out, err := iss.Render(a.style)
	if err != nil {
		fmt.Fprintln(a.stderr, iss.Markdown())
		return
	}
	fmt.Fprint(a.stderr, out)
}

// issueForError maps startup errors onto the issue catalog. Errors that
// carry an issue win; command and config validation errors are mapped by kind.
func issueForError(err error) (issue.Id, bool) {
	if iss, ok := issue.IssueFor(err); ok {
		return iss.Id(), true
	}
	switch {
	case errors.Is(err, command.ErrConfiguration):
		return issue.CommandConfigurationId, true
	case errors.Is(err, config.ErrInvalidConfig):
		return issue.ConfigLoadFailedId, true
	}
	return 0, false
}
