// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"errors"
	"testing"

	"github.com/MariBotOfficial/MariCommands-sub001/pkg/command"
)

func mustCommand(t *testing.T, name string, aliases ...string) *command.Command {
	t.Helper()

	cmd, err := command.NewBuilder(name).WithAliases(aliases...).WithHandler(func() {}).Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return cmd
}

func TestMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cmp     Comparison
		alias   string
		wantLen int
	}{
		{name: "ordinal exact", cmp: Ordinal, alias: "ping", wantLen: 1},
		{name: "ordinal case mismatch", cmp: Ordinal, alias: "PING", wantLen: 0},
		{name: "ignore case", cmp: IgnoreCase, alias: "PiNg", wantLen: 1},
		{name: "ignore case unicode fold", cmp: IgnoreCase, alias: "ÉCOLE", wantLen: 1},
		{name: "secondary alias", cmp: Ordinal, alias: "p", wantLen: 1},
		{name: "shared alias", cmp: Ordinal, alias: "add", wantLen: 2},
		{name: "unknown", cmp: Ordinal, alias: "nope", wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, err := New(tt.cmp)
			if err != nil {
				t.Fatalf("New() error: %v", err)
			}
			for _, cmd := range []*command.Command{
				mustCommand(t, "ping", "p"),
				mustCommand(t, "école"),
				mustCommand(t, "add"),
				mustCommand(t, "add"),
			} {
				if err := c.Add(cmd); err != nil {
					t.Fatalf("Add() error: %v", err)
				}
			}
			if got := len(c.Match(tt.alias)); got != tt.wantLen {
				t.Errorf("Match(%q) returned %d matches, want %d", tt.alias, got, tt.wantLen)
			}
		})
	}
}

func TestMatchKeepsRegistrationOrder(t *testing.T) {
	t.Parallel()

	c, _ := New(Ordinal)
	first, second := mustCommand(t, "sum"), mustCommand(t, "total", "sum")
	_ = c.Add(first)
	_ = c.Add(second)

	matches := c.Match("sum")
	if len(matches) != 2 || matches[0].Command != first || matches[1].Command != second {
		t.Errorf("Match(sum) order mismatch: %+v", matches)
	}
	if c.Len() != 2 || len(c.Commands()) != 2 {
		t.Errorf("Len() = %d", c.Len())
	}
}

func TestAddDuplicate(t *testing.T) {
	t.Parallel()

	c, _ := New(Ordinal)
	cmd := mustCommand(t, "ping")
	_ = c.Add(cmd)
	err := c.Add(cmd)
	var cfgErr *command.ConfigurationError
	if !errors.As(err, &cfgErr) || cfgErr.Kind != command.DuplicateCommand {
		t.Errorf("Add() twice = %v, want DuplicateCommand", err)
	}
}

func TestNewInvalidComparison(t *testing.T) {
	t.Parallel()

	if _, err := New("fuzzy"); !errors.Is(err, ErrInvalidComparison) {
		t.Errorf("New(fuzzy) = %v, want ErrInvalidComparison", err)
	}
}

func TestSelect(t *testing.T) {
	t.Parallel()

	none := mustCommand(t, "sum")
	one, err := command.NewBuilder("sum1").
		WithAliases("sum").
		WithParameters(command.NewParameter[int]("a")).
		WithHandler(func(int) {}).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	rest, err := command.NewBuilder("sumall").
		WithAliases("sum").
		WithParameters(command.NewParameter[[]int]("n", command.Variadic())).
		WithHandler(func([]int) {}).
		Build()
	if err != nil {
		t.Fatal(err)
	}

	c, _ := New(Ordinal)
	for _, cmd := range []*command.Command{none, one, rest} {
		_ = c.Add(cmd)
	}
	matches := c.Match("sum")

	tests := []struct {
		name    string
		tokens  int
		policy  MultiMatch
		want    *command.Command
		wantErr error
	}{
		{name: "no tokens", tokens: 0, policy: MultiMatchFirst, want: none},
		{name: "one token", tokens: 1, policy: MultiMatchFirst, want: one},
		{name: "many tokens", tokens: 4, policy: MultiMatchFirst, want: rest},
		{name: "fail policy", tokens: 1, policy: MultiMatchFail, wantErr: ErrAmbiguous},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, ok, err := Select(matches, tt.tokens, tt.policy, false)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Select() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || !ok {
				t.Fatalf("Select() = %v, %v", ok, err)
			}
			if m.Command != tt.want {
				t.Errorf("Select() picked %s, want %s", m.Command.Name(), tt.want.Name())
			}
		})
	}
}

func TestSelectIgnoreExtra(t *testing.T) {
	t.Parallel()

	three, err := command.NewBuilder("three").
		WithAliases("x").
		WithParameters(command.NewParameter[int]("a"), command.NewParameter[int]("b"), command.NewParameter[int]("c")).
		WithHandler(func(int, int, int) {}).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	one, err := command.NewBuilder("one").
		WithAliases("x").
		WithParameters(command.NewParameter[int]("a")).
		WithHandler(func(int) {}).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	strictOne, err := command.NewBuilder("strict-one").
		WithAliases("x").
		WithParameters(command.NewParameter[int]("a")).
		WithIgnoreExtraArgs(false).
		WithHandler(func(int) {}).
		Build()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		cmds        []*command.Command
		ignoreExtra bool
		want        *command.Command
	}{
		{name: "surplus dropped by default", cmds: []*command.Command{three, one}, ignoreExtra: true, want: one},
		{name: "strict default falls back to first", cmds: []*command.Command{three, one}, ignoreExtra: false, want: three},
		{name: "command override wins", cmds: []*command.Command{three, strictOne}, ignoreExtra: true, want: three},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, _ := New(Ordinal)
			for _, cmd := range tt.cmds {
				if err := c.Add(cmd); err != nil {
					t.Fatalf("Add() error: %v", err)
				}
			}
			m, ok, err := Select(c.Match("x"), 2, MultiMatchFirst, tt.ignoreExtra)
			if err != nil || !ok {
				t.Fatalf("Select() = %v, %v", ok, err)
			}
			if m.Command != tt.want {
				t.Errorf("Select() picked %s, want %s", m.Command.Name(), tt.want.Name())
			}
		})
	}
}

func TestSelectEmpty(t *testing.T) {
	t.Parallel()

	if _, ok, err := Select(nil, 0, MultiMatchFail, true); ok || err != nil {
		t.Errorf("Select(nil) = %v, %v", ok, err)
	}
	if ok, _ := MultiMatch("random").IsValid(); ok {
		t.Error("MultiMatch(random).IsValid() = true")
	}
}
