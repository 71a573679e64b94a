// SPDX-License-Identifier: MPL-2.0

package command

import (
	"errors"
	"reflect"
	"testing"
)

func noop() {}

func TestBuilderBuild(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		builder  *Builder
		wantKind ConfigErrorKind
	}{
		{
			name:    "plain command",
			builder: NewBuilder("ping").WithHandler(noop),
		},
		{
			name: "remainder last",
			builder: NewBuilder("say").WithHandler(noop).WithParameters(
				NewParameter[int]("times"),
				NewParameter[string]("text", Remainder()),
			),
		},
		{
			name:     "empty name",
			builder:  NewBuilder("").WithHandler(noop),
			wantKind: InvalidParameterLayout,
		},
		{
			name:     "missing handler",
			builder:  NewBuilder("ping"),
			wantKind: InvalidCommandSignature,
		},
		{
			name:     "handler is not a func",
			builder:  NewBuilder("ping").WithHandler(42),
			wantKind: InvalidCommandSignature,
		},
		{
			name: "remainder not last",
			builder: NewBuilder("say").WithHandler(noop).WithParameters(
				NewParameter[string]("text", Remainder()),
				NewParameter[int]("times"),
			),
			wantKind: InvalidParameterLayout,
		},
		{
			name: "variadic not last",
			builder: NewBuilder("sum").WithHandler(noop).WithParameters(
				NewParameter[[]int]("values", Variadic()),
				NewParameter[int]("base"),
			),
			wantKind: InvalidParameterLayout,
		},
		{
			name: "duplicate parameter",
			builder: NewBuilder("add").WithHandler(noop).WithParameters(
				NewParameter[int]("a"),
				NewParameter[int]("a"),
			),
			wantKind: InvalidParameterLayout,
		},
		{
			name: "default of wrong type",
			builder: NewBuilder("add").WithHandler(noop).WithParameters(
				NewParameter[int]("a", Default("one")),
			),
			wantKind: InvalidDefaultValue,
		},
		{
			name:     "unknown run mode",
			builder:  NewBuilder("ping").WithHandler(noop).WithRunMode("parallel"),
			wantKind: InvalidCommandSignature,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cmd, err := tt.builder.Build()
			if tt.wantKind == "" {
				if err != nil {
					t.Fatalf("Build() unexpected error: %v", err)
				}
				if cmd == nil {
					t.Fatal("Build() returned nil command")
				}
				return
			}
			if err == nil {
				t.Fatal("Build() expected error, got nil")
			}
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("error does not wrap ErrConfiguration: %v", err)
			}
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("error is not a *ConfigurationError: %T", err)
			}
			if cfgErr.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", cfgErr.Kind, tt.wantKind)
			}
		})
	}
}

func TestCommandIsImmutable(t *testing.T) {
	t.Parallel()

	b := NewBuilder("echo").WithHandler(noop).WithAliases("e", "echo").
		WithParameters(NewParameter[string]("text"))
	cmd, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	params := cmd.Parameters()
	params[0] = NewParameter[int]("other")
	if got := cmd.Parameter(0).Name(); got != "text" {
		t.Errorf("Parameter(0).Name() = %q after external mutation, want %q", got, "text")
	}

	b.WithParameters(NewParameter[int]("late"))
	if got := cmd.NumParameters(); got != 1 {
		t.Errorf("NumParameters() = %d after builder reuse, want 1", got)
	}

	want := []string{"echo", "e"}
	if got := cmd.Aliases(); !reflect.DeepEqual(got, want) {
		t.Errorf("Aliases() = %v, want %v", got, want)
	}
}

func TestCommandArity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		params  []*Parameter
		wantMin int
		wantMax int
	}{
		{name: "none", wantMin: 0, wantMax: 0},
		{
			name:    "required and optional",
			params:  []*Parameter{NewParameter[int]("a"), NewParameter[int]("b", Optional())},
			wantMin: 1,
			wantMax: 2,
		},
		{
			name:    "variadic",
			params:  []*Parameter{NewParameter[string]("head"), NewParameter[[]string]("rest", Variadic())},
			wantMin: 1,
			wantMax: -1,
		},
		{
			name:    "remainder",
			params:  []*Parameter{NewParameter[string]("text", Remainder())},
			wantMin: 0,
			wantMax: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cmd, err := NewBuilder("c").WithHandler(noop).WithParameters(tt.params...).Build()
			if err != nil {
				t.Fatalf("Build() error: %v", err)
			}
			gotMin, gotMax := cmd.Arity()
			if gotMin != tt.wantMin || gotMax != tt.wantMax {
				t.Errorf("Arity() = (%d, %d), want (%d, %d)", gotMin, gotMax, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestCommandIgnoreExtraArgs(t *testing.T) {
	t.Parallel()

	unset, err := NewBuilder("a").WithHandler(noop).Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if _, set := unset.IgnoreExtraArgs(); set {
		t.Error("IgnoreExtraArgs() reported set without override")
	}

	on, err := NewBuilder("b").WithHandler(noop).WithIgnoreExtraArgs(true).Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if ignore, set := on.IgnoreExtraArgs(); !ignore || !set {
		t.Errorf("IgnoreExtraArgs() = (%v, %v), want (true, true)", ignore, set)
	}
}
