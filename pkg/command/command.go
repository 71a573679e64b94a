// SPDX-License-Identifier: MPL-2.0

package command

import (
	"errors"
	"reflect"

	"golang.org/x/exp/slices"
)

const (
	// RunModeDefault defers to the configured run mode.
	RunModeDefault RunMode = ""
	// RunModeSequential waits for the handler before the pipeline unwinds.
	RunModeSequential RunMode = "sequential"
	// RunModeConcurrent hands the handler off and unwinds without waiting.
	RunModeConcurrent RunMode = "concurrent"
)

type (
	// RunMode selects whether a handler is awaited by the pipeline.
	RunMode string

	// Command is an immutable, named, invocable unit. Build one with Builder.
	Command struct {
		name            string
		description     string
		aliases         []string
		params          []*Parameter
		handler         reflect.Value
		module          *Module
		runMode         RunMode
		preconditions   []Precondition
		ignoreExtraArgs *bool
	}

	// Builder assembles a Command. The zero value is not usable; call NewBuilder.
	Builder struct {
		cmd Command
	}
)

// IsValid returns whether the RunMode is one of the defined modes.
// The zero value is valid and means "use the configured default".
func (m RunMode) IsValid() (bool, []error) {
	switch m {
	case RunModeDefault, RunModeSequential, RunModeConcurrent:
		return true, nil
	default:
		return false, []error{configErr(InvalidCommandSignature, string(m), "invalid run mode (valid: sequential, concurrent)")}
	}
}

// String returns the string representation of the RunMode.
func (m RunMode) String() string { return string(m) }

// NewBuilder starts a command named name. The name is also its first alias.
func NewBuilder(name string) *Builder {
	return &Builder{cmd: Command{name: name}}
}

// WithDescription sets the help text.
func (b *Builder) WithDescription(text string) *Builder {
	b.cmd.description = text
	return b
}

// WithAliases adds aliases in addition to the command name.
func (b *Builder) WithAliases(aliases ...string) *Builder {
	b.cmd.aliases = append(b.cmd.aliases, aliases...)
	return b
}

// WithParameters appends parameters in declared order.
func (b *Builder) WithParameters(params ...*Parameter) *Builder {
	b.cmd.params = append(b.cmd.params, params...)
	return b
}

// WithHandler sets the handler func. When the command belongs to a module,
// the handler's first input is the module instance (a method expression such
// as (*Greeter).Hello).
func (b *Builder) WithHandler(fn any) *Builder {
	b.cmd.handler = reflect.ValueOf(fn)
	return b
}

// WithModule attaches the command to a module.
func (b *Builder) WithModule(m *Module) *Builder {
	b.cmd.module = m
	return b
}

// WithRunMode overrides the configured run mode.
func (b *Builder) WithRunMode(mode RunMode) *Builder {
	b.cmd.runMode = mode
	return b
}

// WithPreconditions appends preconditions, checked in order.
func (b *Builder) WithPreconditions(pre ...Precondition) *Builder {
	b.cmd.preconditions = append(b.cmd.preconditions, pre...)
	return b
}

// WithIgnoreExtraArgs overrides the configured "ignore extra tokens" policy.
func (b *Builder) WithIgnoreExtraArgs(ignore bool) *Builder {
	b.cmd.ignoreExtraArgs = &ignore
	return b
}

// Build validates the descriptor and returns an immutable Command.
// Handler signature classification happens later, at registration.
func (b *Builder) Build() (*Command, error) {
	c := b.cmd
	var errs []error
	if c.name == "" {
		errs = append(errs, configErr(InvalidParameterLayout, "", "command name must not be empty"))
	}
	if !c.handler.IsValid() || c.handler.Kind() != reflect.Func || c.handler.IsNil() {
		errs = append(errs, configErr(InvalidCommandSignature, c.name, "handler must be a non-nil func"))
	}
	if ok, modeErrs := c.runMode.IsValid(); !ok {
		errs = append(errs, modeErrs...)
	}

	seen := make(map[string]struct{}, len(c.params))
	for i, p := range c.params {
		if p == nil {
			errs = append(errs, configErr(InvalidParameterLayout, c.name, "parameter %d is nil", i))
			continue
		}
		if ok, pErrs := p.IsValid(); !ok {
			errs = append(errs, pErrs...)
		}
		if _, dup := seen[p.name]; dup {
			errs = append(errs, configErr(InvalidParameterLayout, c.name, "duplicate parameter name %q", p.name))
		}
		seen[p.name] = struct{}{}
		if (p.remainder || p.variadic) && i != len(c.params)-1 {
			errs = append(errs, configErr(InvalidParameterLayout, c.name, "parameter %q must be last to be remainder or variadic", p.name))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	aliases := make([]string, 0, len(c.aliases)+1)
	for _, a := range append([]string{c.name}, c.aliases...) {
		if a != "" && !slices.Contains(aliases, a) {
			aliases = append(aliases, a)
		}
	}
	c.aliases = aliases
	c.params = slices.Clone(c.params)
	c.preconditions = slices.Clone(c.preconditions)
	return &c, nil
}

// Name returns the command name.
func (c *Command) Name() string { return c.name }

// Description returns the help text.
func (c *Command) Description() string { return c.description }

// Aliases returns the name followed by every declared alias.
func (c *Command) Aliases() []string { return slices.Clone(c.aliases) }

// Parameters returns the ordered parameter list.
func (c *Command) Parameters() []*Parameter { return slices.Clone(c.params) }

// NumParameters returns the parameter count without copying.
func (c *Command) NumParameters() int { return len(c.params) }

// Parameter returns the i-th parameter.
func (c *Command) Parameter(i int) *Parameter { return c.params[i] }

// Handler returns the handler func value.
func (c *Command) Handler() reflect.Value { return c.handler }

// Module returns the hosting module, or nil for free-standing handlers.
func (c *Command) Module() *Module { return c.module }

// RunMode returns the declared run mode (RunModeDefault when unset).
func (c *Command) RunMode() RunMode { return c.runMode }

// Preconditions returns the preconditions in declared order.
func (c *Command) Preconditions() []Precondition { return slices.Clone(c.preconditions) }

// IgnoreExtraArgs returns the per-command policy and whether one was set.
func (c *Command) IgnoreExtraArgs() (ignore, set bool) {
	if c.ignoreExtraArgs == nil {
		return false, false
	}
	return *c.ignoreExtraArgs, true
}

// Arity returns the minimum and maximum token counts the parameter list
// accepts. max is -1 when the last parameter is remainder or variadic.
func (c *Command) Arity() (minTokens, maxTokens int) {
	for _, p := range c.params {
		if p.remainder || p.variadic {
			return minTokens, -1
		}
		if !p.optional {
			minTokens++
		}
		maxTokens++
	}
	return minTokens, maxTokens
}
