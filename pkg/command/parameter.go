// SPDX-License-Identifier: MPL-2.0

package command

import (
	"context"
	"reflect"
)

type (
	// TypeParser converts one raw token into a value for a declared type or
	// type family. Parse returns nil to signal "no value"; callers convert
	// it to the zero value of the declared type.
	TypeParser interface {
		CanParse(t reflect.Type) bool
		Parse(ctx context.Context, raw string, param *Parameter) (any, error)
	}

	// Parameter is a declared input slot of a command.
	// Fields are unexported for immutability; use the accessors.
	Parameter struct {
		name         string
		description  string
		typ          reflect.Type
		optional     bool
		hasDefault   bool
		defaultValue any
		remainder    bool
		variadic     bool
		parser       TypeParser
	}

	// ParameterOption configures a Parameter at construction.
	ParameterOption func(*Parameter)
)

// NewParameter creates a parameter whose declared type is T.
// A variadic parameter declares the slice type, e.g. NewParameter[[]string].
func NewParameter[T any](name string, opts ...ParameterOption) *Parameter {
	return NewParameterOf(name, reflect.TypeFor[T](), opts...)
}

// NewParameterOf creates a parameter with an explicit reflect.Type.
func NewParameterOf(name string, typ reflect.Type, opts ...ParameterOption) *Parameter {
	p := &Parameter{name: name, typ: typ}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Optional marks the parameter optional. Without a default, the zero value is used.
func Optional() ParameterOption {
	return func(p *Parameter) { p.optional = true }
}

// Default marks the parameter optional with the given default value.
func Default(v any) ParameterOption {
	return func(p *Parameter) {
		p.optional = true
		p.hasDefault = true
		p.defaultValue = v
	}
}

// Remainder makes the parameter consume every remaining token as one joined string.
func Remainder() ParameterOption {
	return func(p *Parameter) { p.remainder = true }
}

// Variadic makes the parameter consume every remaining token individually.
func Variadic() ParameterOption {
	return func(p *Parameter) { p.variadic = true }
}

// WithParser overrides registry resolution for this parameter.
func WithParser(tp TypeParser) ParameterOption {
	return func(p *Parameter) { p.parser = tp }
}

// Describe sets the help text.
func Describe(text string) ParameterOption {
	return func(p *Parameter) { p.description = text }
}

// Name returns the parameter name.
func (p *Parameter) Name() string { return p.name }

// Description returns the help text.
func (p *Parameter) Description() string { return p.description }

// Type returns the declared type. Variadic parameters declare a slice type.
func (p *Parameter) Type() reflect.Type { return p.typ }

// ElementType returns the type a single token is parsed into: the slice
// element for variadic parameters, the declared type otherwise.
func (p *Parameter) ElementType() reflect.Type {
	if p.variadic && p.typ != nil && p.typ.Kind() == reflect.Slice {
		return p.typ.Elem()
	}
	return p.typ
}

// IsOptional reports whether the parameter may be omitted.
func (p *Parameter) IsOptional() bool { return p.optional }

// Default returns the default value and whether one was declared.
func (p *Parameter) Default() (any, bool) { return p.defaultValue, p.hasDefault }

// IsRemainder reports whether the parameter joins all remaining tokens.
func (p *Parameter) IsRemainder() bool { return p.remainder }

// IsVariadic reports whether the parameter collects all remaining tokens.
func (p *Parameter) IsVariadic() bool { return p.variadic }

// Parser returns the explicit parser override, or nil.
func (p *Parameter) Parser() TypeParser { return p.parser }

// String returns "name:type" for diagnostics.
func (p *Parameter) String() string {
	if p.typ == nil {
		return p.name
	}
	return p.name + ":" + p.typ.String()
}

// IsValid returns whether the parameter is well formed on its own, and a
// list of validation errors if it is not. Layout rules that depend on the
// parameter position are checked by Builder.Build.
func (p *Parameter) IsValid() (bool, []error) {
	var errs []error
	if p.name == "" {
		errs = append(errs, configErr(InvalidParameterLayout, "", "parameter name must not be empty"))
	}
	if p.typ == nil {
		errs = append(errs, configErr(InvalidParameterLayout, p.name, "parameter type must not be nil"))
		return false, errs
	}
	if p.remainder && p.variadic {
		errs = append(errs, configErr(InvalidParameterLayout, p.name, "parameter cannot be both remainder and variadic"))
	}
	if p.variadic && p.typ.Kind() != reflect.Slice {
		errs = append(errs, configErr(InvalidParameterLayout, p.name, "variadic parameter must declare a slice type, got %s", p.typ))
	}
	if p.hasDefault {
		if _, err := Coerce(p.defaultValue, p.typ); err != nil {
			errs = append(errs, configErr(InvalidDefaultValue, p.name, "%v", err))
		}
	}
	if len(errs) > 0 {
		return false, errs
	}
	return true, nil
}
