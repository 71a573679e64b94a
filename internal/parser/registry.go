// SPDX-License-Identifier: MPL-2.0

// Package parser holds the type-parser registry and the built-in parsers.
//
// Resolution for a type T runs in a fixed order: exact registrations, then
// inherited registrations in registration order, then synthesized wrappers
// for pointer types (*U delegates to U's parser) and, when enabled, for
// reference-like kinds. A miss is reported as (nil, false), never as an error.
package parser

import (
	"reflect"
	"sync/atomic"

	"github.com/MariBotOfficial/MariCommands-sub001/pkg/command"
)

type (
	// Predicate decides whether an inherited parser accepts a type.
	Predicate func(t reflect.Type) bool

	// Nullable is implemented by parsers that map absent or empty input to
	// "no value" instead of parsing it.
	Nullable interface {
		Nullable() bool
	}

	inheritedEntry struct {
		parser command.TypeParser
		accept Predicate
	}

	// Registry resolves a TypeParser for a requested type. Registrations
	// happen during startup; after Freeze the registry is read-only and safe
	// for concurrent use without locking.
	Registry struct {
		exact        map[reflect.Type]command.TypeParser
		inherited    []inheritedEntry
		nullableRefs bool
		frozen       atomic.Bool
	}

	// Option configures a Registry.
	Option func(*Registry)
)

// WithReferenceTypesNullable makes resolved parsers for reference-like
// kinds (interface, map, slice, func, chan) treat empty input as no value.
func WithReferenceTypesNullable(enabled bool) Option {
	return func(r *Registry) { r.nullableRefs = enabled }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{exact: make(map[reflect.Type]command.TypeParser)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewDefaultRegistry creates a registry preloaded with the built-in parsers.
func NewDefaultRegistry(opts ...Option) *Registry {
	r := NewRegistry(opts...)
	registerBuiltins(r)
	return r
}

// AddExact registers p for exactly type t. A later registration for the
// same type replaces the earlier one.
func (r *Registry) AddExact(t reflect.Type, p command.TypeParser) error {
	if err := r.checkWritable(t.String()); err != nil {
		return err
	}
	r.exact[t] = p
	return nil
}

// AddInherited registers p for every type accept approves. A nil predicate
// falls back to p.CanParse.
func (r *Registry) AddInherited(p command.TypeParser, accept Predicate) error {
	if err := r.checkWritable(reflect.TypeOf(p).String()); err != nil {
		return err
	}
	if accept == nil {
		accept = p.CanParse
	}
	r.inherited = append(r.inherited, inheritedEntry{parser: p, accept: accept})
	return nil
}

// Register registers p for exactly type T.
func Register[T any](r *Registry, p command.TypeParser) error {
	return r.AddExact(reflect.TypeFor[T](), p)
}

// RegisterFunc registers a plain parse function for exactly type T.
func RegisterFunc[T any](r *Registry, fn func(raw string) (T, error)) error {
	return r.AddExact(reflect.TypeFor[T](), Func(fn))
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() { r.frozen.Store(true) }

// Frozen reports whether Freeze was called.
func (r *Registry) Frozen() bool { return r.frozen.Load() }

// NullableReferences reports whether reference-like kinds are treated as nullable.
func (r *Registry) NullableReferences() bool { return r.nullableRefs }

func (r *Registry) checkWritable(subject string) error {
	if r.frozen.Load() {
		return command.NewConfigurationError(command.RegistryFrozen, subject, "parser registry is frozen")
	}
	return nil
}

// Resolve returns the parser for t, or false when none applies.
func (r *Registry) Resolve(t reflect.Type) (command.TypeParser, bool) {
	if t == nil {
		return nil, false
	}
	p, ok := r.lookup(t)
	if !ok && t.Kind() == reflect.Pointer {
		if inner, found := r.Resolve(t.Elem()); found {
			return &pointerParser{elem: t.Elem(), inner: inner}, true
		}
	}
	if !ok {
		return nil, false
	}
	if r.nullableRefs && command.IsReferenceKind(t) && !IsNullable(p) {
		return &nullableParser{inner: p}, true
	}
	return p, true
}

// ResolveFor returns the parser for a parameter: its explicit override when
// set, otherwise the registry's parser for its element type.
func (r *Registry) ResolveFor(param *command.Parameter) (command.TypeParser, bool) {
	if p := param.Parser(); p != nil {
		return p, true
	}
	return r.Resolve(param.ElementType())
}

func (r *Registry) lookup(t reflect.Type) (command.TypeParser, bool) {
	if p, ok := r.exact[t]; ok {
		return p, true
	}
	for _, e := range r.inherited {
		if e.accept(t) {
			return e.parser, true
		}
	}
	return nil, false
}

// IsNullable reports whether p maps empty input to "no value".
func IsNullable(p command.TypeParser) bool {
	n, ok := p.(Nullable)
	return ok && n.Nullable()
}

// TargetType returns the non-pointer type a parser for param should produce.
// Pointer layers are stripped because pointer parsers wrap their element parser.
func TargetType(param *command.Parameter) reflect.Type {
	t := param.ElementType()
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
