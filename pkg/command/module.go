// SPDX-License-Identifier: MPL-2.0

package command

import (
	"context"
	"fmt"
	"reflect"
)

const (
	// LifetimeDefault defers to the configured module lifetime.
	LifetimeDefault Lifetime = ""
	// LifetimeTransient creates one module instance per request.
	LifetimeTransient Lifetime = "transient"
	// LifetimeSingleton shares one module instance across all requests.
	LifetimeSingleton Lifetime = "singleton"
)

var errorType = reflect.TypeFor[error]()

type (
	// Lifetime controls how often a module instance is created.
	Lifetime string

	// Invocation is the read-only view of an in-flight request that modules
	// and preconditions observe.
	Invocation interface {
		ID() string
		Alias() string
		Input() string
		Command() *Command
		Service(t reflect.Type) (any, bool)
	}

	// InvocationAware is implemented by module instances that want the
	// request attached after activation. Embedding ModuleBase satisfies it.
	InvocationAware interface {
		SetInvocation(inv Invocation)
	}

	// ModuleBase can be embedded by module structs to observe the request.
	ModuleBase struct {
		inv Invocation
	}

	// Precondition guards a command. A non-nil error stops the request
	// before binding, and its message becomes the failure reason.
	Precondition func(ctx context.Context, inv Invocation) error

	// Module groups commands whose handlers are methods of one type.
	Module struct {
		name        string
		typ         reflect.Type
		constructor reflect.Value
		lifetime    Lifetime
	}

	// ModuleOption configures a Module at construction.
	ModuleOption func(*Module)
)

// SetInvocation implements InvocationAware.
func (m *ModuleBase) SetInvocation(inv Invocation) { m.inv = inv }

// Invocation returns the request this instance was activated for.
func (m *ModuleBase) Invocation() Invocation { return m.inv }

// IsValid returns whether the Lifetime is one of the defined lifetimes.
// The zero value is valid and means "use the configured default".
func (l Lifetime) IsValid() (bool, []error) {
	switch l {
	case LifetimeDefault, LifetimeTransient, LifetimeSingleton:
		return true, nil
	default:
		return false, []error{configErr(InvalidModule, string(l), "invalid module lifetime (valid: transient, singleton)")}
	}
}

// String returns the string representation of the Lifetime.
func (l Lifetime) String() string { return string(l) }

// WithConstructor sets a constructor function. Its inputs are resolved from
// the request's dependency scope; it must return T or (T, error) where T is
// assignable to the module type.
func WithConstructor(fn any) ModuleOption {
	return func(m *Module) { m.constructor = reflect.ValueOf(fn) }
}

// WithLifetime sets the module lifetime.
func WithLifetime(l Lifetime) ModuleOption {
	return func(m *Module) { m.lifetime = l }
}

// NewModule creates a module descriptor for instance type T (usually a
// pointer to a struct). Without a constructor, T must be a pointer to a
// struct so that a zero instance can be allocated.
func NewModule[T any](name string, opts ...ModuleOption) (*Module, error) {
	return NewModuleOf(name, reflect.TypeFor[T](), opts...)
}

// NewModuleOf creates a module descriptor with an explicit reflect.Type.
func NewModuleOf(name string, typ reflect.Type, opts ...ModuleOption) (*Module, error) {
	m := &Module{name: name, typ: typ}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Module) validate() error {
	if m.name == "" {
		return configErr(InvalidModule, "", "module name must not be empty")
	}
	if m.typ == nil {
		return configErr(InvalidModule, m.name, "module type must not be nil")
	}
	if ok, errs := m.lifetime.IsValid(); !ok {
		return errs[0]
	}
	if !m.constructor.IsValid() {
		if m.typ.Kind() != reflect.Pointer || m.typ.Elem().Kind() != reflect.Struct {
			return configErr(InvalidModule, m.name, "module type %s needs a constructor (only pointers to structs are allocated automatically)", m.typ)
		}
		return nil
	}
	ct := m.constructor.Type()
	if ct.Kind() != reflect.Func {
		return configErr(InvalidModule, m.name, "constructor must be a func, got %s", ct)
	}
	if ct.IsVariadic() {
		return configErr(InvalidModule, m.name, "constructor must not be variadic")
	}
	switch ct.NumOut() {
	case 1:
	case 2:
		if ct.Out(1) != errorType {
			return configErr(InvalidModule, m.name, "constructor second result must be error, got %s", ct.Out(1))
		}
	default:
		return configErr(InvalidModule, m.name, "constructor must return T or (T, error)")
	}
	if !ct.Out(0).AssignableTo(m.typ) {
		return configErr(InvalidModule, m.name, "constructor returns %s, not assignable to %s", ct.Out(0), m.typ)
	}
	return nil
}

// Name returns the module name.
func (m *Module) Name() string { return m.name }

// Type returns the module instance type.
func (m *Module) Type() reflect.Type { return m.typ }

// Lifetime returns the declared lifetime (LifetimeDefault when unset).
func (m *Module) Lifetime() Lifetime { return m.lifetime }

// Constructor returns the constructor func value; it is invalid when unset.
func (m *Module) Constructor() reflect.Value { return m.constructor }

// String returns the module name and type for diagnostics.
func (m *Module) String() string { return fmt.Sprintf("%s(%s)", m.name, m.typ) }
