// SPDX-License-Identifier: MPL-2.0

// Package activator creates module instances for requests.
package activator

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/MariBotOfficial/MariCommands-sub001/internal/request"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/services"
	"github.com/MariBotOfficial/MariCommands-sub001/pkg/command"
)

var (
	// ErrActivation is the sentinel wrapped by ActivationError.
	ErrActivation = errors.New("module activation failed")

	// ErrMissingDependency is the cause when a constructor input cannot be resolved.
	ErrMissingDependency = errors.New("missing dependency")

	contextType = reflect.TypeFor[context.Context]()
)

type (
	// ActivationError reports a module that could not be constructed. It is
	// a hard fault for the request. It wraps ErrActivation and the cause.
	ActivationError struct {
		Module string
		Cause  error
	}

	singleton struct {
		once  sync.Once
		value reflect.Value
		err   error
	}

	// Activator creates transient instances per request and shares one
	// instance per singleton module. It is safe for concurrent use.
	Activator struct {
		defaultLifetime command.Lifetime

		mu         sync.Mutex
		singletons map[*command.Module]*singleton
		disposer   services.Disposer
	}
)

// Error implements the error interface.
func (e *ActivationError) Error() string {
	return fmt.Sprintf("activating module %q: %v", e.Module, e.Cause)
}

// Unwrap returns ErrActivation and the cause.
func (e *ActivationError) Unwrap() []error { return []error{ErrActivation, e.Cause} }

// New creates an Activator. defaultLifetime applies to modules that do not
// declare one; an empty value means transient.
func New(defaultLifetime command.Lifetime) *Activator {
	if defaultLifetime == command.LifetimeDefault {
		defaultLifetime = command.LifetimeTransient
	}
	return &Activator{
		defaultLifetime: defaultLifetime,
		singletons:      make(map[*command.Module]*singleton),
	}
}

// LifetimeOf returns the effective lifetime of m.
func (a *Activator) LifetimeOf(m *command.Module) command.Lifetime {
	if l := m.Lifetime(); l != command.LifetimeDefault {
		return l
	}
	return a.defaultLifetime
}

// Activate returns the instance of m serving rc. Transient instances observe
// rc (when they implement command.InvocationAware) and are released with rc.
// Singletons are built once from container singletons only; a constructor
// input that is request-scoped fails activation with services.ErrScopedService.
func (a *Activator) Activate(ctx context.Context, m *command.Module, rc *request.Context) (reflect.Value, error) {
	if a.LifetimeOf(m) == command.LifetimeSingleton {
		return a.shared(ctx, m, rc)
	}

	v, err := construct(ctx, m, func(t reflect.Type) (any, error) {
		dep, ok := rc.Service(t)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingDependency, t)
		}
		return dep, nil
	})
	if err != nil {
		return reflect.Value{}, err
	}
	instance := v.Interface()
	if aware, ok := instance.(command.InvocationAware); ok {
		aware.SetInvocation(rc)
	}
	rc.Track(instance)
	return v, nil
}

func (a *Activator) shared(ctx context.Context, m *command.Module, rc *request.Context) (reflect.Value, error) {
	a.mu.Lock()
	s, ok := a.singletons[m]
	if !ok {
		s = &singleton{}
		a.singletons[m] = s
	}
	a.mu.Unlock()

	s.once.Do(func() {
		s.value, s.err = construct(context.WithoutCancel(ctx), m, func(t reflect.Type) (any, error) {
			dep, err := rc.SharedService(t)
			if errors.Is(err, services.ErrServiceNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrMissingDependency, t)
			}
			return dep, err
		})
		if s.err == nil {
			a.disposer.Track(s.value.Interface())
		}
	})
	return s.value, s.err
}

// Close releases disposable singleton instances.
func (a *Activator) Close(ctx context.Context) error {
	return a.disposer.Close(ctx)
}

// construct calls m's constructor with inputs from resolve.
func construct(ctx context.Context, m *command.Module, resolve func(reflect.Type) (any, error)) (v reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ActivationError{Module: m.Name(), Cause: fmt.Errorf("constructor panicked: %v", r)}
		}
	}()

	ctor := m.Constructor()
	if !ctor.IsValid() {
		return reflect.New(m.Type().Elem()), nil
	}

	ct := ctor.Type()
	in := make([]reflect.Value, ct.NumIn())
	for i := range in {
		t := ct.In(i)
		if t == contextType {
			in[i] = reflect.ValueOf(&ctx).Elem()
			continue
		}
		dep, err := resolve(t)
		if err != nil {
			return reflect.Value{}, &ActivationError{Module: m.Name(), Cause: err}
		}
		if dep == nil {
			in[i] = reflect.Zero(t)
			continue
		}
		in[i] = reflect.ValueOf(dep)
	}

	out := ctor.Call(in)
	if len(out) == 2 && !out[1].IsNil() {
		return reflect.Value{}, &ActivationError{Module: m.Name(), Cause: out[1].Interface().(error)}
	}
	result := reflect.New(m.Type()).Elem()
	result.Set(out[0])
	return result, nil
}
