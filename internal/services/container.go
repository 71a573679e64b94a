// SPDX-License-Identifier: MPL-2.0

// Package services is a small dependency container. Singletons are shared by
// every scope; scoped factories run at most once per scope, and what they
// create is released when the scope closes.
package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
)

var (
	// ErrServiceNotFound is returned when no registration exists for a type.
	ErrServiceNotFound = errors.New("service not found")

	// ErrCircularDependency is returned when a scoped factory requires itself.
	ErrCircularDependency = errors.New("circular service dependency")

	// ErrScopeClosed is returned when resolving from a closed scope.
	ErrScopeClosed = errors.New("scope is closed")

	// ErrScopedService is returned by Shared for a type that only has a
	// scoped registration.
	ErrScopedService = errors.New("service is request-scoped")
)

type (
	// Factory creates a scoped service. It may resolve other services from s.
	Factory func(ctx context.Context, s *Scope) (any, error)

	// Container holds registrations. It is safe for concurrent use.
	Container struct {
		mu         sync.RWMutex
		singletons map[reflect.Type]any
		factories  map[reflect.Type]Factory
	}

	// Scope resolves services for one request and releases what it created.
	Scope struct {
		container *Container
		ctx       context.Context

		mu        sync.Mutex
		instances map[reflect.Type]any
		resolving map[reflect.Type]bool
		disposer  Disposer
	}
)

// NewContainer creates an empty container.
func NewContainer() *Container {
	return &Container{
		singletons: make(map[reflect.Type]any),
		factories:  make(map[reflect.Type]Factory),
	}
}

// AddSingleton registers v under type t. v must be assignable to t.
func (c *Container) AddSingleton(t reflect.Type, v any) error {
	if v != nil && !reflect.TypeOf(v).AssignableTo(t) {
		return fmt.Errorf("singleton of type %T is not assignable to %s", v, t)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.singletons[t] = v
	return nil
}

// AddScoped registers a factory for type t.
func (c *Container) AddScoped(t reflect.Type, f Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[t] = f
}

// Singleton registers v as the shared instance of T.
func Singleton[T any](c *Container, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.singletons[reflect.TypeFor[T]()] = v
}

// Scoped registers a typed factory for T.
func Scoped[T any](c *Container, f func(ctx context.Context, s *Scope) (T, error)) {
	c.AddScoped(reflect.TypeFor[T](), func(ctx context.Context, s *Scope) (any, error) {
		return f(ctx, s)
	})
}

// Has reports whether t is registered.
func (c *Container) Has(t reflect.Type) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, single := c.singletons[t]
	_, scoped := c.factories[t]
	return single || scoped
}

// CreateScope opens a scope whose factories observe ctx.
func (c *Container) CreateScope(ctx context.Context) *Scope {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Scope{
		container: c,
		ctx:       ctx,
		instances: make(map[reflect.Type]any),
		resolving: make(map[reflect.Type]bool),
	}
}

// Resolve returns the service registered for t.
func (s *Scope) Resolve(t reflect.Type) (any, error) {
	s.container.mu.RLock()
	single, isSingle := s.container.singletons[t]
	factory, isScoped := s.container.factories[t]
	s.container.mu.RUnlock()

	if isSingle {
		return single, nil
	}
	if !isScoped {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, t)
	}

	s.mu.Lock()
	if s.disposer.Closed() {
		s.mu.Unlock()
		return nil, ErrScopeClosed
	}
	if v, ok := s.instances[t]; ok {
		s.mu.Unlock()
		return v, nil
	}
	if s.resolving[t] {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrCircularDependency, t)
	}
	s.resolving[t] = true
	s.mu.Unlock()

	v, err := factory(s.ctx, s)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.resolving, t)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", t, err)
	}
	s.instances[t] = v
	s.disposer.Track(v)
	return v, nil
}

// Shared returns the singleton registered for t without consulting scoped
// factories, so nothing is created in s. A type with only a scoped
// registration yields ErrScopedService.
func (s *Scope) Shared(t reflect.Type) (any, error) {
	s.container.mu.RLock()
	defer s.container.mu.RUnlock()
	if v, ok := s.container.singletons[t]; ok {
		return v, nil
	}
	if _, ok := s.container.factories[t]; ok {
		return nil, fmt.Errorf("%w: %s", ErrScopedService, t)
	}
	return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, t)
}

// Lookup returns the service for t, or false when it is missing or fails to build.
func (s *Scope) Lookup(t reflect.Type) (any, bool) {
	v, err := s.Resolve(t)
	return v, err == nil
}

// Close releases every scoped instance this scope created. Closing twice is a no-op.
func (s *Scope) Close(ctx context.Context) error {
	return s.disposer.Close(ctx)
}

// Get resolves a typed service from s.
func Get[T any](s *Scope) (T, error) {
	var zero T
	v, err := s.Resolve(reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("service %s has type %T", reflect.TypeFor[T](), v)
	}
	return typed, nil
}
