// SPDX-License-Identifier: MPL-2.0

// Package request holds the per-request state that flows through the
// dispatch pipeline and its lifecycle state machine.
package request

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/MariBotOfficial/MariCommands-sub001/internal/binder"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/services"
	"github.com/MariBotOfficial/MariCommands-sub001/pkg/command"
	"github.com/MariBotOfficial/MariCommands-sub001/pkg/result"
)

var (
	invocationType = reflect.TypeFor[command.Invocation]()

	_ command.Invocation = (*Context)(nil)
)

type (
	// Scope is the request-scoped dependency accessor.
	Scope interface {
		Lookup(t reflect.Type) (any, bool)
		Close(ctx context.Context) error
	}

	// sharedScope is implemented by scopes that can resolve services
	// outliving the request.
	sharedScope interface {
		Shared(t reflect.Type) (any, error)
	}

	// Context is owned by exactly one in-flight request. Lifecycle fields
	// move forward through State; the item bag is safe for concurrent use so
	// a handler running in concurrent mode may still read it.
	Context struct {
		id    string
		alias string
		input string
		scope Scope

		state   atomic.Int32
		mu      sync.Mutex
		command *command.Command
		args    *binder.Arguments
		result  result.Result
		fault   error
		items   map[any]any

		disposer services.Disposer
		detached bool
		released bool
	}

	ctxKey struct{}
)

// New creates a request for alias and raw argument text. scope may be nil.
func New(alias, input string, scope Scope) *Context {
	return &Context{
		id:    uuid.NewString(),
		alias: alias,
		input: input,
		scope: scope,
		items: make(map[any]any),
	}
}

// WithContext returns a copy of ctx carrying rc.
func WithContext(ctx context.Context, rc *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// FromContext returns the request carried by ctx, if any.
func FromContext(ctx context.Context) (*Context, bool) {
	rc, ok := ctx.Value(ctxKey{}).(*Context)
	return rc, ok
}

// ID returns the request id.
func (c *Context) ID() string { return c.id }

// Alias returns the alias used to reach the command.
func (c *Context) Alias() string { return c.alias }

// Input returns the raw argument text.
func (c *Context) Input() string { return c.input }

// State returns the current lifecycle state.
func (c *Context) State() State { return State(c.state.Load()) }

// Command returns the matched command, or nil.
func (c *Context) Command() *command.Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.command
}

// Arguments returns the bound arguments, or nil before binding.
func (c *Context) Arguments() *binder.Arguments {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.args
}

// Result returns the stored result, or nil.
func (c *Context) Result() result.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Fault returns the error that faulted the request, or nil.
func (c *Context) Fault() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fault
}

// Service looks up a request-scoped dependency. The request itself is
// returned for command.Invocation.
func (c *Context) Service(t reflect.Type) (any, bool) {
	if t == invocationType {
		return c, true
	}
	if c.scope == nil {
		return nil, false
	}
	return c.scope.Lookup(t)
}

// SharedService looks up a dependency that outlives the request. Only
// container singletons are visible: scoped services and the request itself
// fail with services.ErrScopedService.
func (c *Context) SharedService(t reflect.Type) (any, error) {
	if t == invocationType {
		return nil, fmt.Errorf("%w: %s", services.ErrScopedService, t)
	}
	s, ok := c.scope.(sharedScope)
	if !ok {
		return nil, fmt.Errorf("%w: %s", services.ErrServiceNotFound, t)
	}
	return s.Shared(t)
}

// Set stores an item in the request bag.
func (c *Context) Set(key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
}

// Get returns an item from the request bag.
func (c *Context) Get(key any) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok
}

// Match attaches the matched command: NotMatched -> Matched.
func (c *Context) Match(cmd *command.Command) error {
	if err := c.transition(StateNotMatched, StateMatched); err != nil {
		return err
	}
	c.mu.Lock()
	c.command = cmd
	c.mu.Unlock()
	return nil
}

// Bind stores the bound arguments: Matched -> Bound.
func (c *Context) Bind(args *binder.Arguments) error {
	if err := c.transition(StateMatched, StateBound); err != nil {
		return err
	}
	c.mu.Lock()
	c.args = args
	c.mu.Unlock()
	return nil
}

// SetResult stores r and moves to Executed. A result may be stored straight
// from Matched (binding or precondition failures) and replaced once Executed.
func (c *Context) SetResult(r result.Result) error {
	for {
		cur := c.State()
		switch cur {
		case StateMatched, StateBound:
			if !c.state.CompareAndSwap(int32(cur), int32(StateExecuted)) {
				continue
			}
		case StateExecuted:
		default:
			return &TransitionError{From: cur, To: StateExecuted}
		}
		c.mu.Lock()
		c.result = r
		c.mu.Unlock()
		return nil
	}
}

// Complete marks the request finished: Executed -> Completed.
func (c *Context) Complete() error {
	return c.transition(StateExecuted, StateCompleted)
}

// Fail moves any non-terminal request to Faulted and records err.
// It returns false when the request had already reached a terminal state.
func (c *Context) Fail(err error) bool {
	for {
		cur := c.State()
		if cur.IsTerminal() {
			return false
		}
		if c.state.CompareAndSwap(int32(cur), int32(StateFaulted)) {
			c.mu.Lock()
			c.fault = err
			c.mu.Unlock()
			return true
		}
	}
}

func (c *Context) transition(from, to State) error {
	if !c.state.CompareAndSwap(int32(from), int32(to)) {
		return &TransitionError{From: c.State(), To: to}
	}
	return nil
}

// Track registers a per-request disposable (a module instance) for release
// when the request is closed.
func (c *Context) Track(v any) bool {
	return c.disposer.Track(v)
}

// Detach defers resource release to the returned func, for handlers that
// keep running after the pipeline returns. Close becomes a no-op.
func (c *Context) Detach() (release func(ctx context.Context) error) {
	c.mu.Lock()
	c.detached = true
	c.mu.Unlock()
	return c.release
}

// Close releases per-request disposables, then the dependency scope.
// It runs at most once; a detached request is released by its release func.
func (c *Context) Close(ctx context.Context) error {
	c.mu.Lock()
	detached := c.detached
	c.mu.Unlock()
	if detached {
		return nil
	}
	return c.release(ctx)
}

func (c *Context) release(ctx context.Context) error {
	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		return nil
	}
	c.released = true
	c.mu.Unlock()

	err := c.disposer.Close(ctx)
	if c.scope != nil {
		err = errors.Join(err, c.scope.Close(ctx))
	}
	return err
}
