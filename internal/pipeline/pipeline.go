// SPDX-License-Identifier: MPL-2.0

// Package pipeline composes middleware components around a terminal
// completeness check into a single dispatch function.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MariBotOfficial/MariCommands-sub001/internal/request"
)

const (
	// MissingCommand means the chain finished without a matched command.
	MissingCommand Missing = "command"
	// MissingResult means a command was matched but no result was produced.
	MissingResult Missing = "result"
)

var (
	// ErrPipelineIncomplete is the sentinel wrapped by PipelineIncompleteError.
	ErrPipelineIncomplete = errors.New("pipeline incomplete")

	// ErrAlreadyBuilt is returned by Build when called a second time.
	ErrAlreadyBuilt = errors.New("pipeline already built")
)

type (
	// DispatchFunc processes one request.
	DispatchFunc func(ctx context.Context, rc *request.Context) error

	// Component wraps next with pre- and post-logic. It is called once, at
	// Build time; the DispatchFunc it returns runs per request. A component
	// may return without calling next to short-circuit the inner chain.
	Component func(next DispatchFunc) DispatchFunc

	// Missing names what the terminal check did not find.
	Missing string

	// PipelineIncompleteError is the structural fault raised by the terminal
	// check. It wraps ErrPipelineIncomplete for errors.Is() compatibility.
	PipelineIncompleteError struct {
		Missing Missing
	}

	// Builder collects components in registration order.
	Builder struct {
		mu         sync.Mutex
		components []Component
		built      bool
	}
)

// Error implements the error interface.
func (e *PipelineIncompleteError) Error() string {
	return fmt.Sprintf("pipeline incomplete: missing %s", e.Missing)
}

// Unwrap returns ErrPipelineIncomplete.
func (e *PipelineIncompleteError) Unwrap() error { return ErrPipelineIncomplete }

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Use appends a component. It panics after Build, like registering a route
// on a running mux.
func (b *Builder) Use(c Component) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.built {
		panic("pipeline: Use called after Build")
	}
	b.components = append(b.components, c)
	return b
}

// UseFunc appends a component written as a single function that receives next.
func (b *Builder) UseFunc(fn func(ctx context.Context, rc *request.Context, next DispatchFunc) error) *Builder {
	return b.Use(func(next DispatchFunc) DispatchFunc {
		return func(ctx context.Context, rc *request.Context) error {
			return fn(ctx, rc, next)
		}
	})
}

// Len returns the number of registered components.
func (b *Builder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.components)
}

// Build composes the components onion style: the first registered runs its
// pre-logic first and its post-logic last. Each component factory is invoked
// exactly once here. Build may be called only once per builder.
func (b *Builder) Build() (DispatchFunc, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.built {
		return nil, ErrAlreadyBuilt
	}
	b.built = true

	h := DispatchFunc(terminal)
	for i := len(b.components) - 1; i >= 0; i-- {
		h = b.components[i](h)
	}
	return h, nil
}

func terminal(_ context.Context, rc *request.Context) error {
	if rc.Command() == nil {
		return &PipelineIncompleteError{Missing: MissingCommand}
	}
	if rc.Result() == nil {
		return &PipelineIncompleteError{Missing: MissingResult}
	}
	return nil
}
