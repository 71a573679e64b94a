// SPDX-License-Identifier: MPL-2.0

// Package executor classifies handler signatures once, at registration, into
// a closed set of invocation shapes and invokes handlers through them.
package executor

import (
	"context"
	"reflect"

	"github.com/MariBotOfficial/MariCommands-sub001/pkg/command"
	"github.com/MariBotOfficial/MariCommands-sub001/pkg/result"
)

const (
	// ImmediateNothing: () or (error).
	ImmediateNothing Shape = "immediate_nothing"
	// ImmediateStructured: (result.Result) or (result.Result, error).
	ImmediateStructured Shape = "immediate_structured"
	// ImmediateValue: (T) or (T, error).
	ImmediateValue Shape = "immediate_value"
	// DeferredNothing: (<-chan error) or (func() error).
	DeferredNothing Shape = "deferred_nothing"
	// DeferredStructured: (<-chan result.Result) or (func() (result.Result, error)).
	DeferredStructured Shape = "deferred_structured"
	// DeferredValue: (<-chan T) or (func() (T, error)).
	DeferredValue Shape = "deferred_value"
)

var (
	contextType = reflect.TypeFor[context.Context]()
	errorType   = reflect.TypeFor[error]()
	resultType  = reflect.TypeFor[result.Result]()
)

type (
	// Shape is the invocation adaptor tag selected for a handler.
	Shape string

	// awaitKind records how a deferred handler is awaited before its shared
	// deferred adaptor runs.
	awaitKind int

	// Strategy is the cached invocation plan of one command.
	Strategy struct {
		shape       Shape
		await       awaitKind
		fn          reflect.Value
		hasReceiver bool
		hasContext  bool
		goVariadic  bool
	}
)

const (
	awaitNone awaitKind = iota
	awaitChannel
	awaitThunk
)

// String returns the string representation of the Shape.
func (s Shape) String() string { return string(s) }

// IsDeferred reports whether the shape awaits a channel or thunk.
func (s Shape) IsDeferred() bool {
	return s == DeferredNothing || s == DeferredStructured || s == DeferredValue
}

// Select validates cmd's handler and classifies its return shape. Any
// signature outside the supported table is a ConfigurationError of kind
// InvalidCommandSignature.
func Select(cmd *command.Command) (*Strategy, error) {
	fn := cmd.Handler()
	if !fn.IsValid() || fn.Kind() != reflect.Func || fn.IsNil() {
		return nil, invalidSignature(cmd, "handler must be a non-nil func")
	}
	s := &Strategy{fn: fn}
	if err := s.classifyInputs(cmd); err != nil {
		return nil, err
	}
	if err := s.classifyOutputs(cmd); err != nil {
		return nil, err
	}
	return s, nil
}

// MustSelect is like Select but panics on error.
func MustSelect(cmd *command.Command) *Strategy {
	s, err := Select(cmd)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Strategy) classifyInputs(cmd *command.Command) error {
	ft := s.fn.Type()
	in := 0
	if m := cmd.Module(); m != nil {
		if ft.NumIn() == 0 || !m.Type().AssignableTo(ft.In(0)) {
			return invalidSignature(cmd, "module handler must take %s as its first input", m.Type())
		}
		s.hasReceiver = true
		in++
	}
	if in < ft.NumIn() && ft.In(in) == contextType {
		s.hasContext = true
		in++
	}

	params := cmd.Parameters()
	if got := ft.NumIn() - in; got != len(params) {
		return invalidSignature(cmd, "handler takes %d argument(s), command declares %d parameter(s)", got, len(params))
	}
	for i, p := range params {
		if !p.Type().AssignableTo(ft.In(in + i)) {
			return invalidSignature(cmd, "parameter %s is not assignable to handler input %s", p, ft.In(in+i))
		}
	}
	if ft.IsVariadic() {
		if len(params) == 0 || !params[len(params)-1].IsVariadic() {
			return invalidSignature(cmd, "variadic handler needs a variadic last parameter")
		}
		s.goVariadic = true
	}
	return nil
}

func (s *Strategy) classifyOutputs(cmd *command.Command) error {
	ft := s.fn.Type()
	switch ft.NumOut() {
	case 0:
		s.shape = ImmediateNothing
		return nil
	case 1:
		return s.classifySingle(cmd, ft.Out(0))
	case 2:
		first := ft.Out(0)
		if ft.Out(1) != errorType || first == errorType {
			return invalidSignature(cmd, "two-result handlers must return (T, error)")
		}
		switch {
		case first.Implements(resultType):
			s.shape = ImmediateStructured
		case first.Kind() == reflect.Chan, first.Kind() == reflect.Func:
			return invalidSignature(cmd, "deferred handlers must not return a trailing error")
		default:
			s.shape = ImmediateValue
		}
		return nil
	default:
		return invalidSignature(cmd, "handler returns %d results", ft.NumOut())
	}
}

func (s *Strategy) classifySingle(cmd *command.Command, out reflect.Type) error {
	switch {
	case out == errorType:
		s.shape = ImmediateNothing
	case out.Implements(resultType):
		s.shape = ImmediateStructured
	case out.Kind() == reflect.Chan:
		if out.ChanDir()&reflect.RecvDir == 0 {
			return invalidSignature(cmd, "deferred channel %s is send-only", out)
		}
		s.await = awaitChannel
		s.shape = deferredShape(out.Elem())
	case out.Kind() == reflect.Func:
		return s.classifyThunk(cmd, out)
	default:
		s.shape = ImmediateValue
	}
	return nil
}

func (s *Strategy) classifyThunk(cmd *command.Command, thunk reflect.Type) error {
	if thunk.NumIn() != 0 || thunk.IsVariadic() {
		return invalidSignature(cmd, "deferred func %s must take no arguments", thunk)
	}
	s.await = awaitThunk
	switch {
	case thunk.NumOut() == 1 && thunk.Out(0) == errorType:
		s.shape = DeferredNothing
	case thunk.NumOut() == 2 && thunk.Out(1) == errorType && thunk.Out(0) != errorType:
		s.shape = deferredShape(thunk.Out(0))
	default:
		return invalidSignature(cmd, "deferred func %s must return error or (T, error)", thunk)
	}
	return nil
}

func deferredShape(elem reflect.Type) Shape {
	switch {
	case elem == errorType:
		return DeferredNothing
	case elem.Implements(resultType):
		return DeferredStructured
	default:
		return DeferredValue
	}
}

func invalidSignature(cmd *command.Command, format string, args ...any) error {
	return command.NewConfigurationError(command.InvalidCommandSignature, cmd.Name(), format, args...)
}

// Shape returns the selected adaptor tag.
func (s *Strategy) Shape() Shape { return s.shape }

// HasReceiver reports whether the handler takes a module instance first.
func (s *Strategy) HasReceiver() bool { return s.hasReceiver }

// HasContext reports whether the handler takes a context.Context.
func (s *Strategy) HasContext() bool { return s.hasContext }
