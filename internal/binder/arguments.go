// SPDX-License-Identifier: MPL-2.0

package binder

import (
	"reflect"

	"github.com/MariBotOfficial/MariCommands-sub001/pkg/command"
)

type (
	// Argument is one bound parameter value.
	Argument struct {
		Parameter *command.Parameter
		Value     reflect.Value
	}

	// Arguments is the ordered parameter-to-value map produced by a bind.
	// It holds exactly one entry per declared parameter.
	Arguments struct {
		entries []Argument
	}
)

func newArguments(capacity int) *Arguments {
	return &Arguments{entries: make([]Argument, 0, capacity)}
}

func (a *Arguments) add(p *command.Parameter, v reflect.Value) {
	a.entries = append(a.entries, Argument{Parameter: p, Value: v})
}

// Len returns the number of bound parameters.
func (a *Arguments) Len() int {
	if a == nil {
		return 0
	}
	return len(a.entries)
}

// At returns the i-th bound argument in declared order.
func (a *Arguments) At(i int) Argument { return a.entries[i] }

// Get returns the bound value for the parameter named name.
func (a *Arguments) Get(name string) (any, bool) {
	if a == nil {
		return nil, false
	}
	for _, e := range a.entries {
		if e.Parameter.Name() == name {
			return e.Value.Interface(), true
		}
	}
	return nil, false
}

// Values returns the bound values in declared order.
func (a *Arguments) Values() []reflect.Value {
	if a == nil {
		return nil
	}
	out := make([]reflect.Value, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.Value
	}
	return out
}
