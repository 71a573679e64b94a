// SPDX-License-Identifier: MPL-2.0

package executor

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/MariBotOfficial/MariCommands-sub001/pkg/result"
)

var (
	// ErrNilDeferred is carried by the result of a deferred handler that
	// returned a nil channel or func.
	ErrNilDeferred = errors.New("deferred handler returned nil")

	// ErrNilResult is carried when a structured handler returns a nil Result.
	ErrNilResult = errors.New("handler returned a nil result")
)

// Invoke calls the handler with receiver (ignored unless the handler takes
// one) and the bound argument values, then adapts its outputs into a Result
// according to the selected shape. Panics propagate to the caller.
func (s *Strategy) Invoke(ctx context.Context, receiver reflect.Value, args []reflect.Value) result.Result {
	in := make([]reflect.Value, 0, len(args)+2)
	if s.hasReceiver {
		in = append(in, receiver)
	}
	if s.hasContext {
		if ctx == nil {
			ctx = context.Background()
		}
		in = append(in, reflect.ValueOf(&ctx).Elem())
	}
	in = append(in, args...)

	var out []reflect.Value
	if s.goVariadic {
		out = s.fn.CallSlice(in)
	} else {
		out = s.fn.Call(in)
	}

	switch s.shape {
	case ImmediateNothing:
		return result.FromError(trailingError(out))
	case ImmediateStructured:
		if err := trailingError(out[1:]); err != nil {
			return result.FromError(err)
		}
		return structured(out[0])
	case ImmediateValue:
		if err := trailingError(out[1:]); err != nil {
			return result.FromError(err)
		}
		return result.WithValue(out[0].Interface())
	default:
		v, ok, err := s.awaitDeferred(out[0])
		if err != nil {
			return result.FromError(err)
		}
		return s.adaptDeferred(v, ok)
	}
}

// awaitDeferred normalizes both deferred flavors into (value, received, error).
// For channels, received is false when the channel closed without a value.
func (s *Strategy) awaitDeferred(d reflect.Value) (reflect.Value, bool, error) {
	if d.IsNil() {
		return reflect.Value{}, false, ErrNilDeferred
	}
	if s.await == awaitChannel {
		v, ok := d.Recv()
		if ok && s.shape == DeferredNothing {
			return reflect.Value{}, true, asError(v)
		}
		return v, ok, nil
	}

	out := d.Call(nil)
	if s.shape == DeferredNothing {
		return reflect.Value{}, true, asError(out[0])
	}
	if err := asError(out[1]); err != nil {
		return reflect.Value{}, false, err
	}
	return out[0], true, nil
}

func (s *Strategy) adaptDeferred(v reflect.Value, received bool) result.Result {
	switch s.shape {
	case DeferredNothing:
		return result.Success()
	case DeferredStructured:
		if !received {
			return result.FromError(fmt.Errorf("%w: channel closed without a result", ErrNilResult))
		}
		return structured(v)
	default:
		if !received {
			return result.FromError(fmt.Errorf("%w: channel closed without a value", ErrNilResult))
		}
		return result.WithValue(v.Interface())
	}
}

func structured(v reflect.Value) result.Result {
	if (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) && v.IsNil() {
		return result.FromError(ErrNilResult)
	}
	r, ok := v.Interface().(result.Result)
	if !ok {
		return result.FromError(ErrNilResult)
	}
	return r
}

func trailingError(out []reflect.Value) error {
	if len(out) == 0 {
		return nil
	}
	return asError(out[len(out)-1])
}

func asError(v reflect.Value) error {
	if !v.IsValid() || v.IsNil() {
		return nil
	}
	err, _ := v.Interface().(error)
	return err
}
