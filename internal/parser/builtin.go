// SPDX-License-Identifier: MPL-2.0

package parser

import (
	"context"
	"encoding"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"time"

	"github.com/MariBotOfficial/MariCommands-sub001/pkg/command"
)

var textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

type (
	// Primitive parses the string, bool, integer and float kinds, including
	// named types declared over them.
	Primitive struct{}

	// Text parses any type whose pointer implements encoding.TextUnmarshaler.
	Text struct{}
)

func registerBuiltins(r *Registry) {
	for _, t := range []reflect.Type{
		reflect.TypeFor[string](),
		reflect.TypeFor[bool](),
		reflect.TypeFor[int](),
		reflect.TypeFor[int8](),
		reflect.TypeFor[int16](),
		reflect.TypeFor[int32](),
		reflect.TypeFor[int64](),
		reflect.TypeFor[uint](),
		reflect.TypeFor[uint8](),
		reflect.TypeFor[uint16](),
		reflect.TypeFor[uint32](),
		reflect.TypeFor[uint64](),
		reflect.TypeFor[float32](),
		reflect.TypeFor[float64](),
	} {
		r.exact[t] = Primitive{}
	}
	r.exact[reflect.TypeFor[time.Duration]()] = Func(time.ParseDuration)
	r.exact[reflect.TypeFor[time.Time]()] = Func(parseTime)
	r.exact[reflect.TypeFor[*url.URL]()] = Func(url.Parse)
	r.exact[reflect.TypeFor[url.URL]()] = Func(func(raw string) (url.URL, error) {
		u, err := url.Parse(raw)
		if err != nil {
			return url.URL{}, err
		}
		return *u, nil
	})

	// Text goes first so named types with their own UnmarshalText win over
	// the kind-based fallback.
	r.inherited = append(r.inherited,
		inheritedEntry{parser: Text{}, accept: Text{}.CanParse},
		inheritedEntry{parser: Primitive{}, accept: Primitive{}.CanParse},
	)
}

func parseTime(raw string) (time.Time, error) {
	return time.Parse(time.RFC3339, raw)
}

// CanParse accepts every type whose kind is a primitive kind.
func (Primitive) CanParse(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// Parse converts raw into the parameter's target type by its kind.
func (Primitive) Parse(_ context.Context, raw string, param *command.Parameter) (any, error) {
	t := TargetType(param)
	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid bool value %q: %w", raw, err)
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(raw, 10, t.Bits())
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q: %w", t, raw, err)
		}
		v.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(raw, 10, t.Bits())
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q: %w", t, raw, err)
		}
		v.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, t.Bits())
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q: %w", t, raw, err)
		}
		v.SetFloat(f)
	default:
		return nil, fmt.Errorf("unsupported kind %s for %s", t.Kind(), t)
	}
	return v.Interface(), nil
}

// CanParse accepts non-pointer types whose pointer implements encoding.TextUnmarshaler.
func (Text) CanParse(t reflect.Type) bool {
	return t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(textUnmarshalerType)
}

// Parse calls UnmarshalText on a fresh value of the parameter's target type.
func (Text) Parse(_ context.Context, raw string, param *command.Parameter) (any, error) {
	t := TargetType(param)
	ptr := reflect.New(t)
	u, ok := ptr.Interface().(encoding.TextUnmarshaler)
	if !ok {
		return nil, fmt.Errorf("%s does not implement encoding.TextUnmarshaler", t)
	}
	if err := u.UnmarshalText([]byte(raw)); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}
