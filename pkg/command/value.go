// SPDX-License-Identifier: MPL-2.0

package command

import (
	"fmt"
	"math"
	"reflect"
)

// Coerce converts v into a reflect.Value of type t. A nil v yields the zero
// value of t. Conversion is only attempted between types of the same kind
// family, so an int never silently becomes a one-rune string. Numbers are
// converted only when the value survives unchanged: no overflow, no sign
// change and no dropped fraction.
func Coerce(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		out := reflect.New(t).Elem()
		out.Set(rv)
		return out, nil
	}
	if !sameFamily(rv.Kind(), t.Kind()) || !rv.Type().ConvertibleTo(t) {
		return reflect.Value{}, fmt.Errorf("value of type %s is not assignable to %s", rv.Type(), t)
	}
	if family(t.Kind()) != familyNumber {
		return rv.Convert(t), nil
	}
	out := reflect.New(t).Elem()
	if !setNumber(out, rv) {
		return reflect.Value{}, fmt.Errorf("value %v of type %s does not fit %s", v, rv.Type(), t)
	}
	return out, nil
}

const (
	// 2^63 and 2^64, exactly representable as float64.
	twoTo63 = float64(1 << 63)
	twoTo64 = 2 * twoTo63
)

// setNumber stores the numeric value of src in dst and reports whether it
// did so without loss.
func setNumber(dst, src reflect.Value) bool {
	switch {
	case isInt(src.Kind()):
		n := src.Int()
		switch {
		case isInt(dst.Kind()):
			if dst.OverflowInt(n) {
				return false
			}
			dst.SetInt(n)
		case isUint(dst.Kind()):
			if n < 0 || dst.OverflowUint(uint64(n)) {
				return false
			}
			dst.SetUint(uint64(n))
		default:
			dst.SetFloat(float64(n))
			f := dst.Float()
			return f >= -twoTo63 && f < twoTo63 && int64(f) == n
		}
	case isUint(src.Kind()):
		u := src.Uint()
		switch {
		case isInt(dst.Kind()):
			if u > math.MaxInt64 || dst.OverflowInt(int64(u)) {
				return false
			}
			dst.SetInt(int64(u))
		case isUint(dst.Kind()):
			if dst.OverflowUint(u) {
				return false
			}
			dst.SetUint(u)
		default:
			dst.SetFloat(float64(u))
			f := dst.Float()
			return f < twoTo64 && uint64(f) == u
		}
	default:
		f := src.Float()
		switch {
		case isInt(dst.Kind()):
			if f != math.Trunc(f) || f < -twoTo63 || f >= twoTo63 || dst.OverflowInt(int64(f)) {
				return false
			}
			dst.SetInt(int64(f))
		case isUint(dst.Kind()):
			if f != math.Trunc(f) || f < 0 || f >= twoTo64 || dst.OverflowUint(uint64(f)) {
				return false
			}
			dst.SetUint(uint64(f))
		default:
			if dst.OverflowFloat(f) {
				return false
			}
			dst.SetFloat(f)
		}
	}
	return true
}

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

// IsNullableKind reports whether the zero value of t means "no value":
// pointers and the reference-like kinds.
func IsNullableKind(t reflect.Type) bool {
	return t.Kind() == reflect.Pointer || IsReferenceKind(t)
}

// IsReferenceKind reports whether t is a reference-like type (interface,
// map, slice, func or chan).
func IsReferenceKind(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	default:
		return false
	}
}

func sameFamily(a, b reflect.Kind) bool {
	fa, fb := family(a), family(b)
	return fa != 0 && fa == fb
}

const familyNumber = 1

func family(k reflect.Kind) int {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return familyNumber
	case reflect.String:
		return 2
	case reflect.Bool:
		return 3
	case reflect.Slice:
		return 4
	case reflect.Map:
		return 5
	default:
		return 0
	}
}
