// SPDX-License-Identifier: MPL-2.0

package command

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

type (
	greeter struct {
		ModuleBase
		greeting string
	}

	counter int
)

func TestNewModule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		create  func() (*Module, error)
		wantErr bool
	}{
		{
			name:   "pointer to struct without constructor",
			create: func() (*Module, error) { return NewModule[*greeter]("greeter") },
		},
		{
			name: "constructor returning value and error",
			create: func() (*Module, error) {
				return NewModule[*greeter]("greeter", WithConstructor(func(s string) (*greeter, error) {
					return &greeter{greeting: s}, nil
				}), WithLifetime(LifetimeSingleton))
			},
		},
		{
			name:    "non struct without constructor",
			create:  func() (*Module, error) { return NewModule[counter]("counter") },
			wantErr: true,
		},
		{
			name:    "empty name",
			create:  func() (*Module, error) { return NewModule[*greeter]("") },
			wantErr: true,
		},
		{
			name: "constructor with wrong second result",
			create: func() (*Module, error) {
				return NewModule[*greeter]("greeter", WithConstructor(func() (*greeter, int) { return nil, 0 }))
			},
			wantErr: true,
		},
		{
			name: "constructor returning unrelated type",
			create: func() (*Module, error) {
				return NewModule[*greeter]("greeter", WithConstructor(func() counter { return 0 }))
			},
			wantErr: true,
		},
		{
			name:    "invalid lifetime",
			create:  func() (*Module, error) { return NewModule[*greeter]("greeter", WithLifetime("forever")) },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, err := tt.create()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, ErrConfiguration) {
					t.Errorf("error does not wrap ErrConfiguration: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m.Type() != reflect.TypeFor[*greeter]() {
				t.Errorf("Type() = %s", m.Type())
			}
		})
	}
}

func TestModuleBaseSatisfiesInvocationAware(t *testing.T) {
	t.Parallel()

	var g any = &greeter{}
	if _, ok := g.(InvocationAware); !ok {
		t.Fatal("*greeter embedding ModuleBase does not implement InvocationAware")
	}
}

func TestParameterIsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		param     *Parameter
		wantValid bool
	}{
		{name: "plain", param: NewParameter[string]("s"), wantValid: true},
		{name: "int default from untyped constant", param: NewParameter[int64]("n", Default(5)), wantValid: true},
		{name: "nil default", param: NewParameter[*int]("p", Default(nil)), wantValid: true},
		{name: "variadic slice", param: NewParameter[[]int]("v", Variadic()), wantValid: true},
		{name: "variadic non slice", param: NewParameter[int]("v", Variadic()), wantValid: false},
		{name: "remainder and variadic", param: NewParameter[[]string]("v", Variadic(), Remainder()), wantValid: false},
		{name: "empty name", param: NewParameter[int](""), wantValid: false},
		{name: "nil type", param: NewParameterOf("x", nil), wantValid: false},
		{name: "bool default for string", param: NewParameter[string]("s", Default(true)), wantValid: false},
		{name: "negative default for uint", param: NewParameter[uint]("u", Default(-1)), wantValid: false},
		{name: "fractional default for int", param: NewParameter[int]("n", Default(2.9)), wantValid: false},
		{name: "whole float default for int", param: NewParameter[int]("n", Default(3.0)), wantValid: true},
		{name: "overflowing default for uint8", param: NewParameter[uint8]("b", Default(300)), wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ok, errs := tt.param.IsValid()
			if ok != tt.wantValid {
				t.Errorf("IsValid() = %v, want %v (errs: %v)", ok, tt.wantValid, errs)
			}
			if !ok && len(errs) == 0 {
				t.Error("IsValid() returned false without errors")
			}
		})
	}
}

func TestParameterElementType(t *testing.T) {
	t.Parallel()

	v := NewParameter[[]int]("v", Variadic())
	if got := v.ElementType(); got != reflect.TypeFor[int]() {
		t.Errorf("variadic ElementType() = %s, want int", got)
	}
	s := NewParameter[[]int]("s")
	if got := s.ElementType(); got != reflect.TypeFor[[]int]() {
		t.Errorf("plain ElementType() = %s, want []int", got)
	}
}

func TestCoerce(t *testing.T) {
	t.Parallel()

	got, err := Coerce(7, reflect.TypeFor[uint8]())
	if err != nil {
		t.Fatalf("Coerce(7, uint8) error: %v", err)
	}
	if got.Uint() != 7 {
		t.Errorf("Coerce(7, uint8) = %v", got)
	}

	if _, err := Coerce(65, reflect.TypeFor[string]()); err == nil {
		t.Error("Coerce(65, string) expected error")
	}

	zero, err := Coerce(nil, reflect.TypeFor[[]string]())
	if err != nil || !zero.IsNil() {
		t.Errorf("Coerce(nil, []string) = %v, %v; want nil slice", zero, err)
	}
}

func TestCoerceNumbers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   any
		typ     reflect.Type
		want    any
		wantErr bool
	}{
		{name: "int to int8", value: 127, typ: reflect.TypeFor[int8](), want: int8(127)},
		{name: "int overflows int8", value: 128, typ: reflect.TypeFor[int8](), wantErr: true},
		{name: "int to uint", value: 42, typ: reflect.TypeFor[uint](), want: uint(42)},
		{name: "negative int to uint", value: -1, typ: reflect.TypeFor[uint](), wantErr: true},
		{name: "int overflows uint8", value: 300, typ: reflect.TypeFor[uint8](), wantErr: true},
		{name: "max uint64 to int64", value: uint64(math.MaxUint64), typ: reflect.TypeFor[int64](), wantErr: true},
		{name: "uint to int", value: uint(9), typ: reflect.TypeFor[int](), want: 9},
		{name: "whole float to int", value: 3.0, typ: reflect.TypeFor[int](), want: 3},
		{name: "fractional float to int", value: 2.9, typ: reflect.TypeFor[int](), wantErr: true},
		{name: "negative float to uint", value: -2.0, typ: reflect.TypeFor[uint](), wantErr: true},
		{name: "NaN to int", value: math.NaN(), typ: reflect.TypeFor[int](), wantErr: true},
		{name: "infinity to int64", value: math.Inf(1), typ: reflect.TypeFor[int64](), wantErr: true},
		{name: "float64 overflows float32", value: math.MaxFloat64, typ: reflect.TypeFor[float32](), wantErr: true},
		{name: "int to float64", value: 5, typ: reflect.TypeFor[float64](), want: 5.0},
		{name: "large int loses precision in float32", value: 1<<24 + 1, typ: reflect.TypeFor[float32](), wantErr: true},
		{name: "int to named int", value: 4, typ: reflect.TypeFor[counter](), want: counter(4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Coerce(tt.value, tt.typ)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Coerce(%v, %s) = %v, want error", tt.value, tt.typ, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Coerce(%v, %s) error: %v", tt.value, tt.typ, err)
			}
			if got.Interface() != tt.want {
				t.Errorf("Coerce(%v, %s) = %v, want %v", tt.value, tt.typ, got.Interface(), tt.want)
			}
		})
	}
}
