// SPDX-License-Identifier: MPL-2.0

package parser

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/MariBotOfficial/MariCommands-sub001/pkg/command"
)

type (
	// pointerParser is synthesized for *U when only U has a parser.
	pointerParser struct {
		elem  reflect.Type
		inner command.TypeParser
	}

	// nullableParser short-circuits empty input for reference-like kinds.
	nullableParser struct {
		inner command.TypeParser
	}

	funcParser[T any] struct {
		fn func(raw string) (T, error)
	}
)

// Func adapts a parse function into a TypeParser for exactly type T.
func Func[T any](fn func(raw string) (T, error)) command.TypeParser {
	return funcParser[T]{fn: fn}
}

func (p funcParser[T]) CanParse(t reflect.Type) bool { return t == reflect.TypeFor[T]() }

func (p funcParser[T]) Parse(_ context.Context, raw string, _ *command.Parameter) (any, error) {
	v, err := p.fn(raw)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (p *pointerParser) CanParse(t reflect.Type) bool {
	return t.Kind() == reflect.Pointer && t.Elem() == p.elem
}

func (p *pointerParser) Nullable() bool { return true }

func (p *pointerParser) Parse(ctx context.Context, raw string, param *command.Parameter) (any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	v, err := p.inner.Parse(ctx, raw, param)
	if err != nil || v == nil {
		return nil, err
	}
	rv, err := command.Coerce(v, p.elem)
	if err != nil {
		return nil, fmt.Errorf("parser for %s: %w", p.elem, err)
	}
	ptr := reflect.New(p.elem)
	ptr.Elem().Set(rv)
	return ptr.Interface(), nil
}

func (p *nullableParser) CanParse(t reflect.Type) bool { return p.inner.CanParse(t) }

func (p *nullableParser) Nullable() bool { return true }

func (p *nullableParser) Parse(ctx context.Context, raw string, param *command.Parameter) (any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	return p.inner.Parse(ctx, raw, param)
}
