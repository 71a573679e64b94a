// SPDX-License-Identifier: MPL-2.0

// Package binder binds raw argument text to a command's declared parameters.
package binder

import (
	"context"
	"reflect"
	"strings"

	"github.com/MariBotOfficial/MariCommands-sub001/internal/parser"
	"github.com/MariBotOfficial/MariCommands-sub001/pkg/command"
	"github.com/MariBotOfficial/MariCommands-sub001/pkg/result"
)

// Binder turns raw text into bound Arguments. It is stateless per call and
// safe for concurrent use once its registry is frozen.
type Binder struct {
	registry  *parser.Registry
	tokenizer Tokenizer
}

// New creates a Binder. A nil tokenizer splits on a single space.
func New(registry *parser.Registry, tokenizer Tokenizer) *Binder {
	if tokenizer == nil {
		tokenizer = SeparatorTokenizer{Separator: DefaultSeparator}
	}
	return &Binder{registry: registry, tokenizer: tokenizer}
}

// Tokenizer returns the configured tokenizer.
func (b *Binder) Tokenizer() Tokenizer { return b.tokenizer }

// Bind binds raw to cmd's parameters. On success it returns the arguments
// and a nil result; otherwise it returns nil and the first failure in
// declared parameter order. Binding never partially succeeds.
func (b *Binder) Bind(ctx context.Context, raw string, cmd *command.Command, ignoreExtra bool) (*Arguments, result.Result) {
	n := cmd.NumParameters()
	if n == 0 {
		return newArguments(0), nil
	}

	tokens, err := b.tokenizer.Tokenize(raw)
	if err != nil {
		return nil, result.Fail(result.CodeMalformedInput, "%v", err)
	}

	args := newArguments(n)
	cursor := 0
	for i := range n {
		p := cmd.Parameter(i)
		last := i == n-1
		remaining := len(tokens) - cursor

		var (
			v    reflect.Value
			fail result.Result
		)
		switch {
		case remaining == 0 && p.IsOptional():
			v, fail = defaultValue(p)
		case last && p.IsRemainder():
			v, fail = b.bindOne(ctx, p, b.tokenizer.Join(tokens[cursor:]), true)
			cursor = len(tokens)
		case last && p.IsVariadic():
			v, fail = b.bindVariadic(ctx, p, tokens[cursor:])
			cursor = len(tokens)
		case remaining > 0:
			v, fail = b.bindOne(ctx, p, tokens[cursor], true)
			cursor++
		default:
			v, fail = b.bindOne(ctx, p, "", false)
		}
		if fail != nil {
			return nil, fail
		}
		args.add(p, v)
	}

	if cursor < len(tokens) && !ignoreExtra {
		return nil, &result.TooManyArguments{Consumed: cursor, Got: len(tokens)}
	}
	return args, nil
}

// bindOne resolves p's parser and parses raw. present is false when no token
// was available for a required parameter.
func (b *Binder) bindOne(ctx context.Context, p *command.Parameter, raw string, present bool) (reflect.Value, result.Result) {
	tp, ok := b.registry.ResolveFor(p)
	if !ok {
		return reflect.Value{}, &result.MissingTypeParser{Parameter: p}
	}
	if !present && !parser.IsNullable(tp) {
		return reflect.Value{}, &result.TypeParseFailed{Parameter: p, Token: raw}
	}
	return parseToken(ctx, tp, p, raw, p.Type())
}

// bindVariadic parses each token with the element parser. Without tokens the
// value is an empty sequence and no parser is resolved.
func (b *Binder) bindVariadic(ctx context.Context, p *command.Parameter, tokens []string) (reflect.Value, result.Result) {
	if len(tokens) == 0 {
		return reflect.MakeSlice(p.Type(), 0, 0), nil
	}
	tp, ok := b.registry.ResolveFor(p)
	if !ok {
		return reflect.Value{}, &result.MissingTypeParser{Parameter: p}
	}
	out := reflect.MakeSlice(p.Type(), 0, len(tokens))
	elem := p.ElementType()
	for _, tok := range tokens {
		v, fail := parseToken(ctx, tp, p, tok, elem)
		if fail != nil {
			return reflect.Value{}, fail
		}
		out = reflect.Append(out, v)
	}
	return out, nil
}

func parseToken(ctx context.Context, tp command.TypeParser, p *command.Parameter, raw string, typ reflect.Type) (reflect.Value, result.Result) {
	if parser.IsNullable(tp) && strings.TrimSpace(raw) == "" {
		return reflect.Zero(typ), nil
	}
	parsed, err := tp.Parse(ctx, raw, p)
	if err != nil {
		return reflect.Value{}, &result.TypeParseFailed{Parameter: p, Token: raw, Cause: err}
	}
	v, err := command.Coerce(parsed, typ)
	if err != nil {
		return reflect.Value{}, &result.TypeParseFailed{Parameter: p, Token: raw, Cause: err}
	}
	return v, nil
}

func defaultValue(p *command.Parameter) (reflect.Value, result.Result) {
	def, _ := p.Default()
	v, err := command.Coerce(def, p.Type())
	if err != nil {
		// unreachable for parameters validated by Builder.Build
		return reflect.Value{}, &result.TypeParseFailed{Parameter: p, Cause: err}
	}
	return v, nil
}
