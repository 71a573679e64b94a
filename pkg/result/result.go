// SPDX-License-Identifier: MPL-2.0

// Package result defines the uniform envelope every command invocation
// yields, independent of the handler's native return shape.
package result

import (
	"errors"
	"fmt"

	"github.com/MariBotOfficial/MariCommands-sub001/pkg/command"
)

const (
	// CodeOK marks a plain success.
	CodeOK Code = "ok"
	// CodeScheduled marks a handler handed off in concurrent run mode.
	CodeScheduled Code = "scheduled"
	// CodeFailed is a generic failure reported by a handler.
	CodeFailed Code = "failed"
	// CodeMissingTypeParser means no parser could be resolved for a parameter.
	CodeMissingTypeParser Code = "missing_type_parser"
	// CodeTypeParseFailed means a parser rejected a token.
	CodeTypeParseFailed Code = "type_parse_failed"
	// CodeTooManyArguments means tokens were left after the last parameter.
	CodeTooManyArguments Code = "too_many_arguments"
	// CodeCommandNotFound means no command matched the alias.
	CodeCommandNotFound Code = "command_not_found"
	// CodeAmbiguousMatch means several commands matched and the policy forbids choosing.
	CodeAmbiguousMatch Code = "ambiguous_match"
	// CodePreconditionFailed means a precondition rejected the request.
	CodePreconditionFailed Code = "precondition_failed"
	// CodeMalformedInput means the raw text could not be tokenized.
	CodeMalformedInput Code = "malformed_input"
	// CodeException means the handler returned an error or panicked.
	CodeException Code = "exception"
)

// ErrFailed is the sentinel wrapped by errors produced from failed results.
var ErrFailed = errors.New("command failed")

type (
	// Code classifies a Result.
	Code string

	// Result is the uniform envelope. Success reports whether the invocation
	// succeeded; Reason is a human-readable explanation for failures.
	Result interface {
		Success() bool
		Code() Code
		Reason() string
	}

	// Ok is a plain success without payload.
	Ok struct{}

	// Object is a success carrying the handler's value.
	Object struct {
		Value any
	}

	// Scheduled is stored when a handler was handed off without waiting
	// for it. The handler's own result is delivered out of band.
	Scheduled struct{}

	// Failure is a generic failure with a code and message.
	Failure struct {
		FailureCode Code
		Message     string
	}

	// Exception carries an error returned by (or recovered from) a handler.
	Exception struct {
		Err error
	}

	// MissingTypeParser reports a parameter whose type has no parser.
	MissingTypeParser struct {
		Parameter *command.Parameter
	}

	// TypeParseFailed reports the parameter and raw token a parser rejected.
	TypeParseFailed struct {
		Parameter *command.Parameter
		Token     string
		Cause     error
	}

	// TooManyArguments reports tokens left over after binding.
	TooManyArguments struct {
		Consumed int
		Got      int
	}

	// Error adapts a failed Result to the error interface.
	Error struct {
		Result Result
	}
)

// Success returns the plain success result.
func Success() Result { return Ok{} }

// WithValue returns a success carrying v.
func WithValue(v any) Result { return &Object{Value: v} }

// Fail returns a failure with the given code and message.
func Fail(code Code, format string, args ...any) Result {
	return &Failure{FailureCode: code, Message: fmt.Sprintf(format, args...)}
}

// FromError returns an Exception for err, or Success when err is nil.
func FromError(err error) Result {
	if err == nil {
		return Success()
	}
	return &Exception{Err: err}
}

// Success implements Result.
func (Ok) Success() bool { return true }

// Code implements Result.
func (Ok) Code() Code { return CodeOK }

// Reason implements Result.
func (Ok) Reason() string { return "" }

// Success implements Result.
func (Scheduled) Success() bool { return true }

// Code implements Result.
func (Scheduled) Code() Code { return CodeScheduled }

// Reason implements Result.
func (Scheduled) Reason() string { return "" }

// Success implements Result.
func (*Object) Success() bool { return true }

// Code implements Result.
func (*Object) Code() Code { return CodeOK }

// Reason implements Result.
func (*Object) Reason() string { return "" }

// Success implements Result.
func (*Failure) Success() bool { return false }

// Code implements Result.
func (f *Failure) Code() Code {
	if f.FailureCode == "" {
		return CodeFailed
	}
	return f.FailureCode
}

// Reason implements Result.
func (f *Failure) Reason() string { return f.Message }

// Success implements Result.
func (*Exception) Success() bool { return false }

// Code implements Result.
func (*Exception) Code() Code { return CodeException }

// Reason implements Result.
func (e *Exception) Reason() string {
	if e.Err == nil {
		return "unknown error"
	}
	return e.Err.Error()
}

// Unwrap returns the carried error.
func (e *Exception) Unwrap() error { return e.Err }

// Success implements Result.
func (*MissingTypeParser) Success() bool { return false }

// Code implements Result.
func (*MissingTypeParser) Code() Code { return CodeMissingTypeParser }

// Reason implements Result.
func (m *MissingTypeParser) Reason() string {
	return fmt.Sprintf("no type parser for parameter %s", m.Parameter)
}

// Success implements Result.
func (*TypeParseFailed) Success() bool { return false }

// Code implements Result.
func (*TypeParseFailed) Code() Code { return CodeTypeParseFailed }

// Reason implements Result.
func (p *TypeParseFailed) Reason() string {
	msg := fmt.Sprintf("cannot parse %q for parameter %s", p.Token, p.Parameter)
	if p.Token == "" {
		msg = fmt.Sprintf("missing value for parameter %s", p.Parameter)
	}
	if p.Cause != nil {
		msg += ": " + p.Cause.Error()
	}
	return msg
}

// Unwrap returns the parser's error.
func (p *TypeParseFailed) Unwrap() error { return p.Cause }

// Success implements Result.
func (*TooManyArguments) Success() bool { return false }

// Code implements Result.
func (*TooManyArguments) Code() Code { return CodeTooManyArguments }

// Reason implements Result.
func (t *TooManyArguments) Reason() string {
	return fmt.Sprintf("too many arguments: %d given, %d used", t.Got, t.Consumed)
}

// Value returns the payload of an Object result.
func Value(r Result) (any, bool) {
	if o, ok := r.(*Object); ok {
		return o.Value, true
	}
	return nil, false
}

// AsError converts a failed result into an error; it returns nil for
// successes. Exceptions keep their carried error in the chain.
func AsError(r Result) error {
	if r == nil || r.Success() {
		return nil
	}
	return &Error{Result: r}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Result.Code(), e.Result.Reason())
}

// Unwrap exposes the carried error for exceptions and parse failures, and
// ErrFailed otherwise.
func (e *Error) Unwrap() []error {
	errs := []error{ErrFailed}
	if u, ok := e.Result.(interface{ Unwrap() error }); ok && u.Unwrap() != nil {
		errs = append(errs, u.Unwrap())
	}
	return errs
}

// Text renders r as a single line for terminals: the payload of an Object,
// "scheduled" for a hand-off, "code: reason" for failures and "" for Ok.
func Text(r Result) string {
	switch v := r.(type) {
	case nil, Ok:
		return ""
	case *Object:
		if v.Value == nil {
			return ""
		}
		return fmt.Sprint(v.Value)
	case Scheduled:
		return string(CodeScheduled)
	default:
		if r.Success() {
			return ""
		}
		return fmt.Sprintf("%s: %s", r.Code(), r.Reason())
	}
}
