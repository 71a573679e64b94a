// SPDX-License-Identifier: MPL-2.0

package result

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/MariBotOfficial/MariCommands-sub001/pkg/command"
)

func TestResultVariants(t *testing.T) {
	t.Parallel()

	param := command.NewParameter[int]("count")
	tests := []struct {
		name        string
		result      Result
		wantSuccess bool
		wantCode    Code
		wantReason  string
	}{
		{name: "success", result: Success(), wantSuccess: true, wantCode: CodeOK},
		{name: "object", result: WithValue(42), wantSuccess: true, wantCode: CodeOK},
		{name: "failure", result: Fail(CodeCommandNotFound, "no command %q", "x"), wantCode: CodeCommandNotFound, wantReason: `no command "x"`},
		{name: "failure without code", result: &Failure{Message: "nope"}, wantCode: CodeFailed, wantReason: "nope"},
		{name: "exception", result: FromError(errors.New("boom")), wantCode: CodeException, wantReason: "boom"},
		{name: "missing parser", result: &MissingTypeParser{Parameter: param}, wantCode: CodeMissingTypeParser, wantReason: "count:int"},
		{name: "parse failed", result: &TypeParseFailed{Parameter: param, Token: "x"}, wantCode: CodeTypeParseFailed, wantReason: `"x"`},
		{name: "missing token", result: &TypeParseFailed{Parameter: param}, wantCode: CodeTypeParseFailed, wantReason: "missing value"},
		{name: "too many", result: &TooManyArguments{Consumed: 1, Got: 3}, wantCode: CodeTooManyArguments, wantReason: "3 given"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.result.Success(); got != tt.wantSuccess {
				t.Errorf("Success() = %v, want %v", got, tt.wantSuccess)
			}
			if got := tt.result.Code(); got != tt.wantCode {
				t.Errorf("Code() = %q, want %q", got, tt.wantCode)
			}
			if !strings.Contains(tt.result.Reason(), tt.wantReason) {
				t.Errorf("Reason() = %q, want it to contain %q", tt.result.Reason(), tt.wantReason)
			}
		})
	}
}

func TestFromErrorNil(t *testing.T) {
	t.Parallel()

	if r := FromError(nil); !r.Success() {
		t.Errorf("FromError(nil) = %v, want success", r)
	}
}

func TestValue(t *testing.T) {
	t.Parallel()

	v, ok := Value(WithValue(strconv.Itoa(42)))
	if !ok || v != "42" {
		t.Errorf("Value() = %v, %v; want \"42\", true", v, ok)
	}
	if _, ok := Value(Success()); ok {
		t.Error("Value(Success()) reported a payload")
	}
}

func TestAsError(t *testing.T) {
	t.Parallel()

	if err := AsError(Success()); err != nil {
		t.Errorf("AsError(Success()) = %v, want nil", err)
	}

	cause := errors.New("disk full")
	err := AsError(FromError(cause))
	if !errors.Is(err, ErrFailed) {
		t.Errorf("error does not wrap ErrFailed: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("error does not wrap the handler error: %v", err)
	}

	err = AsError(&TooManyArguments{Consumed: 0, Got: 2})
	if !errors.Is(err, ErrFailed) {
		t.Errorf("error does not wrap ErrFailed: %v", err)
	}
	if !strings.HasPrefix(err.Error(), string(CodeTooManyArguments)) {
		t.Errorf("Error() = %q, want code prefix", err.Error())
	}
}

func TestText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		r    Result
		want string
	}{
		{name: "nil", r: nil, want: ""},
		{name: "ok", r: Success(), want: ""},
		{name: "object", r: WithValue(42), want: "42"},
		{name: "nil object", r: WithValue(nil), want: ""},
		{name: "scheduled", r: Scheduled{}, want: "scheduled"},
		{name: "failure", r: Fail(CodeCommandNotFound, "unknown command %q", "x"), want: `command_not_found: unknown command "x"`},
		{name: "too many", r: &TooManyArguments{Consumed: 1, Got: 3}, want: "too_many_arguments: too many arguments: 3 given, 1 used"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Text(tt.r); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}
