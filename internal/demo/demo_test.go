// SPDX-License-Identifier: MPL-2.0

package demo

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/MariBotOfficial/MariCommands-sub001/internal/engine"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/request"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/testutil"
	"github.com/MariBotOfficial/MariCommands-sub001/pkg/result"
)

var nineAM = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

func newEngine(t *testing.T, opts ...engine.Option) *engine.Engine {
	t.Helper()
	return newEngineWithClock(t, testutil.NewFakeClock(nineAM), opts...)
}

func newEngineWithClock(t *testing.T, clock Clock, opts ...engine.Option) *engine.Engine {
	t.Helper()

	opts = append([]engine.Option{engine.WithLogger(log.New(&bytes.Buffer{}))}, opts...)
	e, err := engine.New(opts...)
	if err != nil {
		t.Fatalf("engine.New() error: %v", err)
	}
	if err := Register(e, clock); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if err := e.Build(); err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	t.Cleanup(func() { _ = e.Close(context.Background()) })
	return e
}

func dispatch(t *testing.T, e *engine.Engine, line string) result.Result {
	t.Helper()

	r, err := e.DispatchLine(context.Background(), line)
	if err != nil {
		t.Fatalf("DispatchLine(%q) error: %v", line, err)
	}
	return r
}

func TestCommands(t *testing.T) {
	t.Parallel()

	e := newEngine(t)

	tests := []struct {
		line     string
		wantCode result.Code
		want     string
	}{
		{line: "ping", wantCode: result.CodeOK, want: "pong"},
		{line: "echo hello world", wantCode: result.CodeOK, want: "hello world"},
		{line: "echo", wantCode: result.CodeOK, want: ""},
		{line: "title hello there", wantCode: result.CodeOK, want: "Hello There"},
		{line: "sum 1 2", wantCode: result.CodeOK, want: "3"},
		{line: "sum 1 2 3", wantCode: result.CodeOK, want: "6"},
		{line: "add 1", wantCode: result.CodeTypeParseFailed},
		{line: "add 1 2 3", wantCode: result.CodeTooManyArguments},
		{line: "divide 9 2", wantCode: result.CodeOK, want: "4.5"},
		{line: "divide 1 0", wantCode: result.CodePreconditionFailed, want: "division by zero"},
		{line: "fahrenheit 100C", wantCode: result.CodeOK, want: "100.0C = 212.0F"},
		{line: "fahrenheit hot", wantCode: result.CodeTypeParseFailed},
		{line: "sleep 1ms", wantCode: result.CodeOK, want: "slept 1ms"},
		{line: "sleep 1m", wantCode: result.CodeException, want: "duration exceeds"},
		{line: "countdown", wantCode: result.CodeOK, want: "3 2 1 liftoff"},
		{line: "countdown 0", wantCode: result.CodeFailed},
		{line: "fail", wantCode: result.CodeException, want: "deliberate failure"},
		{line: "greet ana", wantCode: result.CodeOK, want: "good morning, ana!"},
		{line: "hello ana hi there", wantCode: result.CodeOK, want: "hi there, ana!"},
		{line: "whoami", wantCode: result.CodeOK, want: `via "whoami"`},
		{line: "nope", wantCode: result.CodeCommandNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			t.Parallel()

			r := dispatch(t, e, tt.line)
			if r.Code() != tt.wantCode {
				t.Fatalf("Code() = %s (%s), want %s", r.Code(), r.Reason(), tt.wantCode)
			}
			if got := result.Text(r); !strings.Contains(got, tt.want) {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCounterIsShared(t *testing.T) {
	t.Parallel()

	e := newEngine(t)
	for _, tc := range []struct {
		line string
		want int64
	}{
		{"count 2", 2},
		{"count", 3},
		{"count 10", 13},
	} {
		if v, _ := result.Value(dispatch(t, e, tc.line)); v != tc.want {
			t.Errorf("%s = %v, want %d", tc.line, v, tc.want)
		}
	}
}

func TestGreetFollowsClock(t *testing.T) {
	t.Parallel()

	clock := testutil.NewFakeClock(nineAM)
	e := newEngineWithClock(t, clock)

	for _, step := range []struct {
		advance time.Duration
		want    string
	}{
		{0, "good morning, ana!"},
		{4 * time.Hour, "good afternoon, ana!"},
		{6 * time.Hour, "good evening, ana!"},
	} {
		clock.Advance(step.advance)
		if got := result.Text(dispatch(t, e, "greet ana")); got != step.want {
			t.Errorf("greet at %s = %q, want %q", clock.Now().Format("15:04"), got, step.want)
		}
	}
}

func TestLaterRunsInBackground(t *testing.T) {
	t.Parallel()

	done := make(chan result.Result, 1)
	e := newEngine(t, engine.WithBackgroundHandler(func(_ *request.Context, r result.Result) {
		done <- r
	}))

	if r := dispatch(t, e, "later 1ms"); r.Code() != result.CodeScheduled {
		t.Fatalf("Code() = %s, want scheduled", r.Code())
	}
	if err := e.Wait(); err != nil {
		t.Fatalf("Wait() error: %v", err)
	}
	if got := result.Text(<-done); got != "slept 1ms" {
		t.Errorf("background result = %q", got)
	}
}

func TestParseCelsius(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    Celsius
		wantErr bool
	}{
		{raw: "21.5", want: 21.5},
		{raw: "-4C", want: -4},
		{raw: "0c", want: 0},
		{raw: "warm", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseCelsius(tt.raw)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseCelsius(%q) = %v, %v", tt.raw, got, err)
		}
	}
}

func TestPartOfDay(t *testing.T) {
	t.Parallel()

	for hour, want := range map[int]string{0: "morning", 11: "morning", 12: "afternoon", 17: "afternoon", 18: "evening"} {
		if got := partOfDay(time.Date(2026, 1, 1, hour, 0, 0, 0, time.UTC)); got != want {
			t.Errorf("partOfDay(%d:00) = %q, want %q", hour, got, want)
		}
	}
}
