// SPDX-License-Identifier: MPL-2.0

package request

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/MariBotOfficial/MariCommands-sub001/internal/services"
	"github.com/MariBotOfficial/MariCommands-sub001/pkg/command"
	"github.com/MariBotOfficial/MariCommands-sub001/pkg/result"
)

type closeCounter struct{ n *int }

func (c closeCounter) Close() error {
	*c.n++
	return nil
}

func testCommand(t *testing.T) *command.Command {
	t.Helper()

	cmd, err := command.NewBuilder("ping").WithHandler(func() {}).Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return cmd
}

func TestStateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state State
		want  string
	}{
		{StateNotMatched, "not_matched"},
		{StateMatched, "matched"},
		{StateBound, "bound"},
		{StateExecuted, "executed"},
		{StateCompleted, "completed"},
		{StateFaulted, "faulted"},
		{State(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			if got := tt.state.String(); got != tt.want {
				t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
			}
		})
	}
}

func TestStateValidate(t *testing.T) {
	t.Parallel()

	if err := StateBound.Validate(); err != nil {
		t.Errorf("StateBound.Validate() = %v", err)
	}
	err := State(9).Validate()
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("State(9).Validate() = %v, want ErrInvalidState", err)
	}
	if !StateFaulted.IsTerminal() || StateExecuted.IsTerminal() {
		t.Error("IsTerminal() mismatch")
	}
}

func TestLifecycleHappyPath(t *testing.T) {
	t.Parallel()

	rc := New("ping", "", nil)
	if rc.State() != StateNotMatched {
		t.Fatalf("initial state = %s", rc.State())
	}
	if rc.ID() == "" {
		t.Error("ID() is empty")
	}
	if err := rc.Match(testCommand(t)); err != nil {
		t.Fatalf("Match() error: %v", err)
	}
	if err := rc.Bind(nil); err != nil {
		t.Fatalf("Bind() error: %v", err)
	}
	if err := rc.SetResult(result.Success()); err != nil {
		t.Fatalf("SetResult() error: %v", err)
	}
	if err := rc.SetResult(result.WithValue(1)); err != nil {
		t.Fatalf("replacing result error: %v", err)
	}
	if err := rc.Complete(); err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if rc.State() != StateCompleted {
		t.Errorf("final state = %s, want completed", rc.State())
	}
	if rc.Fail(errors.New("late")) {
		t.Error("Fail() succeeded on a completed request")
	}
}

func TestLifecycleRejectsSkips(t *testing.T) {
	t.Parallel()

	rc := New("ping", "", nil)
	err := rc.Complete()
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Complete() from not_matched = %v, want ErrInvalidTransition", err)
	}
	if err := rc.SetResult(result.Success()); err == nil {
		t.Error("SetResult() without a command succeeded")
	}
	if err := rc.Bind(nil); err == nil {
		t.Error("Bind() without a command succeeded")
	}

	if !rc.Fail(errors.New("boom")) {
		t.Fatal("Fail() returned false on a fresh request")
	}
	if rc.State() != StateFaulted || rc.Fault() == nil {
		t.Errorf("state = %s fault = %v, want faulted with error", rc.State(), rc.Fault())
	}
	if err := rc.Match(testCommand(t)); err == nil {
		t.Error("Match() on a faulted request succeeded")
	}
}

func TestResultFromMatched(t *testing.T) {
	t.Parallel()

	rc := New("ping", "", nil)
	_ = rc.Match(testCommand(t))
	if err := rc.SetResult(&result.TooManyArguments{Consumed: 0, Got: 1}); err != nil {
		t.Fatalf("SetResult() from matched error: %v", err)
	}
	if rc.State() != StateExecuted {
		t.Errorf("state = %s, want executed", rc.State())
	}
}

func TestCloseReleasesOnce(t *testing.T) {
	t.Parallel()

	closed := 0
	c := services.NewContainer()
	services.Scoped(c, func(context.Context, *services.Scope) (closeCounter, error) {
		return closeCounter{n: &closed}, nil
	})
	scope := c.CreateScope(context.Background())
	rc := New("ping", "", scope)
	if _, ok := rc.Service(reflect.TypeFor[closeCounter]()); !ok {
		t.Fatal("Service() did not resolve the scoped value")
	}
	rc.Track(closeCounter{n: &closed})

	_ = rc.Close(context.Background())
	_ = rc.Close(context.Background())
	if closed != 2 {
		t.Errorf("close count = %d, want 2 (module instance and scoped service once each)", closed)
	}
}

func TestDetachDefersRelease(t *testing.T) {
	t.Parallel()

	closed := 0
	rc := New("ping", "", nil)
	rc.Track(closeCounter{n: &closed})
	release := rc.Detach()

	_ = rc.Close(context.Background())
	if closed != 0 {
		t.Fatalf("Close() released a detached request")
	}
	_ = release(context.Background())
	_ = release(context.Background())
	if closed != 1 {
		t.Errorf("close count = %d, want 1", closed)
	}
}

func TestServiceReturnsInvocation(t *testing.T) {
	t.Parallel()

	rc := New("ping", "a b", nil)
	v, ok := rc.Service(reflect.TypeFor[command.Invocation]())
	if !ok || v != any(rc) {
		t.Errorf("Service(Invocation) = %v, %v; want the request", v, ok)
	}

	ctx := WithContext(context.Background(), rc)
	got, ok := FromContext(ctx)
	if !ok || got != rc {
		t.Error("FromContext() did not return the request")
	}
	rc.Set("k", 1)
	if v, _ := rc.Get("k"); v != 1 {
		t.Errorf("Get(k) = %v, want 1", v)
	}
}
