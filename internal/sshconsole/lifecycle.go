// SPDX-License-Identifier: MPL-2.0

package sshconsole

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

const (
	// StateCreated means Start has not been called.
	StateCreated State = iota
	// StateStarting means the listener is being opened.
	StateStarting
	// StateRunning means sessions are accepted.
	StateRunning
	// StateStopping means Stop is draining sessions.
	StateStopping
	// StateStopped is terminal.
	StateStopped
	// StateFailed is terminal: Start or Serve failed.
	StateFailed
)

type (
	// State is the lifecycle state of a Server.
	State int32

	// lifecycle is the single-use state machine behind Server. Reads are
	// lock-free; the failure cause is guarded by mu.
	lifecycle struct {
		state   atomic.Int32
		mu      sync.Mutex
		lastErr error

		ctx     context.Context
		cancel  context.CancelFunc
		wg      sync.WaitGroup
		started chan struct{}
		errCh   chan error
	}
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transition is possible.
func (s State) IsTerminal() bool {
	return s == StateStopped || s == StateFailed
}

func newLifecycle() *lifecycle {
	l := &lifecycle{
		started: make(chan struct{}),
		errCh:   make(chan error, 1),
	}
	l.state.Store(int32(StateCreated))
	return l
}

func (l *lifecycle) current() State {
	return State(l.state.Load())
}

// begin moves Created to Starting. A canceled ctx fails the server before
// any listener exists.
func (l *lifecycle) begin(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		l.fail(fmt.Errorf("context canceled before start: %w", err))
		return l.err()
	}
	if !l.state.CompareAndSwap(int32(StateCreated), int32(StateStarting)) {
		return fmt.Errorf("cannot start server in state %s", l.current())
	}
	l.ctx, l.cancel = context.WithCancel(context.Background())
	return nil
}

func (l *lifecycle) running() {
	if l.state.CompareAndSwap(int32(StateStarting), int32(StateRunning)) {
		close(l.started)
	}
}

func (l *lifecycle) fail(err error) {
	l.mu.Lock()
	l.lastErr = err
	l.mu.Unlock()

	l.state.Store(int32(StateFailed))
	if l.cancel != nil {
		l.cancel()
	}
	l.report(err)
}

// stopping reports whether the caller owns the shutdown.
func (l *lifecycle) stopping() bool {
	for {
		cur := l.current()
		switch cur {
		case StateCreated:
			if l.state.CompareAndSwap(int32(StateCreated), int32(StateStopped)) {
				return false
			}
		case StateStarting, StateRunning:
			if l.state.CompareAndSwap(int32(cur), int32(StateStopping)) {
				if l.cancel != nil {
					l.cancel()
				}
				return true
			}
		default:
			return false
		}
	}
}

func (l *lifecycle) stopped() {
	l.state.Store(int32(StateStopped))
	close(l.errCh)
}

func (l *lifecycle) report(err error) {
	select {
	case l.errCh <- err:
	default:
	}
}

func (l *lifecycle) err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

func (l *lifecycle) spawn(fn func()) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		fn()
	}()
}
