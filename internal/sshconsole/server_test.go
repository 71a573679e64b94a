// SPDX-License-Identifier: MPL-2.0

package sshconsole

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	gossh "golang.org/x/crypto/ssh"

	"github.com/MariBotOfficial/MariCommands-sub001/internal/issue"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/testutil"
	"github.com/MariBotOfficial/MariCommands-sub001/pkg/result"
)

// echoDispatcher answers "echo <text>" with text, "boom" with a fault and
// anything else with CommandNotFound.
var echoDispatcher = DispatcherFunc(func(_ context.Context, line string) (result.Result, error) {
	alias, rest, _ := strings.Cut(line, " ")
	switch alias {
	case "echo":
		return result.WithValue(rest), nil
	case "boom":
		return nil, errors.New("pipeline fault")
	default:
		return result.Fail(result.CodeCommandNotFound, "unknown command %q", alias), nil
	}
})

func newServer(t *testing.T, cfg Config) *Server {
	t.Helper()

	cfg.Port = 0
	srv := New(echoDispatcher, cfg, WithLogger(log.New(io.Discard)))
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	t.Cleanup(func() {
		if err := srv.Stop(); err != nil {
			t.Errorf("Stop() error: %v", err)
		}
	})
	return srv
}

func dial(t *testing.T, srv *Server, password string) *gossh.Client {
	t.Helper()

	cfg := &gossh.ClientConfig{
		User:            "operator",
		HostKeyCallback: gossh.InsecureIgnoreHostKey(), //nolint:gosec // test server with a generated key
	}
	if password != "" {
		cfg.Auth = []gossh.AuthMethod{gossh.Password(password)}
	}
	client, err := gossh.Dial("tcp", srv.Address(), cfg)
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func run(t *testing.T, client *gossh.Client, cmd string) (stdout, stderr string, status int) {
	t.Helper()

	sess, err := client.NewSession()
	if err != nil {
		t.Fatalf("NewSession() error: %v", err)
	}
	defer sess.Close()

	var out, errOut bytes.Buffer
	sess.Stdout = &out
	sess.Stderr = &errOut
	err = sess.Run(cmd)
	var exitErr *gossh.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		status = exitErr.ExitStatus()
	default:
		t.Fatalf("Run(%q) error: %v", cmd, err)
	}
	return out.String(), errOut.String(), status
}

func TestServerStartStop(t *testing.T) {
	t.Parallel()

	srv := New(echoDispatcher, Config{}, WithLogger(log.New(io.Discard)))
	if srv.State() != StateCreated || srv.IsRunning() {
		t.Fatalf("State() = %s before Start", srv.State())
	}
	if srv.Address() != "" || srv.Port() != 0 {
		t.Error("address should be empty before Start")
	}

	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if !srv.IsRunning() || srv.Port() == 0 {
		t.Errorf("State() = %s, Port() = %d after Start", srv.State(), srv.Port())
	}
	if err := srv.Start(context.Background()); err == nil {
		t.Error("second Start() should fail")
	}

	if err := srv.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if srv.State() != StateStopped {
		t.Errorf("State() = %s after Stop", srv.State())
	}
	if err := srv.Stop(); err != nil {
		t.Errorf("second Stop() error: %v", err)
	}
	if err := srv.Wait(); err != nil {
		t.Errorf("Wait() error: %v", err)
	}
}

func TestServerStartWithCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	srv := New(echoDispatcher, Config{}, WithLogger(log.New(io.Discard)))
	if err := srv.Start(ctx); err == nil {
		t.Fatal("Start() with canceled context should fail")
	}
	if srv.State() != StateFailed {
		t.Errorf("State() = %s, want failed", srv.State())
	}
	if err := srv.Wait(); err == nil {
		t.Error("Wait() should return the failure cause")
	}
}

func TestServerStartWithUsedPort(t *testing.T) {
	t.Parallel()

	first := newServer(t, Config{})
	second := New(echoDispatcher, Config{Port: first.Port()}, WithLogger(log.New(io.Discard)))
	err := second.Start(context.Background())
	if err == nil {
		testutil.MustStop(t, second)
		t.Fatal("Start() on a used port should fail")
	}
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.Operation != StartOperation {
		t.Errorf("Start() error = %v, want an actionable %q error", err, StartOperation)
	}
	if second.State() != StateFailed {
		t.Errorf("State() = %s, want failed", second.State())
	}
}

func TestExecSession(t *testing.T) {
	t.Parallel()

	client := dial(t, newServer(t, Config{}), "")

	tests := []struct {
		cmd        string
		wantOut    string
		wantErr    string
		wantStatus int
	}{
		{cmd: "echo hello world", wantOut: "hello world\n"},
		{cmd: "nope", wantErr: `command_not_found: unknown command "nope"`, wantStatus: 1},
		{cmd: "boom", wantErr: "error: pipeline fault", wantStatus: 2},
	}

	for _, tt := range tests {
		out, errOut, status := run(t, client, tt.cmd)
		if out != tt.wantOut {
			t.Errorf("%q stdout = %q, want %q", tt.cmd, out, tt.wantOut)
		}
		if !strings.Contains(errOut, tt.wantErr) {
			t.Errorf("%q stderr = %q, want %q", tt.cmd, errOut, tt.wantErr)
		}
		if status != tt.wantStatus {
			t.Errorf("%q status = %d, want %d", tt.cmd, status, tt.wantStatus)
		}
	}
}

func TestInteractiveSession(t *testing.T) {
	t.Parallel()

	client := dial(t, newServer(t, Config{Prompt: "> "}), "")
	sess, err := client.NewSession()
	if err != nil {
		t.Fatalf("NewSession() error: %v", err)
	}
	defer sess.Close()

	var out bytes.Buffer
	sess.Stdout = &out
	sess.Stdin = strings.NewReader("echo one\n\necho two\nexit\necho never\n")
	if err := sess.Shell(); err != nil {
		t.Fatalf("Shell() error: %v", err)
	}
	if err := sess.Wait(); err != nil {
		t.Fatalf("Wait() error: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "one\n") || !strings.Contains(got, "two\n") {
		t.Errorf("output = %q, want both lines", got)
	}
	if strings.Contains(got, "never") {
		t.Errorf("output = %q, lines after exit were dispatched", got)
	}
	if !strings.HasPrefix(got, "> ") {
		t.Errorf("output = %q, want prompt first", got)
	}
}

func TestTokenAuth(t *testing.T) {
	t.Parallel()

	srv := newServer(t, Config{Token: "s3cret"})

	client := dial(t, srv, "s3cret")
	if out, _, _ := run(t, client, "echo ok"); out != "ok\n" {
		t.Errorf("stdout = %q", out)
	}

	_, err := gossh.Dial("tcp", srv.Address(), &gossh.ClientConfig{
		User:            "operator",
		Auth:            []gossh.AuthMethod{gossh.Password("wrong")},
		HostKeyCallback: gossh.InsecureIgnoreHostKey(), //nolint:gosec // test server with a generated key
	})
	if err == nil {
		t.Error("Dial() with a wrong token should fail")
	}
}

func TestIsClosedConnError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"generic error", errors.New("something"), false},
		{"closed conn OpError", &net.OpError{Op: "read", Err: errors.New("use of closed network connection")}, true},
		{"different OpError", &net.OpError{Op: "read", Err: errors.New("different error")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := isClosedConnError(tt.err); got != tt.want {
				t.Errorf("isClosedConnError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	for state, want := range map[State]string{
		StateCreated:  "created",
		StateRunning:  "running",
		StateStopping: "stopping",
		StateFailed:   "failed",
		State(42):     "unknown",
	} {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
	if !StateStopped.IsTerminal() || StateRunning.IsTerminal() {
		t.Error("IsTerminal() mismatch")
	}
}
