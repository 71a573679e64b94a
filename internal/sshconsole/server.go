// SPDX-License-Identifier: MPL-2.0

package sshconsole

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"

	"github.com/MariBotOfficial/MariCommands-sub001/internal/issue"
	"github.com/MariBotOfficial/MariCommands-sub001/pkg/result"
)

const (
	defaultPrompt = "maricmd> "

	// StartOperation names the operation in errors returned by Start.
	StartOperation = "start console"
)

type (
	// Dispatcher runs one command line. *engine.Engine satisfies it.
	Dispatcher interface {
		DispatchLine(ctx context.Context, line string) (result.Result, error)
	}

	// DispatcherFunc adapts a function to Dispatcher.
	DispatcherFunc func(ctx context.Context, line string) (result.Result, error)

	// Config holds immutable configuration for the console.
	Config struct {
		// Host is the address to bind to (default: 127.0.0.1).
		Host string
		// Port is the port to listen on (0 = auto-select).
		Port int
		// Token, when set, must be given as the SSH password. An empty token
		// disables authentication.
		Token string
		// Prompt is printed before each line in interactive sessions.
		Prompt string
		// ShutdownTimeout bounds Stop (default: 10s).
		ShutdownTimeout time.Duration
		// StartupTimeout bounds Start (default: 5s).
		StartupTimeout time.Duration
	}

	// Option configures a Server.
	Option func(*Server)

	// Server exposes a Dispatcher over SSH. "ssh host cmd args" runs a single
	// line; a session without a command gets a line-oriented console.
	// A Server is single-use: once stopped or failed, create a new one.
	Server struct {
		*lifecycle

		cfg        Config
		dispatcher Dispatcher
		logger     *log.Logger

		srvMu    sync.Mutex
		srv      *ssh.Server
		listener net.Listener
		addr     string
	}
)

// DispatchLine implements Dispatcher.
func (f DispatcherFunc) DispatchLine(ctx context.Context, line string) (result.Result, error) {
	return f(ctx, line)
}

// WithLogger replaces the default "ssh-console" logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Host:            "127.0.0.1",
		Port:            0,
		Prompt:          defaultPrompt,
		ShutdownTimeout: 10 * time.Second,
		StartupTimeout:  5 * time.Second,
	}
}

// New creates a console for d. Call Start to accept sessions.
func New(d Dispatcher, cfg Config, opts ...Option) *Server {
	defaults := DefaultConfig()
	if cfg.Host == "" {
		cfg.Host = defaults.Host
	}
	if cfg.Prompt == "" {
		cfg.Prompt = defaults.Prompt
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if cfg.StartupTimeout == 0 {
		cfg.StartupTimeout = defaults.StartupTimeout
	}

	s := &Server{
		lifecycle:  newLifecycle(),
		cfg:        cfg,
		dispatcher: d,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "ssh-console"})
	}
	return s
}

// Start opens the listener and blocks until the server accepts sessions,
// fails, or ctx or the startup timeout ends the wait.
func (s *Server) Start(ctx context.Context) error {
	if err := s.begin(ctx); err != nil {
		return err
	}

	startupCtx, cancel := context.WithTimeout(ctx, s.cfg.StartupTimeout)
	defer cancel()

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	var lc net.ListenConfig
	listener, err := lc.Listen(startupCtx, "tcp", addr)
	if err != nil {
		s.fail(issue.NewErrorContext().
			WithOperation(StartOperation).
			WithResource(addr).
			WithIssue(issue.ConsoleStartFailedId).
			WithSuggestion("Pick another port with --port, or 0 for a free one").
			Wrap(err).
			BuildError())
		return s.err()
	}

	opts := []ssh.Option{
		wish.WithAddress(addr),
		wish.WithMiddleware(s.sessionMiddleware()),
	}
	if s.cfg.Token != "" {
		opts = append(opts,
			wish.WithPasswordAuth(s.passwordHandler),
			wish.WithPublicKeyAuth(func(ssh.Context, ssh.PublicKey) bool { return false }),
		)
	}
	srv, err := wish.NewServer(opts...)
	if err != nil {
		_ = listener.Close()
		s.fail(fmt.Errorf("failed to create SSH server: %w", err))
		return s.err()
	}

	s.srvMu.Lock()
	s.srv = srv
	s.listener = listener
	s.addr = listener.Addr().String()
	s.srvMu.Unlock()

	s.spawn(s.serve)

	select {
	case <-s.started:
		s.logger.Info("SSH console started", "address", s.addr)
		return nil
	case err := <-s.errCh:
		s.fail(err)
		return err
	case <-startupCtx.Done():
		s.fail(fmt.Errorf("startup timeout: %w", startupCtx.Err()))
		return s.err()
	}
}

func (s *Server) serve() {
	s.running()

	s.srvMu.Lock()
	srv, listener := s.srv, s.listener
	s.srvMu.Unlock()

	if err := srv.Serve(listener); err != nil &&
		!errors.Is(err, ssh.ErrServerClosed) && !errors.Is(err, net.ErrClosed) {
		s.report(fmt.Errorf("serve error: %w", err))
	}
}

// Stop closes the listener and waits for open sessions up to the shutdown
// timeout. Calling it again is a no-op.
func (s *Server) Stop() error {
	if !s.stopping() {
		s.wg.Wait()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	var shutdownErr error
	s.srvMu.Lock()
	if s.srv != nil {
		if err := s.srv.Shutdown(ctx); err != nil && !isClosedConnError(err) && !errors.Is(err, ssh.ErrServerClosed) {
			s.logger.Error("shutdown error", "error", err)
			shutdownErr = err
		}
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.srvMu.Unlock()

	s.wg.Wait()
	s.stopped()
	s.logger.Info("SSH console stopped")
	return shutdownErr
}

// Wait blocks until the server stops and returns the failure cause, if any.
func (s *Server) Wait() error {
	s.wg.Wait()
	if s.State() == StateFailed {
		return s.err()
	}
	return nil
}

// Err returns a channel that receives fatal errors after Start. It is closed
// once the server stops.
func (s *Server) Err() <-chan error {
	return s.errCh
}

// State returns the current lifecycle state.
func (s *Server) State() State {
	return s.current()
}

// IsRunning reports whether sessions are being accepted.
func (s *Server) IsRunning() bool {
	return s.State() == StateRunning
}

// Address returns the bound host:port, or "" before a successful Start.
func (s *Server) Address() string {
	select {
	case <-s.started:
		s.srvMu.Lock()
		defer s.srvMu.Unlock()
		return s.addr
	default:
		return ""
	}
}

// Port returns the bound port, or 0 before a successful Start.
func (s *Server) Port() int {
	_, portStr, err := net.SplitHostPort(s.Address())
	if err != nil {
		return 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0
	}
	return port
}

func (s *Server) passwordHandler(ctx ssh.Context, password string) bool {
	if subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.Token)) != 1 {
		s.logger.Warn("rejected console login", "user", ctx.User(), "remote", ctx.RemoteAddr())
		return false
	}
	return true
}

// isClosedConnError checks if the error is a "use of closed network connection" error.
func isClosedConnError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Err.Error() == "use of closed network connection"
	}
	return false
}
