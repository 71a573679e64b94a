// SPDX-License-Identifier: MPL-2.0

package sshconsole

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"golang.org/x/term"

	"github.com/MariBotOfficial/MariCommands-sub001/pkg/result"
)

// lineReader yields console input one line at a time.
type lineReader interface {
	ReadLine() (string, error)
}

type scanReader struct {
	sc     *bufio.Scanner
	out    io.Writer
	prompt string
}

func (r *scanReader) ReadLine() (string, error) {
	if _, err := io.WriteString(r.out, r.prompt); err != nil {
		return "", err
	}
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.sc.Text(), nil
}

// sessionMiddleware is terminal: it handles the whole session itself.
func (s *Server) sessionMiddleware() wish.Middleware {
	return func(ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			ctx := sess.Context()
			s.logger.Debug("console session opened", "user", sess.User(), "remote", sess.RemoteAddr())

			if cmd := sess.Command(); len(cmd) > 0 {
				_ = sess.Exit(s.runLine(ctx, sess, sess.Stderr(), strings.Join(cmd, " ")))
				return
			}
			s.interactive(ctx, sess)
			_ = sess.Exit(0)
		}
	}
}

func (s *Server) interactive(ctx context.Context, sess ssh.Session) {
	var (
		in     lineReader
		out    io.Writer = sess
		errOut io.Writer = sess.Stderr()
	)
	if pty, winCh, ok := sess.Pty(); ok {
		t := term.NewTerminal(sess, s.cfg.Prompt)
		_ = t.SetSize(pty.Window.Width, pty.Window.Height)
		go func() {
			for w := range winCh {
				_ = t.SetSize(w.Width, w.Height)
			}
		}()
		in, out, errOut = t, t, t
	} else {
		in = &scanReader{sc: bufio.NewScanner(sess), out: sess, prompt: s.cfg.Prompt}
	}

	for {
		if ctx.Err() != nil {
			return
		}
		line, err := in.ReadLine()
		if err != nil {
			return
		}
		switch strings.TrimSpace(line) {
		case "":
			continue
		case "exit", "quit":
			return
		}
		s.runLine(ctx, out, errOut, line)
	}
}

// runLine dispatches one line and writes its outcome. The return value is
// the SSH exit status.
func (s *Server) runLine(ctx context.Context, out, errOut io.Writer, line string) int {
	r, err := s.dispatcher.DispatchLine(ctx, line)
	if err != nil {
		s.logger.Error("console dispatch faulted", "line", line, "error", err)
		fmt.Fprintf(errOut, "error: %v\n", err)
		return 2
	}
	text := result.Text(r)
	if !r.Success() {
		fmt.Fprintln(errOut, text)
		return 1
	}
	if text != "" {
		fmt.Fprintln(out, text)
	}
	return 0
}
