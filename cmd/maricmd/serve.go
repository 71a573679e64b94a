// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/MariBotOfficial/MariCommands-sub001/internal/config"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/engine"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/sshconsole"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/watch"
	"github.com/MariBotOfficial/MariCommands-sub001/pkg/result"
)

type (
	serveFlags struct {
		host  string
		port  int
		token string
		watch bool
	}

	// swapDispatcher forwards to the current engine. Reloads replace the
	// engine while sessions keep their connection.
	swapDispatcher struct {
		current atomic.Pointer[engine.Engine]
	}
)

func (d *swapDispatcher) DispatchLine(ctx context.Context, line string) (result.Result, error) {
	return d.current.Load().DispatchLine(ctx, line)
}

func newServeCommand(app *App) *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the commands over SSH",
		Long: `Start an SSH console that dispatches command lines.

"ssh -p <port> <host> <command> [args...]" runs one line and exits with
0 on success, 1 when the command failed and 2 when it could not run.
Without a command the session becomes an interactive console.

Host and port default to the "ssh" section of the configuration. Without
--token any client is accepted, so keep the default loopback host.

With --watch the configuration file is reloaded when it changes; sessions
keep their connection and pick up the new settings on their next line.`,
		Example: `  maricmd serve
  maricmd serve --port 2222 --token s3cret`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return silenceExitError(cmd, app.serve(cmd, flags))
		},
	}
	cmd.Flags().StringVar(&flags.host, "host", "", "address to bind (default from config)")
	cmd.Flags().IntVar(&flags.port, "port", 0, "port to listen on (default from config)")
	cmd.Flags().StringVar(&flags.token, "token", "", "password clients must present")
	cmd.Flags().BoolVar(&flags.watch, "watch", false, "reload the configuration file when it changes")
	return cmd
}

func (a *App) serve(cmd *cobra.Command, flags serveFlags) (err error) {
	ctx := cmd.Context()
	e, err := a.newEngine(ctx)
	if err != nil {
		a.reportFault(err)
		return &ExitError{Code: 2, Err: err}
	}
	var d swapDispatcher
	d.current.Store(e)
	defer func() { err = errors.Join(err, d.current.Load().Close(context.WithoutCancel(ctx))) }()

	cfg := sshconsole.DefaultConfig()
	cfg.Host, cfg.Port, cfg.Token = e.Config().SSH.Host, e.Config().SSH.Port, flags.token
	if cmd.Flags().Changed("host") {
		cfg.Host = flags.host
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = flags.port
	}

	logger := log.NewWithOptions(a.stderr, log.Options{Prefix: "ssh-console", Level: log.InfoLevel})
	srv := sshconsole.New(&d, cfg, sshconsole.WithLogger(logger))
	if err := srv.Start(ctx); err != nil {
		a.reportFault(err)
		return &ExitError{Code: 2, Err: err}
	}

	a.outMu.Lock()
	fmt.Fprintln(a.stdout, SuccessStyle.Render("✓ ")+"SSH console listening on "+CmdStyle.Render(srv.Address()))
	a.outMu.Unlock()

	watchErr := make(chan error, 1)
	if flags.watch {
		w, err := a.newConfigWatcher(&d)
		if err != nil {
			logger.Warn("configuration reload disabled", "error", err)
		} else {
			logger.Info("watching configuration", "path", w.Path())
			watchCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			go func() { watchErr <- w.Run(watchCtx) }()
		}
	}

	select {
	case <-ctx.Done():
	case err := <-watchErr:
		if err != nil {
			logger.Error("configuration watcher stopped", "error", err)
		}
		<-ctx.Done()
	case serveErr := <-srv.Err():
		if serveErr != nil {
			a.reportFault(serveErr)
			return &ExitError{Code: 2, Err: serveErr}
		}
	}
	return srv.Stop()
}

// newConfigWatcher watches the active configuration file. On change a new
// engine is built and swapped in; the old one is closed once its background
// commands finish. A configuration that fails to load keeps the old engine.
func (a *App) newConfigWatcher(d *swapDispatcher) (*watch.Watcher, error) {
	path, err := config.Path(config.LoadOptions{ConfigFilePath: a.configPath})
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, errors.New("no configuration file in use")
	}
	logger := log.NewWithOptions(a.stderr, log.Options{Prefix: "reload"})
	return watch.New(watch.Config{
		Path:   path,
		Logger: logger,
		OnChange: func(ctx context.Context) error {
			next, err := a.newEngine(ctx)
			if err != nil {
				return err
			}
			prev := d.current.Swap(next)
			logger.Info("configuration reloaded", "path", path)
			go func() {
				if err := prev.Close(context.WithoutCancel(ctx)); err != nil {
					logger.Warn("closing previous engine", "error", err)
				}
			}()
			return nil
		},
	})
}
