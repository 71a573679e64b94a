// SPDX-License-Identifier: MPL-2.0

package middleware

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/MariBotOfficial/MariCommands-sub001/internal/activator"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/executor"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/pipeline"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/request"
	"github.com/MariBotOfficial/MariCommands-sub001/pkg/command"
	"github.com/MariBotOfficial/MariCommands-sub001/pkg/result"
)

// ErrNoStrategy is returned when a matched command has no selected strategy.
var ErrNoStrategy = errors.New("no executor strategy for command")

type (
	// StrategyLookup returns the strategy selected for cmd at registration.
	StrategyLookup func(cmd *command.Command) (*executor.Strategy, bool)

	// BackgroundFunc receives the result of a handler that ran in
	// concurrent mode, after it finished.
	BackgroundFunc func(rc *request.Context, r result.Result)

	// ExecutionOptions configures the Execution component.
	ExecutionOptions struct {
		Strategies StrategyLookup
		Activator  *activator.Activator
		// RunMode applies to commands that do not declare one.
		RunMode command.RunMode
		// Group runs concurrent handlers. Required for concurrent mode.
		Group        *errgroup.Group
		Logger       *log.Logger
		OnBackground BackgroundFunc
	}
)

// Execution activates the module instance (if any), invokes the handler
// through its strategy and stores the result. In concurrent mode the handler
// is handed to the group and a Scheduled result is stored instead; the
// request's resources are released when the handler finishes.
func Execution(opts ExecutionOptions) pipeline.Component {
	if opts.Activator == nil {
		opts.Activator = activator.New(command.LifetimeDefault)
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return func(next pipeline.DispatchFunc) pipeline.DispatchFunc {
		return func(ctx context.Context, rc *request.Context) error {
			cmd := rc.Command()
			if cmd == nil {
				return next(ctx, rc)
			}
			strategy, ok := opts.Strategies(cmd)
			if !ok {
				return fmt.Errorf("%w: %s", ErrNoStrategy, cmd.Name())
			}

			var receiver reflect.Value
			if m := cmd.Module(); m != nil && strategy.HasReceiver() {
				v, err := opts.Activator.Activate(ctx, m, rc)
				if err != nil {
					return err
				}
				receiver = v
			}
			var values []reflect.Value
			if args := rc.Arguments(); args != nil {
				values = args.Values()
			}

			mode := cmd.RunMode()
			if mode == command.RunModeDefault {
				mode = opts.RunMode
			}
			if mode != command.RunModeConcurrent || opts.Group == nil {
				if err := rc.SetResult(strategy.Invoke(ctx, receiver, values)); err != nil {
					return err
				}
				return next(ctx, rc)
			}

			release := rc.Detach()
			bg := context.WithoutCancel(ctx)
			opts.Group.Go(func() error {
				r := invokeGuarded(bg, strategy, receiver, values)
				if r.Success() {
					opts.Logger.Debug("background command finished", "id", rc.ID(), "command", cmd.Name())
				} else {
					opts.Logger.Warn("background command failed",
						"id", rc.ID(), "command", cmd.Name(), "code", r.Code(), "reason", r.Reason())
				}
				if opts.OnBackground != nil {
					opts.OnBackground(rc, r)
				}
				if err := release(bg); err != nil {
					opts.Logger.Error("releasing request resources", "id", rc.ID(), "err", err)
				}
				return nil
			})
			if err := rc.SetResult(result.Scheduled{}); err != nil {
				return err
			}
			return next(ctx, rc)
		}
	}
}

// invokeGuarded runs the handler outside the pipeline's Recover component.
func invokeGuarded(ctx context.Context, s *executor.Strategy, receiver reflect.Value, args []reflect.Value) (r result.Result) {
	defer func() {
		if p := recover(); p != nil {
			r = result.FromError(fmt.Errorf("panic in background command: %v", p))
		}
	}()
	return s.Invoke(ctx, receiver, args)
}
