// SPDX-License-Identifier: MPL-2.0

// Package middleware provides the standard dispatch pipeline components.
//
// The engine composes them in this order: Logging, Tracing, Recover,
// Preconditions, Binding, Execution. Binding and precondition failures are
// stored as results and short-circuit the inner chain; activation failures
// and structural problems are returned as errors.
package middleware

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/charmbracelet/log"

	"github.com/MariBotOfficial/MariCommands-sub001/internal/binder"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/pipeline"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/request"
	"github.com/MariBotOfficial/MariCommands-sub001/pkg/result"
)

// Recover converts a panic in any inner component or handler into an
// Exception result. Panics before a command is matched become errors.
func Recover(logger *log.Logger) pipeline.Component {
	return func(next pipeline.DispatchFunc) pipeline.DispatchFunc {
		return func(ctx context.Context, rc *request.Context) (retErr error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("command panicked",
						"id", rc.ID(),
						"alias", rc.Alias(),
						"panic", r,
						"stack", string(debug.Stack()),
					)
					err := fmt.Errorf("panic in command %q: %v", rc.Alias(), r)
					if rc.Command() == nil {
						retErr = err
						return
					}
					if setErr := rc.SetResult(result.FromError(err)); setErr != nil {
						retErr = err
					}
				}
			}()
			return next(ctx, rc)
		}
	}
}

// Logging logs each dispatch: the request id, alias, command, elapsed time
// and the failure reason when there is one.
func Logging(logger *log.Logger) pipeline.Component {
	return func(next pipeline.DispatchFunc) pipeline.DispatchFunc {
		return func(ctx context.Context, rc *request.Context) error {
			logger.Debug("dispatch started", "id", rc.ID(), "alias", rc.Alias())

			start := time.Now()
			err := next(ctx, rc)
			elapsed := time.Since(start)

			name := ""
			if cmd := rc.Command(); cmd != nil {
				name = cmd.Name()
			}
			switch r := rc.Result(); {
			case err != nil:
				logger.Error("dispatch faulted",
					"id", rc.ID(), "alias", rc.Alias(), "command", name, "elapsed", elapsed, "err", err)
			case r != nil && !r.Success():
				logger.Warn("dispatch failed",
					"id", rc.ID(), "alias", rc.Alias(), "command", name, "elapsed", elapsed,
					"code", r.Code(), "reason", r.Reason())
			default:
				logger.Info("dispatch completed",
					"id", rc.ID(), "alias", rc.Alias(), "command", name, "elapsed", elapsed)
			}
			return err
		}
	}
}

// Preconditions runs the matched command's preconditions in order. The
// first failure is stored as a PreconditionFailed result and the handler is
// not invoked.
func Preconditions() pipeline.Component {
	return func(next pipeline.DispatchFunc) pipeline.DispatchFunc {
		return func(ctx context.Context, rc *request.Context) error {
			cmd := rc.Command()
			if cmd == nil {
				return next(ctx, rc)
			}
			for _, pre := range cmd.Preconditions() {
				if err := pre(ctx, rc); err != nil {
					return rc.SetResult(result.Fail(result.CodePreconditionFailed, "%v", err))
				}
			}
			return next(ctx, rc)
		}
	}
}

// Binding binds the raw input to the matched command's parameters. The
// per-command policy for extra tokens overrides ignoreExtraDefault.
func Binding(b *binder.Binder, ignoreExtraDefault bool) pipeline.Component {
	return func(next pipeline.DispatchFunc) pipeline.DispatchFunc {
		return func(ctx context.Context, rc *request.Context) error {
			cmd := rc.Command()
			if cmd == nil {
				return next(ctx, rc)
			}
			ignore := ignoreExtraDefault
			if override, set := cmd.IgnoreExtraArgs(); set {
				ignore = override
			}
			args, fail := b.Bind(ctx, rc.Input(), cmd, ignore)
			if fail != nil {
				return rc.SetResult(fail)
			}
			if err := rc.Bind(args); err != nil {
				return err
			}
			return next(ctx, rc)
		}
	}
}
