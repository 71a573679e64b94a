// SPDX-License-Identifier: MPL-2.0

// Package engine ties command registration, the alias catalog and the
// middleware pipeline into a single Dispatch entry point.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/MariBotOfficial/MariCommands-sub001/internal/activator"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/binder"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/catalog"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/config"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/executor"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/middleware"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/parser"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/pipeline"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/request"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/services"
	"github.com/MariBotOfficial/MariCommands-sub001/pkg/command"
	"github.com/MariBotOfficial/MariCommands-sub001/pkg/result"
)

var (
	// ErrNotBuilt is returned by Dispatch before Build.
	ErrNotBuilt = errors.New("engine not built")
	// ErrClosed is returned by Dispatch after Close.
	ErrClosed = errors.New("engine closed")
)

type (
	// Option configures an Engine.
	Option func(*Engine)

	// Engine owns the parser registry, the catalog and the pipeline. Register
	// commands and parsers, add components with Use, then call Build once.
	// After Build the engine is safe for concurrent Dispatch calls.
	Engine struct {
		cfg          *config.Config
		logger       *log.Logger
		services     *services.Container
		tracer       trace.Tracer
		onBackground middleware.BackgroundFunc

		registry  *parser.Registry
		catalog   *catalog.Catalog
		tokenizer binder.Tokenizer
		activator *activator.Activator
		group     errgroup.Group

		mu         sync.RWMutex
		strategies map[*command.Command]*executor.Strategy
		components []pipeline.Component
		dispatch   pipeline.DispatchFunc
		closed     bool
	}
)

// WithConfig replaces the default configuration.
func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithLogger sets the dispatch logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithServices sets the dependency container request scopes are created from.
func WithServices(c *services.Container) Option {
	return func(e *Engine) { e.services = c }
}

// WithTracer sets the tracer for dispatch spans. The global provider is used
// otherwise.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithBackgroundHandler receives results of handlers run in concurrent mode.
func WithBackgroundHandler(fn middleware.BackgroundFunc) Option {
	return func(e *Engine) { e.onBackground = fn }
}

// New creates an Engine. The configuration is validated here so later
// stages can rely on it.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{strategies: make(map[*command.Command]*executor.Strategy)}
	for _, opt := range opts {
		opt(e)
	}
	if e.cfg == nil {
		e.cfg = config.DefaultConfig()
	}
	if ok, errs := e.cfg.IsValid(); !ok {
		return nil, errors.Join(errs...)
	}
	if e.logger == nil {
		e.logger = log.NewWithOptions(os.Stderr, log.Options{
			Prefix: config.AppName,
			Level:  e.cfg.Log.Level.Level(),
		})
	}
	if e.services == nil {
		e.services = services.NewContainer()
	}

	tok, err := binder.NewTokenizer(e.cfg.Tokenizer, e.cfg.Separator)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.New(e.cfg.Comparison)
	if err != nil {
		return nil, err
	}
	e.tokenizer = tok
	e.catalog = cat
	e.registry = parser.NewDefaultRegistry(parser.WithReferenceTypesNullable(e.cfg.TreatReferenceTypesAsNullable))
	e.activator = activator.New(e.cfg.ModuleLifetime)
	return e, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() *config.Config { return e.cfg }

// Parsers returns the type parser registry. It is frozen by Build.
func (e *Engine) Parsers() *parser.Registry { return e.registry }

// Services returns the dependency container.
func (e *Engine) Services() *services.Container { return e.services }

// Register selects an executor strategy for each command and adds it to the
// catalog. Signature and duplicate errors are joined; valid commands in the
// same call are still registered.
func (e *Engine) Register(cmds ...*command.Command) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dispatch != nil {
		return command.NewConfigurationError(command.RegistryFrozen, "engine", "cannot register commands after Build")
	}

	var errs []error
	for _, cmd := range cmds {
		strategy, err := executor.Select(cmd)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := e.catalog.Add(cmd); err != nil {
			errs = append(errs, err)
			continue
		}
		e.strategies[cmd] = strategy
	}
	return errors.Join(errs...)
}

// Use adds a component between Recover and Preconditions, in call order.
// It panics after Build.
func (e *Engine) Use(c pipeline.Component) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dispatch != nil {
		panic("engine: Use called after Build")
	}
	e.components = append(e.components, c)
	return e
}

// Build freezes the parser registry, checks that every optional parameter
// without a default can hold "no value", and composes the pipeline.
func (e *Engine) Build() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dispatch != nil {
		return pipeline.ErrAlreadyBuilt
	}

	e.registry.Freeze()
	if err := e.checkOptionals(); err != nil {
		return err
	}

	tracing := middleware.Tracing()
	if e.tracer != nil {
		tracing = middleware.TracingWithTracer(e.tracer)
	}
	pb := pipeline.NewBuilder().
		Use(middleware.Logging(e.logger)).
		Use(tracing).
		Use(middleware.Recover(e.logger))
	for _, c := range e.components {
		pb.Use(c)
	}
	pb.Use(middleware.Preconditions()).
		Use(middleware.Binding(binder.New(e.registry, e.tokenizer), e.cfg.IgnoreExtraArgs)).
		Use(middleware.Execution(middleware.ExecutionOptions{
			Strategies:   e.Strategy,
			Activator:    e.activator,
			RunMode:      e.cfg.RunMode,
			Group:        &e.group,
			Logger:       e.logger,
			OnBackground: e.onBackground,
		}))

	dispatch, err := pb.Build()
	if err != nil {
		return err
	}
	e.dispatch = dispatch
	return nil
}

func (e *Engine) checkOptionals() error {
	var errs []error
	for _, cmd := range e.catalog.Commands() {
		for _, p := range cmd.Parameters() {
			if !p.IsOptional() {
				continue
			}
			if _, ok := p.Default(); ok {
				continue
			}
			if tp, ok := e.registry.ResolveFor(p); ok && parser.IsNullable(tp) {
				continue
			}
			errs = append(errs, command.NewConfigurationError(command.NonNullableOptional,
				cmd.Name()+"."+p.Name(), "optional parameter of type %s needs a default or a nullable type", p.Type()))
		}
	}
	return errors.Join(errs...)
}

// Strategy returns the executor strategy selected for cmd.
func (e *Engine) Strategy(cmd *command.Command) (*executor.Strategy, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.strategies[cmd]
	return s, ok
}

// Commands returns the registered commands in registration order.
func (e *Engine) Commands() []*command.Command { return e.catalog.Commands() }

// Match returns the command alias would dispatch to for input, applying the
// multi-match policy. It returns a nil command and a failure result when
// nothing (or too much) matches.
func (e *Engine) Match(alias, input string) (catalog.Match, result.Result) {
	matches := e.catalog.Match(alias)
	if len(matches) == 0 {
		return catalog.Match{}, result.Fail(result.CodeCommandNotFound, "unknown command %q", alias)
	}
	tokens := 0
	if toks, err := e.tokenizer.Tokenize(input); err == nil {
		tokens = len(toks)
	}
	m, _, err := catalog.Select(matches, tokens, e.cfg.MultiMatch, e.cfg.IgnoreExtraArgs)
	if err != nil {
		return catalog.Match{}, result.Fail(result.CodeAmbiguousMatch, "%v", err)
	}
	return m, nil
}

// Dispatch resolves alias through the catalog and runs the pipeline for the
// raw argument text input. A lookup failure is returned as a result without
// running the pipeline. The error is non-nil only for hard faults.
func (e *Engine) Dispatch(ctx context.Context, alias, input string) (result.Result, error) {
	m, fail := e.Match(alias, input)
	if fail != nil {
		e.logger.Debug("dispatch rejected", "alias", alias, "code", fail.Code())
		return fail, nil
	}
	return e.Execute(ctx, m, input)
}

// DispatchLine splits line into an alias and argument text at the first
// separator, then dispatches.
func (e *Engine) DispatchLine(ctx context.Context, line string) (result.Result, error) {
	alias, input := e.SplitLine(line)
	if alias == "" {
		return result.Fail(result.CodeCommandNotFound, "empty command line"), nil
	}
	return e.Dispatch(ctx, alias, input)
}

// SplitLine separates the alias from the argument text.
func (e *Engine) SplitLine(line string) (alias, input string) {
	sep := e.cfg.Separator
	line = strings.TrimSpace(line)
	for strings.HasPrefix(line, sep) {
		line = line[len(sep):]
	}
	alias, input, _ = strings.Cut(line, sep)
	return alias, input
}

// Execute runs the pipeline for an already resolved match.
func (e *Engine) Execute(ctx context.Context, m catalog.Match, input string) (result.Result, error) {
	e.mu.RLock()
	dispatch, closed := e.dispatch, e.closed
	e.mu.RUnlock()
	switch {
	case closed:
		return nil, ErrClosed
	case dispatch == nil:
		return nil, ErrNotBuilt
	}

	rc := request.New(m.Alias, input, e.services.CreateScope(ctx))
	defer func() {
		if err := rc.Close(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("failed to release request resources", "id", rc.ID(), "error", err)
		}
	}()
	if err := rc.Match(m.Command); err != nil {
		return nil, err
	}

	err := dispatch(request.WithContext(ctx, rc), rc)
	// A component that short-circuits without a result skips the terminal check.
	if err == nil && rc.Result() == nil {
		err = &pipeline.PipelineIncompleteError{Missing: pipeline.MissingResult}
	}
	if err == nil {
		err = rc.Complete()
	}
	if err != nil {
		rc.Fail(err)
		return nil, fmt.Errorf("dispatch %q: %w", m.Alias, err)
	}
	return rc.Result(), nil
}

// Wait blocks until every handler started in concurrent mode has finished.
func (e *Engine) Wait() error {
	return e.group.Wait()
}

// Close rejects new dispatches, waits for concurrent handlers and releases
// singleton module instances.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	return errors.Join(e.group.Wait(), e.activator.Close(ctx))
}
