// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/MariBotOfficial/MariCommands-sub001/internal/config"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/demo"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/engine"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/request"
	"github.com/MariBotOfficial/MariCommands-sub001/pkg/result"
)

type (
	// App wires CLI services and shared dependencies. Every Cobra handler
	// receives an App and builds its engine through it.
	App struct {
		Config ConfigProvider
		Clock  demo.Clock
		stdout io.Writer
		stderr io.Writer
		// outMu serializes writes from background commands.
		outMu sync.Mutex

		// set from persistent flags
		configPath string
		verbose    bool
		style      string
		tracer     trace.Tracer
		provider   *sdktrace.TracerProvider
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Clock  demo.Clock
		Stdout io.Writer
		Stderr io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Clock == nil {
		deps.Clock = demo.SystemClock()
	}
	return &App{
		Config: deps.Config,
		Clock:  deps.Clock,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
		style:  "dark",
	}
}

func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	return a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.configPath})
}

// newEngine loads the configuration, registers the demo command set and
// builds the pipeline. Background results are written to stderr.
func (a *App) newEngine(ctx context.Context) (*engine.Engine, error) {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level.Level()
	if a.verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(a.stderr, log.Options{Prefix: config.AppName, Level: level})

	opts := []engine.Option{
		engine.WithConfig(cfg),
		engine.WithLogger(logger),
		engine.WithBackgroundHandler(func(rc *request.Context, r result.Result) {
			a.printResult(rc.Alias(), r)
		}),
	}
	if a.tracer != nil {
		opts = append(opts, engine.WithTracer(a.tracer))
	}
	e, err := engine.New(opts...)
	if err != nil {
		return nil, err
	}
	if err := demo.Register(e, a.Clock); err != nil {
		return nil, err
	}
	if err := e.Build(); err != nil {
		return nil, err
	}
	return e, nil
}
