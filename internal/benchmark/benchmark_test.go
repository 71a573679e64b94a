// SPDX-License-Identifier: MPL-2.0

package benchmark

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/MariBotOfficial/MariCommands-sub001/internal/binder"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/catalog"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/config"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/demo"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/engine"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/parser"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/testutil"
	"github.com/MariBotOfficial/MariCommands-sub001/pkg/command"
)

func newEngine(b *testing.B) *engine.Engine {
	b.Helper()

	cfg := config.DefaultConfig()
	cfg.Log.Level = config.LogLevelError
	e, err := engine.New(
		engine.WithConfig(cfg),
		engine.WithLogger(log.New(io.Discard)),
	)
	if err != nil {
		b.Fatalf("engine.New() error: %v", err)
	}
	if err := demo.Register(e, testutil.NewFakeClock(time.Time{})); err != nil {
		b.Fatalf("Register() error: %v", err)
	}
	if err := e.Build(); err != nil {
		b.Fatalf("Build() error: %v", err)
	}
	b.Cleanup(func() { _ = e.Close(context.Background()) })
	return e
}

func addCommand(b *testing.B) *command.Command {
	b.Helper()

	cmd, err := command.NewBuilder("add").
		WithParameters(command.NewParameter[int]("a"), command.NewParameter[int]("b")).
		WithHandler(func(a, b int) int { return a + b }).
		Build()
	if err != nil {
		b.Fatalf("Build() error: %v", err)
	}
	return cmd
}

func BenchmarkDispatchLine(b *testing.B) {
	e := newEngine(b)
	ctx := context.Background()

	for _, line := range []string{
		"ping",
		"sum 1 2",
		"sum 1 2 3 4 5 6 7 8",
		"greet ana",
		"fahrenheit 36.6C",
		"nope",
	} {
		b.Run(line, func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				if _, err := e.DispatchLine(ctx, line); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkDispatchParallel(b *testing.B) {
	e := newEngine(b)
	ctx := context.Background()

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := e.DispatchLine(ctx, "count 1"); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkBind(b *testing.B) {
	cmd := addCommand(b)
	ctx := context.Background()

	for _, mode := range []binder.TokenizerMode{binder.ModeSeparator, binder.ModeShell} {
		b.Run(string(mode), func(b *testing.B) {
			tok, err := binder.NewTokenizer(mode, " ")
			if err != nil {
				b.Fatal(err)
			}
			bd := binder.New(parser.NewDefaultRegistry(), tok)

			b.ReportAllocs()
			for b.Loop() {
				if _, r := bd.Bind(ctx, "40 2", cmd, false); r != nil && !r.Success() {
					b.Fatal(r.Reason())
				}
			}
		})
	}
}

func BenchmarkCatalogMatch(b *testing.B) {
	for _, cmp := range []catalog.Comparison{catalog.Ordinal, catalog.IgnoreCase} {
		b.Run(string(cmp), func(b *testing.B) {
			c, err := catalog.New(cmp)
			if err != nil {
				b.Fatal(err)
			}
			if err := c.Add(addCommand(b)); err != nil {
				b.Fatal(err)
			}

			b.ReportAllocs()
			for b.Loop() {
				if len(c.Match("ADD")) == 0 && cmp == catalog.IgnoreCase {
					b.Fatal("no match")
				}
			}
		})
	}
}

func BenchmarkConfigLoad(b *testing.B) {
	cfg := config.DefaultConfig()
	cfg.Separator = ","
	path := filepath.Join(b.TempDir(), "config.cue")
	testutil.MustWriteFile(b, path, config.GenerateCUE(cfg))

	provider := config.NewProvider()
	opts := config.LoadOptions{ConfigFilePath: path, Environment: map[string]string{}}
	ctx := context.Background()

	b.ReportAllocs()
	for b.Loop() {
		if _, err := provider.Load(ctx, opts); err != nil {
			b.Fatal(err)
		}
	}
}
