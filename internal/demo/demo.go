// SPDX-License-Identifier: MPL-2.0

// Package demo holds the built-in command set served by the maricmd binary.
// It covers every handler shape the executor supports, module handlers with
// both lifetimes, preconditions and a custom type parser.
package demo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/MariBotOfficial/MariCommands-sub001/internal/engine"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/parser"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/services"
	"github.com/MariBotOfficial/MariCommands-sub001/pkg/command"
	"github.com/MariBotOfficial/MariCommands-sub001/pkg/result"
)

// MaxSleep caps the duration accepted by sleep and later.
const MaxSleep = 10 * time.Second

var (
	// ErrDivisionByZero is reported by the divide precondition.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrDeliberate is returned by the fail command.
	ErrDeliberate = errors.New("deliberate failure")
	// ErrSleepTooLong is returned for durations above MaxSleep.
	ErrSleepTooLong = fmt.Errorf("duration exceeds %s", MaxSleep)
)

type (
	// Celsius is a temperature parsed from "21.5C" or "21.5".
	Celsius float64

	// Clock supplies the time to modules. Tests replace it.
	Clock interface {
		Now() time.Time
	}

	systemClock struct{}

	// Greeter follows the configured module lifetime.
	Greeter struct {
		command.ModuleBase
		clock Clock
	}

	// Counter is a singleton module shared by every request.
	Counter struct {
		n atomic.Int64
	}
)

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// String formats the temperature with one decimal.
func (c Celsius) String() string { return strconv.FormatFloat(float64(c), 'f', 1, 64) + "C" }

// ParseCelsius accepts an optional trailing C or c.
func ParseCelsius(raw string) (Celsius, error) {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSuffix(raw, "C"), "c"), 64)
	if err != nil {
		return 0, fmt.Errorf("not a temperature: %q", raw)
	}
	return Celsius(v), nil
}

// Hello greets name, using the time of day from the injected clock.
func (g *Greeter) Hello(name, greeting string) string {
	if greeting == "" {
		greeting = "good " + partOfDay(g.clock.Now())
	}
	return fmt.Sprintf("%s, %s!", greeting, name)
}

// Whoami reports the request the instance was activated for.
func (g *Greeter) Whoami() string {
	inv := g.Invocation()
	return fmt.Sprintf("request %s via %q", inv.ID(), inv.Alias())
}

// Increment adds step and returns the new total.
func (c *Counter) Increment(step int) result.Result {
	return result.WithValue(c.n.Add(int64(step)))
}

// Total returns the current count.
func (c *Counter) Total() int64 { return c.n.Load() }

func partOfDay(t time.Time) string {
	switch h := t.Hour(); {
	case h < 12:
		return "morning"
	case h < 18:
		return "afternoon"
	default:
		return "evening"
	}
}

// Register adds the parsers, services and commands to e. Call it before
// e.Build.
func Register(e *engine.Engine, clock Clock) error {
	if err := parser.RegisterFunc(e.Parsers(), ParseCelsius); err != nil {
		return err
	}
	services.Singleton(e.Services(), clock)

	cmds, err := Commands()
	if err != nil {
		return err
	}
	return e.Register(cmds...)
}

// Commands builds the command descriptors.
func Commands() ([]*command.Command, error) {
	greeter, err := command.NewModule[*Greeter]("greeter",
		command.WithConstructor(func(c Clock) *Greeter { return &Greeter{clock: c} }))
	if err != nil {
		return nil, err
	}
	counter, err := command.NewModule[*Counter]("counter", command.WithLifetime(command.LifetimeSingleton))
	if err != nil {
		return nil, err
	}

	builders := []*command.Builder{
		command.NewBuilder("ping").
			WithDescription("Reply with pong").
			WithHandler(func() string { return "pong" }),

		command.NewBuilder("echo").
			WithDescription("Repeat the text").
			WithParameters(command.NewParameter[string]("text", command.Remainder(), command.Optional(), command.Default(""))).
			WithHandler(func(text string) string { return text }),

		command.NewBuilder("title").
			WithDescription("Title-case the text").
			WithParameters(command.NewParameter[string]("text", command.Remainder())).
			WithHandler(func(text string) string { return cases.Title(language.English).String(text) }),

		command.NewBuilder("add").
			WithAliases("sum").
			WithDescription("Add two integers").
			WithParameters(
				command.NewParameter[int]("a"),
				command.NewParameter[int]("b"),
			).
			WithIgnoreExtraArgs(false).
			WithHandler(func(a, b int) int { return a + b }),

		command.NewBuilder("total").
			WithAliases("sum").
			WithDescription("Add any number of integers").
			WithParameters(command.NewParameter[[]int]("values", command.Variadic())).
			WithHandler(func(values ...int) int {
				sum := 0
				for _, v := range values {
					sum += v
				}
				return sum
			}),

		command.NewBuilder("divide").
			WithDescription("Divide a by b").
			WithParameters(
				command.NewParameter[float64]("a"),
				command.NewParameter[float64]("b"),
			).
			WithPreconditions(rejectZeroDivisor).
			WithHandler(func(a, b float64) (float64, error) { return a / b, nil }),

		command.NewBuilder("fahrenheit").
			WithDescription("Convert a Celsius temperature").
			WithParameters(command.NewParameter[Celsius]("temp", command.Describe("e.g. 21.5C"))).
			WithHandler(func(c Celsius) string { return fmt.Sprintf("%s = %.1fF", c, float64(c)*9/5+32) }),

		command.NewBuilder("sleep").
			WithDescription("Wait, then report how long").
			WithParameters(command.NewParameter[time.Duration]("duration", command.Optional(), command.Default(100*time.Millisecond))).
			WithHandler(sleepThunk),

		command.NewBuilder("later").
			WithDescription("Like sleep, but answers immediately and reports in the background").
			WithRunMode(command.RunModeConcurrent).
			WithParameters(command.NewParameter[time.Duration]("duration", command.Optional(), command.Default(time.Second))).
			WithHandler(sleepThunk),

		command.NewBuilder("countdown").
			WithDescription("Count down to liftoff").
			WithParameters(command.NewParameter[int]("from", command.Optional(), command.Default(3))).
			WithHandler(countdown),

		command.NewBuilder("fail").
			WithDescription("Always fail").
			WithHandler(func(context.Context) error { return ErrDeliberate }),

		command.NewBuilder("greet").
			WithAliases("hello").
			WithModule(greeter).
			WithDescription("Greet someone").
			WithParameters(
				command.NewParameter[string]("name"),
				command.NewParameter[string]("greeting", command.Optional(), command.Remainder(), command.Default("")),
			).
			WithHandler((*Greeter).Hello),

		command.NewBuilder("whoami").
			WithModule(greeter).
			WithDescription("Show the current request").
			WithHandler((*Greeter).Whoami),

		command.NewBuilder("count").
			WithModule(counter).
			WithDescription("Increment the shared counter").
			WithParameters(command.NewParameter[int]("step", command.Optional(), command.Default(1))).
			WithHandler((*Counter).Increment),
	}

	cmds := make([]*command.Command, 0, len(builders))
	var errs []error
	for _, b := range builders {
		cmd, err := b.Build()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		cmds = append(cmds, cmd)
	}
	return cmds, errors.Join(errs...)
}

func rejectZeroDivisor(_ context.Context, inv command.Invocation) error {
	fields := strings.Fields(inv.Input())
	if len(fields) >= 2 {
		if b, err := strconv.ParseFloat(fields[1], 64); err == nil && b == 0 {
			return ErrDivisionByZero
		}
	}
	return nil
}

func sleepThunk(ctx context.Context, d time.Duration) func() (string, error) {
	return func() (string, error) {
		if d > MaxSleep {
			return "", ErrSleepTooLong
		}
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
			return "slept " + d.String(), nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// countdown answers through a channel once the count reaches zero.
func countdown(ctx context.Context, from int) <-chan result.Result {
	ch := make(chan result.Result, 1)
	go func() {
		defer close(ch)
		if from < 1 || from > 10 {
			ch <- result.Fail(result.CodeFailed, "can only count down from 1 to 10, got %d", from)
			return
		}
		steps := make([]string, 0, from+1)
		for i := from; i >= 1; i-- {
			if ctx.Err() != nil {
				ch <- result.FromError(ctx.Err())
				return
			}
			steps = append(steps, strconv.Itoa(i))
		}
		ch <- result.WithValue(strings.Join(append(steps, "liftoff"), " "))
	}()
	return ch
}
