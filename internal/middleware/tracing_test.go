// SPDX-License-Identifier: MPL-2.0

package middleware

import (
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/MariBotOfficial/MariCommands-sub001/pkg/command"
)

func TestTracingWithTracer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		handler    any
		wantStatus codes.Code
	}{
		{name: "success", handler: func() {}, wantStatus: codes.Ok},
		{name: "failure", handler: func() error { return errors.New("nope") }, wantStatus: codes.Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sr := tracetest.NewSpanRecorder()
			tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
			cmd := mustCommand(t, command.NewBuilder("traced").WithHandler(tt.handler))

			_, err := run(t, cmd, "",
				TracingWithTracer(tp.Tracer("test")),
				Binding(newBinder(), false),
				Execution(ExecutionOptions{Strategies: strategies(t, cmd)}),
			)
			if err != nil {
				t.Fatalf("dispatch error: %v", err)
			}

			spans := sr.Ended()
			if len(spans) != 1 {
				t.Fatalf("got %d spans, want 1", len(spans))
			}
			span := spans[0]
			if span.Name() != "maricmd.dispatch" {
				t.Errorf("span name = %q", span.Name())
			}
			if span.Status().Code != tt.wantStatus {
				t.Errorf("span status = %v, want %v", span.Status().Code, tt.wantStatus)
			}
			found := false
			for _, attr := range span.Attributes() {
				if attr.Key == attribute.Key("maricmd.command") && attr.Value.AsString() == "traced" {
					found = true
				}
			}
			if !found {
				t.Error("span missing maricmd.command attribute")
			}
		})
	}
}
