// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/MariBotOfficial/MariCommands-sub001/internal/middleware"
)

// logExporter writes finished spans to a charm logger, one line per span.
type logExporter struct {
	logger *log.Logger
}

func (e logExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		kv := []any{
			"trace", s.SpanContext().TraceID().String(),
			"elapsed", s.EndTime().Sub(s.StartTime()),
		}
		for _, attr := range s.Attributes() {
			kv = append(kv, string(attr.Key), attr.Value.Emit())
		}
		if st := s.Status(); st.Code == codes.Error {
			e.logger.Warn(s.Name(), append(kv, "status", st.Description)...)
			continue
		}
		e.logger.Info(s.Name(), kv...)
	}
	return nil
}

func (logExporter) Shutdown(context.Context) error { return nil }

// enableTracing installs a synchronous tracer provider whose spans are
// logged to stderr. Engines built afterwards pick up its tracer.
func (a *App) enableTracing() {
	exp := logExporter{logger: log.NewWithOptions(a.stderr, log.Options{Prefix: "trace"})}
	a.provider = sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	a.tracer = a.provider.Tracer(middleware.TracerName)
}

func (a *App) shutdownTracing(ctx context.Context) error {
	if a.provider == nil {
		return nil
	}
	err := a.provider.Shutdown(context.WithoutCancel(ctx))
	a.provider, a.tracer = nil, nil
	return err
}
