// SPDX-License-Identifier: MPL-2.0

package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/MariBotOfficial/MariCommands-sub001/internal/pipeline"
	"github.com/MariBotOfficial/MariCommands-sub001/internal/request"
)

// TracerName is the instrumentation scope used by Tracing.
const TracerName = "github.com/MariBotOfficial/MariCommands-sub001"

// Tracing wraps each dispatch in a span from the global tracer provider.
func Tracing() pipeline.Component {
	return TracingWithTracer(otel.Tracer(TracerName))
}

// TracingWithTracer wraps each dispatch in a span from tracer.
func TracingWithTracer(tracer trace.Tracer) pipeline.Component {
	return func(next pipeline.DispatchFunc) pipeline.DispatchFunc {
		return func(ctx context.Context, rc *request.Context) error {
			attrs := []attribute.KeyValue{
				attribute.String("maricmd.request.id", rc.ID()),
				attribute.String("maricmd.alias", rc.Alias()),
			}
			if cmd := rc.Command(); cmd != nil {
				attrs = append(attrs, attribute.String("maricmd.command", cmd.Name()))
			}
			ctx, span := tracer.Start(ctx, "maricmd.dispatch",
				trace.WithAttributes(attrs...),
				trace.WithSpanKind(trace.SpanKindInternal),
			)
			defer span.End()

			err := next(ctx, rc)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return err
			}
			if r := rc.Result(); r != nil {
				span.SetAttributes(attribute.String("maricmd.result.code", string(r.Code())))
				if !r.Success() {
					span.SetStatus(codes.Error, r.Reason())
					return nil
				}
			}
			span.SetStatus(codes.Ok, "")
			return nil
		}
	}
}
