package nbi

import (
	"context"
	"fmt"

	"github.com/signalsfoundry/cablegrid/internal/logging"
	"github.com/signalsfoundry/cablegrid/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const tracerName = "github.com/signalsfoundry/cablegrid/internal/nbi"

// entityAttrKeys maps request fields naming grid entities to span attributes.
var entityAttrKeys = []struct {
	field string
	attr  string
}{
	{"id", "grid.entity_id"},
	{"cable_id", "grid.cable_id"},
	{"start_id", "grid.start_point_id"},
	{"end_id", "grid.end_point_id"},
	{"prev", "grid.prev_structure_id"},
}

// TracingUnaryServerInterceptor names the RPC span NBI/<service>/<method>,
// starting one when no stats handler has, and tags it with the request ID,
// the grid entity IDs found in the request and the resulting status code.
func TracingUnaryServerInterceptor() grpc.UnaryServerInterceptor {
	tracer := otel.Tracer(tracerName)

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		service, method := observability.SplitMethod(info.FullMethod)
		spanName := fmt.Sprintf("NBI/%s/%s", service, method)

		span := trace.SpanFromContext(ctx)
		created := false
		if span.SpanContext().IsValid() {
			span.SetName(spanName)
		} else {
			ctx, span = tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindServer))
			created = true
		}

		span.SetAttributes(
			attribute.String("rpc.system", "grpc"),
			attribute.String("rpc.service", service),
			attribute.String("rpc.method", method),
		)
		if reqID := logging.RequestIDFromContext(ctx); reqID != "" {
			span.SetAttributes(attribute.String("request_id", reqID))
		}
		if in, ok := req.(*structpb.Struct); ok {
			span.SetAttributes(entityAttributes(in)...)
		}

		resp, err := handler(ctx, req)
		code := status.Code(err)
		span.SetAttributes(attribute.String("rpc.grpc.status_code", code.String()))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, code.String())
		}

		if created {
			span.End()
		}
		return resp, err
	}
}

func entityAttributes(in *structpb.Struct) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	for _, k := range entityAttrKeys {
		if v := in.GetFields()[k.field].GetStringValue(); v != "" {
			attrs = append(attrs, attribute.String(k.attr, v))
		}
	}
	return attrs
}

// StartChildSpan starts a span for work inside a handler, such as a cascade
// removal. entityType and entityID are optional.
func StartChildSpan(ctx context.Context, name, entityType, entityID string, extra ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs := make([]attribute.KeyValue, 0, len(extra)+2)
	if entityType != "" {
		attrs = append(attrs, attribute.String("grid.entity_type", entityType))
	}
	if entityID != "" {
		attrs = append(attrs, attribute.String("grid.entity_id", entityID))
	}
	attrs = append(attrs, extra...)
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}
