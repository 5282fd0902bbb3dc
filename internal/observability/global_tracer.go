package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var globalTracer trace.Tracer

// InitGlobalTracer initializes the global tracer for the application.
func InitGlobalTracer() {
	globalTracer = otel.Tracer("civicreport")
}

// GetGlobalTracer returns the global tracer instance for the application.
func GetGlobalTracer() trace.Tracer {
	if globalTracer == nil {
		// Fallback to default tracer if not initialized
		globalTracer = otel.Tracer("civicreport")
	}
	return globalTracer
}

// TraceFunction starts a new span with a descriptive name for the given service and function.
func TraceFunction(ctx context.Context, serviceName, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := GetGlobalTracer()
	spanName := fmt.Sprintf("%s.%s", serviceName, functionName)
	return tracer.Start(ctx, spanName, trace.WithAttributes(attributes...))
}

// TraceTicketFunction starts a new span for a ticket service function.
func TraceTicketFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "ticket", functionName, attributes...)
}

// TraceStoreFunction starts a new span for a ticket store function.
func TraceStoreFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "store", functionName, attributes...)
}

// TraceClassifierFunction starts a new span for a classification adapter function.
func TraceClassifierFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "classifier", functionName, attributes...)
}

// TraceGeocoderFunction starts a new span for a geocoding function.
func TraceGeocoderFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "geocoder", functionName, attributes...)
}

// TraceHandlerFunction starts a new span for a handler function.
func TraceHandlerFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "handler", functionName, attributes...)
}

// TraceWorkerFunction starts a new span for a worker function.
func TraceWorkerFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "worker", functionName, attributes...)
}

// TraceEmailFunction starts a new span for an email function.
func TraceEmailFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "email", functionName, attributes...)
}

// AttributeTicketID returns a tracing attribute for a ticket ID.
func AttributeTicketID(id string) attribute.KeyValue {
	return attribute.String("ticket.id", id)
}

// AttributeTicketStatus returns a tracing attribute for a ticket status.
func AttributeTicketStatus(status string) attribute.KeyValue {
	return attribute.String("ticket.status", status)
}

// AttributeCategory returns a tracing attribute for an issue category.
func AttributeCategory(category string) attribute.KeyValue {
	return attribute.String("ticket.category", category)
}

// AttributeModel returns a tracing attribute for a classification model name.
func AttributeModel(model string) attribute.KeyValue {
	return attribute.String("classifier.model", model)
}

// AttributeTicketCount returns a tracing attribute for a ticket count.
func AttributeTicketCount(n int) attribute.KeyValue {
	return attribute.Int("ticket.count", n)
}
