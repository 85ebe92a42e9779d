package instrument

import (
	"context"

	"go.opentelemetry.io/otel/propagation"
)

// MessageHeaderCorrelationID is the message header carrying the correlation id.
const MessageHeaderCorrelationID = "cID"

type correlationKey struct{}

var messagePropagator = propagation.TraceContext{}

// SetCorrelationID stores the request correlation id in ctx.
func SetCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// GetCorrelationID returns the correlation id stored in ctx, or "".
func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// MessageHeaders returns the headers a published event carries: the
// correlation id and, when a span is active, its W3C traceparent.
func MessageHeaders(ctx context.Context) map[string]string {
	h := map[string]string{}
	if cID := GetCorrelationID(ctx); cID != "" {
		h[MessageHeaderCorrelationID] = cID
	}
	messagePropagator.Inject(ctx, propagation.MapCarrier(h))
	return h
}

// FromMessageHeaders restores what MessageHeaders stored. newID is used when
// the message has no correlation id.
func FromMessageHeaders(ctx context.Context, headers map[string]string, newID func() string) context.Context {
	ctx = messagePropagator.Extract(ctx, propagation.MapCarrier(headers))

	cID := headers[MessageHeaderCorrelationID]
	if cID == "" && newID != nil {
		cID = newID()
	}
	return SetCorrelationID(ctx, cID)
}
