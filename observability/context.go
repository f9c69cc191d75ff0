package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Operation tracks one traced authentication step.
type Operation struct {
	Name      string
	StartTime time.Time
	span      trace.Span
}

// StartOperation starts a span named spanName for an authentication step.
func StartOperation(ctx context.Context, spanName, requestID string) (context.Context, *Operation) {
	ctx, span := StartSpan(ctx, spanName)
	if requestID != "" {
		span.SetAttributes(attribute.String(AttrRequestID, requestID))
	}
	return ctx, &Operation{Name: spanName, StartTime: time.Now(), span: span}
}

// SetUsername records the subject of the step once it is known.
func (o *Operation) SetUsername(username string) {
	if username != "" {
		o.span.SetAttributes(attribute.String(AttrUsername, username))
	}
}

// End closes the span with the step outcome. A non-nil err marks the span as failed.
func (o *Operation) End(outcome Outcome, err error) {
	if err != nil {
		o.span.RecordError(err)
		o.span.SetStatus(codes.Error, string(outcome))
		o.span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}
	o.span.SetAttributes(
		attribute.String(AttrOutcome, string(outcome)),
		attribute.Int64(AttrDurationMs, o.Duration().Milliseconds()),
	)
	o.span.End()
}

// Duration returns the elapsed time since the step started.
func (o *Operation) Duration() time.Duration {
	return time.Since(o.StartTime)
}
