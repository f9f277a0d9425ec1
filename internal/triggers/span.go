package triggers

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

func spanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}
