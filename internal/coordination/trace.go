// internal/coordination/trace.go
package coordination

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func traceAttrs[H any](s Scope[H]) []trace.SpanStartOption {
	return []trace.SpanStartOption{
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("redislock.kind", s.Kind),
			attribute.String("redislock.name", s.Name),
			attribute.Bool("redislock.renewing", s.Renew != nil && s.RenewInterval > 0),
		),
	}
}
