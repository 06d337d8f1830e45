package middleware

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/godeps/lineweb-go/pkg/apierr"
	"github.com/godeps/lineweb-go/pkg/telemetry"
)

// Tracing opens a client span per exchange and records request metrics.
type Tracing struct {
	manager *telemetry.Manager
}

// NewTracing builds a tracing middleware. A nil manager falls back to
// telemetry.Default() at call time.
func NewTracing(manager *telemetry.Manager) *Tracing {
	return &Tracing{manager: manager}
}

func (m *Tracing) Name() string  { return "tracing" }
func (m *Tracing) Priority() int { return 200 }

func (m *Tracing) Execute(ctx context.Context, call *Call, next CallFunc) (*Result, error) {
	if next == nil {
		return nil, ErrMissingNext
	}
	mgr := m.manager
	if mgr == nil {
		mgr = telemetry.Default()
	}
	if mgr == nil {
		return next(ctx, call)
	}

	attrs := mgr.SanitizeAttributes(
		attribute.String("lineweb.request_id", call.ID),
		attribute.String("lineweb.operation", call.Operation),
		attribute.String("http.request.method", call.Method),
		attribute.String("url.full", call.URL),
	)
	ctx, span := mgr.StartSpan(ctx, "lineweb."+call.Operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	res, err := next(ctx, call)

	data := telemetry.RequestData{
		Operation: call.Operation,
		Method:    call.Method,
		Error:     err,
		ErrorCode: string(apierr.CodeOf(err)),
	}
	if res != nil {
		data.Status = res.Status
		data.Duration = res.Duration
		span.SetAttributes(attribute.Int("http.response.status_code", res.Status))
	}
	mgr.RecordRequest(ctx, data)
	telemetry.EndSpan(span, err)
	return res, err
}
