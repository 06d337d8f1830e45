package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	attrOperation = attribute.Key("lineweb.operation")
	attrMethod    = attribute.Key("http.request.method")
	attrStatus    = attribute.Key("http.response.status_code")
	attrErrorCode = attribute.Key("lineweb.error.code")
	attrFailed    = attribute.Key("lineweb.request.error")
)

type metrics struct {
	requests metric.Int64Counter
	latency  metric.Float64Histogram
	errors   metric.Float64Histogram
	pages    metric.Int64Counter
}

// RequestData describes one HTTP exchange with the chat web API.
type RequestData struct {
	// Operation is the client operation that issued the call, e.g. "chats".
	Operation string
	Method    string
	Status    int
	Duration  time.Duration
	ErrorCode string
	Error     error
}

// PageData describes one page fetched by a paginated operation.
type PageData struct {
	Operation string
	Items     int
}

// meterProvider is the subset of metric.Meter the recorder needs.
type meterProvider interface {
	Int64Counter(name string, opts ...metric.Int64CounterOption) (metric.Int64Counter, error)
	Float64Histogram(name string, opts ...metric.Float64HistogramOption) (metric.Float64Histogram, error)
}

func newMetrics(m meterProvider) (*metrics, error) {
	if m == nil {
		return &metrics{}, nil
	}
	requests, err := m.Int64Counter("lineweb.requests.total", metric.WithDescription("Total number of chat web API calls."))
	if err != nil {
		return nil, err
	}
	latency, err := m.Float64Histogram("lineweb.request.latency.ms", metric.WithDescription("Chat web API call latency in milliseconds."), metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	errorRate, err := m.Float64Histogram("lineweb.errors.rate", metric.WithDescription("Per-call error indicator (0 or 1)."), metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}
	pages, err := m.Int64Counter("lineweb.pages.total", metric.WithDescription("Total number of list pages fetched."))
	if err != nil {
		return nil, err
	}
	return &metrics{requests: requests, latency: latency, errors: errorRate, pages: pages}, nil
}

func (m *metrics) RecordRequest(ctx context.Context, data RequestData) {
	if m == nil || m.requests == nil {
		return
	}
	failed := data.Error != nil
	attrs := make([]attribute.KeyValue, 0, 5)
	if data.Operation != "" {
		attrs = append(attrs, attrOperation.String(data.Operation))
	}
	if data.Method != "" {
		attrs = append(attrs, attrMethod.String(data.Method))
	}
	if data.Status != 0 {
		attrs = append(attrs, attrStatus.Int(data.Status))
	}
	if data.ErrorCode != "" {
		attrs = append(attrs, attrErrorCode.String(data.ErrorCode))
	}
	attrs = append(attrs, attrFailed.Bool(failed))
	opt := metric.WithAttributes(attrs...)

	m.requests.Add(ctx, 1, opt)
	if data.Duration > 0 && m.latency != nil {
		m.latency.Record(ctx, float64(data.Duration.Milliseconds()), opt)
	}
	if m.errors != nil {
		var v float64
		if failed {
			v = 1
		}
		m.errors.Record(ctx, v, opt)
	}
}

func (m *metrics) RecordPage(ctx context.Context, data PageData) {
	if m == nil || m.pages == nil {
		return
	}
	m.pages.Add(ctx, 1, metric.WithAttributes(attrOperation.String(data.Operation)))
}
