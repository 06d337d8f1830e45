package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/godeps/lineweb-go/pkg/apierr"
	"github.com/godeps/lineweb-go/pkg/telemetry"
)

// Logging logs every exchange at Debug and failures at Warn. URLs are masked
// through filter plus the call's secrets before they are written.
type Logging struct {
	logger *slog.Logger
	filter *telemetry.Filter
	now    func() time.Time
}

// NewLogging builds a logging middleware. A nil logger uses slog.Default().
func NewLogging(logger *slog.Logger, filter *telemetry.Filter) *Logging {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logging{logger: logger, filter: filter, now: time.Now}
}

func (m *Logging) Name() string  { return "logging" }
func (m *Logging) Priority() int { return 100 }

func (m *Logging) Execute(ctx context.Context, call *Call, next CallFunc) (*Result, error) {
	if next == nil {
		return nil, ErrMissingNext
	}
	start := m.now()
	res, err := next(ctx, call)
	attrs := []any{
		slog.String("request_id", call.ID),
		slog.String("operation", call.Operation),
		slog.String("method", call.Method),
		slog.String("url", m.mask(call)),
		slog.Duration("duration", m.now().Sub(start)),
	}
	if res != nil {
		attrs = append(attrs, slog.Int("status", res.Status))
	}
	if err != nil {
		attrs = append(attrs, slog.String("code", string(apierr.CodeOf(err))), slog.String("error", m.filter.WithLiterals(call.Secrets...).MaskText(err.Error())))
		m.logger.WarnContext(ctx, "lineweb: request failed", attrs...)
		return res, err
	}
	m.logger.DebugContext(ctx, "lineweb: request completed", attrs...)
	return res, nil
}

func (m *Logging) mask(call *Call) string {
	if m.filter == nil {
		return call.URL
	}
	return m.filter.WithLiterals(call.Secrets...).MaskText(call.URL)
}
