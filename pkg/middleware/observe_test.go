package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/godeps/lineweb-go/pkg/apierr"
	"github.com/godeps/lineweb-go/pkg/telemetry"
)

func TestLoggingMasksSecretsAndCursors(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	filter, err := telemetry.NewFilter(telemetry.FilterConfig{})
	require.NoError(t, err)

	mw := NewLogging(logger, filter)
	call := &Call{
		ID:        "req-1",
		Operation: "chats",
		Method:    http.MethodGet,
		URL:       "https://chat.line.biz/api/v2/bots/x/chats?limit=25&next=cursorXYZ&leak=cookieval",
		Secrets:   []string{"cookieval"},
	}
	_, err = mw.Execute(context.Background(), call, func(ctx context.Context, call *Call) (*Result, error) {
		return &Result{Status: 200}, nil
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "request completed")
	assert.Contains(t, out, "status=200")
	assert.Contains(t, out, "request_id=req-1")
	assert.NotContains(t, out, "cursorXYZ")
	assert.NotContains(t, out, "cookieval")
}

func TestLoggingReportsFailuresAtWarn(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	mw := NewLogging(logger, nil)

	wantErr := apierr.New(apierr.CodeExpiredSession, "expired").WithStatus(401)
	res, err := mw.Execute(context.Background(), &Call{Operation: "me"}, func(ctx context.Context, call *Call) (*Result, error) {
		return &Result{Status: 401}, wantErr
	})
	require.ErrorIs(t, err, apierr.ErrExpiredSession)
	require.NotNil(t, res)

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "code=EXPIRED_COOKIE")
	assert.Contains(t, out, "status=401")
}

func TestTracingRecordsSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)))
	mgr, err := telemetry.NewManager(telemetry.Config{TracerProvider: tp})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Shutdown(context.Background()) })

	mw := NewTracing(mgr)
	_, err = mw.Execute(context.Background(), &Call{ID: "r", Operation: "bots", Method: http.MethodGet, URL: "https://h/api/v1/bots?next=tok"}, func(ctx context.Context, call *Call) (*Result, error) {
		return &Result{Status: 200}, nil
	})
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "lineweb.bots", spans[0].Name)
	for _, attr := range spans[0].Attributes {
		if attr.Key == "url.full" {
			assert.NotContains(t, attr.Value.AsString(), "tok")
		}
		if attr.Key == "http.response.status_code" {
			assert.EqualValues(t, 200, attr.Value.AsInt64())
		}
	}
}

func TestTracingWithoutManagerPassesThrough(t *testing.T) {
	telemetry.SetDefault(nil)
	res, err := NewTracing(nil).Execute(context.Background(), &Call{}, func(ctx context.Context, call *Call) (*Result, error) {
		return &Result{Status: 204}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 204, res.Status)
}
