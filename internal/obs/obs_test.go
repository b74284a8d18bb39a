package obs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_Level(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: "debug", App: "test"})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = NewLogger(LogConfig{Level: "chatty", App: "test"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := zap.NewExample()
	assert.Same(t, l, OrNop(l))
}

func TestWithTrace_NoSpan(t *testing.T) {
	l := zap.NewExample()
	assert.Same(t, l, WithTrace(context.Background(), l))
	assert.NotNil(t, WithTrace(context.Background(), nil))
}

func TestWithTrace_AddsIDs(t *testing.T) {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{1},
		SpanID:  trace.SpanID{2},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	l := zap.NewExample()
	assert.NotSame(t, l, WithTrace(ctx, l))
}

func TestHealthHandler(t *testing.T) {
	ok := HealthHandler(func(context.Context) error { return nil }, nil)
	rec := httptest.NewRecorder()
	ok.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	down := HealthHandler(func(context.Context) error { return errors.New("db gone") }, nil)
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSetupOTel_Disabled(t *testing.T) {
	shutdown, err := SetupOTel(context.Background(), OTELConfig{}, "test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
