package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superstore-dashboard/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.in))
		})
	}
}

func TestLoggerAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, config.LoggerConfig{Level: "info", Format: "json"})

	ctx := WithRequestID(context.Background(), "req-42")
	logger.InfoContext(ctx, "hello")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "req-42", rec["request_id"])
	assert.NotContains(t, rec, "trace_id")
}

func TestLoggerTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, config.LoggerConfig{Level: "warn", Format: "text"})

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "k=v")
}

func TestRequestIDRoundTrip(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
	assert.Equal(t, "abc", GetRequestID(WithRequestID(context.Background(), "abc")))
}

func TestInitTracingNone(t *testing.T) {
	shutdown, err := InitTracing(config.TelemetryConfig{TraceExporter: "none"}, slog.Default())
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	_, err = InitTracing(config.TelemetryConfig{TraceExporter: "jaeger"}, slog.Default())
	assert.Error(t, err)
}

func TestStartSpanAndRecordError(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test.op")
	defer span.End()

	assert.NotNil(t, ctx)
	RecordError(span, nil)
	RecordError(span, errors.New("boom"))
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveHTTP(http.MethodGet, "/api/kpis", 200, 15*time.Millisecond)
	m.ObserveHTTP(http.MethodGet, "/api/kpis", 200, 5*time.Millisecond)
	m.ObserveLoad(10, 2, 1, 0)
	m.ObserveForecast("ok")
	m.ObserveCache("miss")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/kpis", "200")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.rowsLoaded))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.rowsDropped.WithLabelValues("bad_date")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.forecasts.WithLabelValues("ok")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "superstore_rows_loaded_total 10"))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveHTTP("GET", "/", 200, time.Second)
	m.ObserveLoad(1, 1, 1, 1)
	m.ObserveSnapshot(time.Second)
	m.ObserveForecast("ok")
	m.ObserveCache("memory")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
