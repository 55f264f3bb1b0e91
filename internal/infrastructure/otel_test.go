package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metricNames(t *testing.T, providers *OTelProviders) []string {
	t.Helper()
	families, err := providers.Registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	return names
}

func containsPrefix(names []string, prefix string) bool {
	for _, n := range names {
		if strings.HasPrefix(n, prefix) {
			return true
		}
	}
	return false
}

func TestInitializeOTel_Disabled(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.MetricExporter = "none"
	cfg.TraceExporter = "none"

	providers, err := InitializeOTel(context.Background(), cfg, NewLogger(&bytes.Buffer{}, "error"))
	require.NoError(t, err)

	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.MeterProvider)
	assert.Nil(t, providers.Registry)
	require.NotNil(t, providers.Tracer)
	require.NotNil(t, providers.Meter)

	metrics, err := CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)
	RecordRows(context.Background(), metrics, "train", 10)

	assert.NoError(t, providers.PushMetrics(context.Background()))
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTel_PrometheusMetrics(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.TraceExporter = "none"

	providers, err := InitializeOTel(context.Background(), cfg, NewLogger(&bytes.Buffer{}, "error"))
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())
	require.NotNil(t, providers.Registry)

	metrics, err := CreatePipelineMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	RecordOperationMetrics(ctx, metrics, "featurize", time.Second, nil)
	RecordOperationMetrics(ctx, metrics, "featurize", time.Second, errors.New("boom"))
	RecordOperationStepMetrics(ctx, metrics, "load", 10*time.Millisecond, true)
	RecordRows(ctx, metrics, "train", 42)
	RecordScore(ctx, metrics, "rmspe", "mean", -0.12)

	names := metricNames(t, providers)
	for _, prefix := range []string{
		"operation_executions",
		"operation_errors",
		"operation_step_duration",
		"pipeline_rows_processed",
		"evaluation_score",
	} {
		assert.True(t, containsPrefix(names, prefix), "missing metric %s in %v", prefix, names)
	}
}

func TestInitializeOTel_StdoutTraces(t *testing.T) {
	var out bytes.Buffer
	cfg := DefaultOTelConfig()
	cfg.TraceExporter = "stdout"
	cfg.MetricExporter = "none"
	cfg.TraceWriter = &out

	providers, err := InitializeOTel(context.Background(), cfg, NewLogger(&bytes.Buffer{}, "error"))
	require.NoError(t, err)

	ctx, span := providers.Tracer.Start(context.Background(), "featurize")
	assert.NotEmpty(t, TraceIDFromContext(ctx))
	AddSpanEvent(ctx, "rows", map[string]interface{}{"count": 3, "table": "train", "ok": true})
	RecordError(ctx, errors.New("bad row"))
	span.End()

	require.NoError(t, providers.Shutdown(context.Background()))
	assert.Contains(t, out.String(), "featurize")
	assert.Contains(t, out.String(), "bad row")
}

func TestInitializeOTel_UnsupportedExporter(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.TraceExporter = "otlp"

	_, err := InitializeOTel(context.Background(), cfg, NewLogger(&bytes.Buffer{}, "error"))
	assert.Error(t, err)
}
