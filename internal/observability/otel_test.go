package observability

import (
	"bytes"
	"context"
	"testing"
	"time"

	"mailbox-server/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func restoreGlobals(t *testing.T) {
	tp, mp := otel.GetTracerProvider(), otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetMeterProvider(mp)
	})
}

func TestSetup_None(t *testing.T) {
	restoreGlobals(t)
	before := otel.GetTracerProvider()

	shutdown, err := Setup(config.TelemetryConfig{Exporter: "none"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.Equal(t, before, otel.GetTracerProvider())
}

func TestSetup_Stdout(t *testing.T) {
	restoreGlobals(t)
	var buf bytes.Buffer

	shutdown, err := Setup(config.TelemetryConfig{
		Exporter:       "stdout",
		ServiceName:    "mailbox-test",
		MetricInterval: time.Hour,
	}, &buf)
	require.NoError(t, err)

	ctx := context.Background()
	_, span := otel.Tracer("test").Start(ctx, "mailbox.send")
	span.End()
	counter, err := otel.Meter("test").Int64Counter("mailbox.operations")
	require.NoError(t, err)
	counter.Add(ctx, 1)

	require.NoError(t, shutdown(ctx))
	assert.Contains(t, buf.String(), "mailbox.send")
	assert.Contains(t, buf.String(), "mailbox.operations")
	assert.Contains(t, buf.String(), "mailbox-test")
}

func TestSetup_UnknownExporter(t *testing.T) {
	_, err := Setup(config.TelemetryConfig{Exporter: "zipkin"}, &bytes.Buffer{})
	assert.Error(t, err)
}
