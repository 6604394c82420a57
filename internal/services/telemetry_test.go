package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type recordedTelemetry struct {
	reader *sdkmetric.ManualReader
	spans  *tracetest.SpanRecorder
}

func instrument(t *testing.T, svc *MessageService) *recordedTelemetry {
	t.Helper()
	rec := &recordedTelemetry{reader: sdkmetric.NewManualReader(), spans: tracetest.NewSpanRecorder()}
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec.spans))
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(rec.reader))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})
	svc.tel = newTelemetryWith(tp, mp)
	return rec
}

// outcomes returns the mailbox.operations counter keyed by "operation/outcome".
func (r *recordedTelemetry) outcomes(t *testing.T) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, r.reader.Collect(context.Background(), &rm))

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "mailbox.operations" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "unexpected data type %T", m.Data)
			for _, dp := range sum.DataPoints {
				op, _ := dp.Attributes.Value("operation")
				outcome, _ := dp.Attributes.Value("outcome")
				counts[op.AsString()+"/"+outcome.AsString()] += dp.Value
			}
		}
	}
	return counts
}

func (r *recordedTelemetry) span(t *testing.T, name string) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, s := range r.spans.Ended() {
		if s.Name() == name {
			return s
		}
	}
	t.Fatalf("no ended span named %s", name)
	return nil
}

func TestTelemetry_RecordsOutcomes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob := e.signup(t, "alice"), e.signup(t, "bob")
	rec := instrument(t, e.messages)

	v := e.send(t, alice, bob, "Hi")

	_, err := e.messages.MarkRead(ctx, v.ID, alice.ID)
	require.ErrorIs(t, err, ErrNotParticipant)

	sqlDB, err := e.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	_, err = e.messages.UnreadCount(ctx, bob.ID)
	require.Error(t, err)
	require.False(t, isDomainError(err))

	assert.Equal(t, map[string]int64{
		"send/ok":            1,
		"mark_read/rejected": 1,
		"unread_count/error": 1,
	}, rec.outcomes(t))

	sent := rec.span(t, "mailbox.send")
	assert.Equal(t, codes.Unset, sent.Status().Code)
	assert.Contains(t, sent.Attributes(), attribute.Int64("sender_id", int64(alice.ID)))

	rejected := rec.span(t, "mailbox.mark_read")
	assert.Equal(t, codes.Unset, rejected.Status().Code)
	assert.Contains(t, rejected.Attributes(), attribute.String("mailbox.rejection", ErrNotParticipant.Error()))

	failed := rec.span(t, "mailbox.unread_count")
	assert.Equal(t, codes.Error, failed.Status().Code)
	assert.NotEmpty(t, failed.Events(), "error should be recorded on the span")
}
