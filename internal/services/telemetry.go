package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "mailbox-server/internal/services"

// telemetry records a span, a counter and a latency histogram per service
// operation.
type telemetry struct {
	tracer   trace.Tracer
	ops      metric.Int64Counter
	duration metric.Float64Histogram
}

// newTelemetry uses the global OpenTelemetry providers installed by
// observability.Setup. They are no-ops when no exporter is configured.
func newTelemetry() *telemetry {
	return newTelemetryWith(otel.GetTracerProvider(), otel.GetMeterProvider())
}

func newTelemetryWith(tp trace.TracerProvider, mp metric.MeterProvider) *telemetry {
	t := &telemetry{tracer: tp.Tracer(instrumentationName)}
	if err := t.initMetrics(mp.Meter(instrumentationName)); err != nil {
		otel.Handle(err)
		_ = t.initMetrics(noop.NewMeterProvider().Meter(instrumentationName))
	}
	return t
}

func (t *telemetry) initMetrics(meter metric.Meter) error {
	var err error
	t.ops, err = meter.Int64Counter(
		"mailbox.operations",
		metric.WithDescription("Number of mailbox service operations by name and outcome"),
	)
	if err != nil {
		return err
	}
	t.duration, err = meter.Float64Histogram(
		"mailbox.operation.duration",
		metric.WithDescription("Duration of mailbox service operations"),
		metric.WithUnit("s"),
	)
	return err
}

// start opens a span for op. The returned func must be called with the
// operation's final error.
func (t *telemetry) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	began := time.Now()
	ctx, span := t.tracer.Start(ctx, "mailbox."+op, trace.WithAttributes(attrs...))

	return ctx, func(err error) {
		outcome := "ok"
		switch {
		case err == nil:
		case isDomainError(err):
			outcome = "rejected"
			span.SetAttributes(attribute.String("mailbox.rejection", err.Error()))
		default:
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		set := metric.WithAttributes(attribute.String("operation", op), attribute.String("outcome", outcome))
		t.ops.Add(ctx, 1, set)
		t.duration.Record(ctx, time.Since(began).Seconds(), set)
		span.End()
	}
}
