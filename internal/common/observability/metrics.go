package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"

	"worth-it/internal/analytics"
	"worth-it/internal/common/logger"
	"worth-it/internal/models"
	"worth-it/internal/scoring"
)

// Observability owns the OpenTelemetry meter provider and the instruments
// recorded by job workers and the workflow.
type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	jobCounter    otelmetric.Int64Counter
	jobDuration   otelmetric.Float64Histogram
	eventCounter  otelmetric.Int64Counter
	goalScore     otelmetric.Float64Histogram
	incomeSavings otelmetric.Float64Histogram
}

// New exports through the Prometheus default registry. On exporter failure it
// logs and returns an Observability whose recorders do nothing.
func New(serviceName string, log logger.Logger) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Error("failed to create prometheus exporter", map[string]interface{}{"error": err})
		return &Observability{}
	}

	o := NewWithReader(serviceName, exporter)
	otel.SetMeterProvider(o.meterProvider)
	return o
}

// NewWithReader builds on an explicit reader; tests pass a manual reader.
func NewWithReader(serviceName string, reader metric.Reader) *Observability {
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	meter := provider.Meter(serviceName)

	jobCounter, _ := meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)

	jobDuration, _ := meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)

	eventCounter, _ := meter.Int64Counter(
		"workflow.events",
		otelmetric.WithDescription("Workflow analytics events"),
	)

	goalScore, _ := meter.Float64Histogram(
		"goal.score",
		otelmetric.WithDescription("Evaluated goal scores"),
		otelmetric.WithExplicitBucketBoundaries(10, 25, 50, 75, 95, 100),
	)

	incomeSavings, _ := meter.Float64Histogram(
		"income.hourly_savings",
		otelmetric.WithDescription("Submitted savings potential per working hour"),
	)

	return &Observability{
		meterProvider: provider,
		meter:         meter,
		jobCounter:    jobCounter,
		jobDuration:   jobDuration,
		eventCounter:  eventCounter,
		goalScore:     goalScore,
		incomeSavings: incomeSavings,
	}
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string) {
	if o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = o.meterProvider.Shutdown(ctx)
	}
}

func (o *Observability) event(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	if o.eventCounter != nil {
		attrs = append(attrs, attribute.String("event", name))
		o.eventCounter.Add(ctx, 1, otelmetric.WithAttributes(attrs...))
	}
}

// ==========================
// analytics.Sink
// ==========================

func (o *Observability) IncomeSaved(ctx context.Context, p models.IncomeProfile) {
	o.event(ctx, analytics.EventIncomeSaved, attribute.String("currency", string(p.Currency)))
	if o.incomeSavings != nil {
		o.incomeSavings.Record(ctx, scoring.ComputeSavings(p).Hourly, otelmetric.WithAttributes(
			attribute.String("currency", string(p.Currency)),
		))
	}
}

func (o *Observability) GoalSaved(ctx context.Context, g models.Goal, currency models.Currency) {
	o.event(ctx, analytics.EventGoalSaved,
		attribute.String("goal_type", string(g.Type)),
		attribute.String("currency", string(currency)))
}

func (o *Observability) GoalUpdated(ctx context.Context, g models.Goal, currency models.Currency) {
	o.event(ctx, analytics.EventGoalUpdated,
		attribute.String("goal_type", string(g.Type)),
		attribute.String("currency", string(currency)))
}

func (o *Observability) GoalEvaluated(ctx context.Context, r models.GoalResult) {
	o.event(ctx, analytics.EventGoalEvaluated, attribute.String("verdict", string(r.Verdict)))
	if o.goalScore != nil {
		o.goalScore.Record(ctx, r.GoalScore, otelmetric.WithAttributes(
			attribute.String("goal_type", string(r.Type)),
		))
	}
}

func (o *Observability) HistoryCleared(ctx context.Context) {
	o.event(ctx, analytics.EventHistoryCleared)
}
