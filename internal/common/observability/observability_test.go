package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"worth-it/internal/analytics"
	"worth-it/internal/common/logger"
	"worth-it/internal/models"
)

var _ analytics.Sink = (*Observability)(nil)

func collect(t *testing.T, reader *metric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestSinkRecordsEvents(t *testing.T) {
	reader := metric.NewManualReader()
	o := NewWithReader("worth-it-test", reader)
	defer o.Shutdown()
	ctx := context.Background()

	goal := models.Goal{ID: "g1", Type: models.GoalTypeExperience}
	o.IncomeSaved(ctx, models.IncomeProfile{
		MonthlyIncome: 5000, Currency: models.CurrencyUSD, SavingsPercentage: 20, HoursPerDay: 8, DaysPerWeek: 5,
	})
	o.GoalSaved(ctx, goal, models.CurrencyUSD)
	o.GoalEvaluated(ctx, models.GoalResult{Goal: goal, GoalScore: 96, Verdict: models.VerdictJustDoIt})
	o.HistoryCleared(ctx)

	got := collect(t, reader)

	events, ok := got["workflow.events"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	byEvent := map[string]int64{}
	for _, dp := range events.DataPoints {
		name, _ := dp.Attributes.Value(attribute.Key("event"))
		byEvent[name.AsString()] += dp.Value
	}
	assert.Equal(t, map[string]int64{
		analytics.EventIncomeSaved:    1,
		analytics.EventGoalSaved:      1,
		analytics.EventGoalEvaluated:  1,
		analytics.EventHistoryCleared: 1,
	}, byEvent)

	score, ok := got["goal.score"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, score.DataPoints, 1)
	assert.Equal(t, uint64(1), score.DataPoints[0].Count)
	assert.Equal(t, 96.0, score.DataPoints[0].Sum)

	hourly, ok := got["income.hourly_savings"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hourly.DataPoints, 1)
	assert.InDelta(t, 5000*0.2*12/(8*5*52.0), hourly.DataPoints[0].Sum, 1e-9)
}

func TestRecordJob(t *testing.T) {
	reader := metric.NewManualReader()
	o := NewWithReader("worth-it-test", reader)
	ctx := context.Background()

	o.RecordJobProcessed(ctx, "evaluate-goal", "completed")
	o.RecordJobDuration(ctx, "evaluate-goal", 15*time.Millisecond, "completed")

	got := collect(t, reader)
	assert.Contains(t, got, "jobs.processed")
	assert.Contains(t, got, "jobs.duration")
}

func TestZeroObservabilityIsSafe(t *testing.T) {
	var o Observability
	ctx := context.Background()

	assert.NotPanics(t, func() {
		o.RecordJobProcessed(ctx, "t", "failed")
		o.GoalEvaluated(ctx, models.GoalResult{})
		o.IncomeSaved(ctx, models.IncomeProfile{HoursPerDay: 8, DaysPerWeek: 5})
		o.Shutdown()
	})
}

func TestTracerProviderLogsSpans(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tp := NewTracerProvider(logger.NewZapAdapter(zap.New(core)))
	defer ShutdownTracer(tp)

	_, span := tp.Tracer("test").Start(context.Background(), "workflow.SubmitGoal")
	span.SetAttributes(attribute.String("workflow.stage.to", "result"))
	span.End()

	entries := logs.FilterMessage("span finished").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "workflow.SubmitGoal", fields["span"])
	assert.Equal(t, "result", fields["workflow.stage.to"])
}
