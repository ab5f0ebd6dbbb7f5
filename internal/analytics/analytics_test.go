// internal/analytics/analytics_test.go
package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"worth-it/internal/common/logger"
	"worth-it/internal/models"
)

func testProfile() models.IncomeProfile {
	return models.IncomeProfile{MonthlyIncome: 3000, Currency: models.CurrencyEUR, SavingsPercentage: 20, HoursPerDay: 8, DaysPerWeek: 5}
}

func testGoal() models.Goal {
	return models.Goal{ID: "g-1", Name: "Bike", Cost: 1200, Type: models.GoalTypeProduct, Years: 5, Impact: 3}
}

func TestMultiFansOutInOrder(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	sink := Multi(a, nil, b)
	ctx := context.Background()

	sink.IncomeSaved(ctx, testProfile())
	sink.GoalSaved(ctx, testGoal(), models.CurrencyEUR)
	sink.GoalUpdated(ctx, testGoal(), models.CurrencyEUR)
	sink.GoalEvaluated(ctx, models.GoalResult{Goal: testGoal(), GoalScore: 80, Verdict: models.VerdictWorth})
	sink.HistoryCleared(ctx)

	expected := []string{EventIncomeSaved, EventGoalSaved, EventGoalUpdated, EventGoalEvaluated, EventHistoryCleared}
	assert.Equal(t, expected, a.Names())
	assert.Equal(t, expected, b.Names())
}

func TestRecorderProperties(t *testing.T) {
	r := NewRecorder()
	r.GoalSaved(context.Background(), testGoal(), models.CurrencyEUR)

	events := r.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "g-1", events[0].Properties["goal_id"])
	assert.Equal(t, "EUR", events[0].Properties["currency"])
	assert.Equal(t, 3, events[0].Properties["goal_impact"])
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sink := NewLogSink(logger.NewZapAdapter(zap.New(core)))

	sink.IncomeSaved(context.Background(), testProfile())
	sink.HistoryCleared(context.Background())

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, EventIncomeSaved, entries[0].ContextMap()["event"])
	assert.Equal(t, "EUR", entries[0].ContextMap()["currency"])
	assert.Equal(t, "analytics", entries[0].ContextMap()["component"])
	assert.Equal(t, EventHistoryCleared, entries[1].ContextMap()["event"])
}

func TestNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		Noop().GoalEvaluated(context.Background(), models.GoalResult{})
		Noop().HistoryCleared(context.Background())
	})
}
