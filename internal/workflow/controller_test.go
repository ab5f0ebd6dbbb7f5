package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"worth-it/internal/analytics"
	"worth-it/internal/common/database"
	apperrors "worth-it/internal/common/errors"
	"worth-it/internal/common/logger"
	"worth-it/internal/history"
	"worth-it/internal/models"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func validIncome() models.IncomeProfile {
	return models.IncomeProfile{
		MonthlyIncome:     5000,
		Currency:          models.CurrencyUSD,
		SavingsPercentage: 20,
		HoursPerDay:       8,
		DaysPerWeek:       5,
	}
}

func laptop() models.Goal {
	return models.Goal{
		Name:   "Laptop",
		Cost:   1200,
		Type:   models.GoalTypeProduct,
		Years:  5,
		Impact: 3,
	}
}

type fixture struct {
	kv       *database.MemoryKV
	store    *history.Store
	recorder *analytics.Recorder
	spans    *tracetest.SpanRecorder
	ctrl     *Controller
}

func setup(t *testing.T, seed func(ctx context.Context, s *history.Store)) *fixture {
	t.Helper()
	ctx := context.Background()
	log := logger.NewTestLogger(t)

	kv := database.NewMemoryKV()
	store := history.NewStore(kv, log)
	if seed != nil {
		seed(ctx, store)
	}

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	recorder := analytics.NewRecorder()

	ctrl := NewController(ctx, store, recorder, log,
		WithClock(func() time.Time { return fixedNow }),
		WithTracer(tp.Tracer("test")),
	)
	return &fixture{kv: kv, store: store, recorder: recorder, spans: spans, ctrl: ctrl}
}

// ==========================
// Initial stage
// ==========================

func TestInitialStageWithoutProfile(t *testing.T) {
	f := setup(t, nil)

	assert.Equal(t, StageIncome, f.ctrl.Stage())
	_, ok := f.ctrl.Income()
	assert.False(t, ok)
	assert.Empty(t, f.ctrl.History())
}

func TestInitialStageWithStoredProfile(t *testing.T) {
	f := setup(t, func(ctx context.Context, s *history.Store) {
		require.NoError(t, s.SaveIncome(ctx, validIncome()))
	})

	assert.Equal(t, StageGoal, f.ctrl.Stage())
	p, ok := f.ctrl.Income()
	require.True(t, ok)
	assert.Equal(t, validIncome(), p)

	savings, ok := f.ctrl.Savings()
	require.True(t, ok)
	assert.InDelta(t, 12000.0, savings.Annual, 1e-9)
}

func TestInitialStageWithCorruptProfile(t *testing.T) {
	f := setup(t, func(ctx context.Context, _ *history.Store) {})
	require.NoError(t, f.kv.Set(context.Background(), history.IncomeKey, "{not json"))

	ctrl := NewController(context.Background(), f.store, nil, logger.NewNoOpLogger())
	assert.Equal(t, StageIncome, ctrl.Stage())
}

// ==========================
// SubmitIncome
// ==========================

func TestSubmitIncome(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	stage, err := f.ctrl.SubmitIncome(ctx, validIncome())
	require.NoError(t, err)
	assert.Equal(t, StageGoal, stage)
	assert.Equal(t, StageGoal, f.ctrl.Stage())

	stored, ok := f.store.LoadIncome(ctx)
	require.True(t, ok)
	assert.Equal(t, validIncome(), stored)
	assert.Equal(t, []string{analytics.EventIncomeSaved}, f.recorder.Names())
}

func TestSubmitIncomeInvalidStays(t *testing.T) {
	f := setup(t, nil)
	bad := validIncome()
	bad.SavingsPercentage = 0

	stage, err := f.ctrl.SubmitIncome(context.Background(), bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidIncome))
	assert.Equal(t, StageIncome, stage)

	_, ok := f.store.LoadIncome(context.Background())
	assert.False(t, ok)
	assert.Empty(t, f.recorder.Names())
}

func TestSubmitIncomeWrongStage(t *testing.T) {
	f := setup(t, func(ctx context.Context, s *history.Store) {
		require.NoError(t, s.SaveIncome(ctx, validIncome()))
	})

	stage, err := f.ctrl.SubmitIncome(context.Background(), validIncome())
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))
	assert.Equal(t, StageGoal, stage)
}

// ==========================
// SubmitGoal
// ==========================

func TestSubmitGoalWithoutIncome(t *testing.T) {
	f := setup(t, nil)

	stage, err := f.ctrl.SubmitGoal(context.Background(), laptop())
	assert.True(t, errors.Is(err, apperrors.ErrIncomeMissing))
	assert.Equal(t, StageIncome, stage)
	assert.Empty(t, f.ctrl.History())
}

func TestSubmitGoalEvaluatesAndAppends(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	_, err := f.ctrl.SubmitIncome(ctx, validIncome())
	require.NoError(t, err)

	stage, err := f.ctrl.SubmitGoal(ctx, laptop())
	require.NoError(t, err)
	assert.Equal(t, StageResult, stage)

	result, ok := f.ctrl.CurrentResult()
	require.True(t, ok)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, fixedNow.UnixMilli(), result.Timestamp)
	assert.InDelta(t, 1200/(12000.0/2080), result.SavingsTime.Hours, 1e-9)
	assert.GreaterOrEqual(t, result.GoalScore, 0.0)
	assert.LessOrEqual(t, result.GoalScore, 100.0)

	hist := f.ctrl.History()
	require.Len(t, hist, 1)
	assert.Equal(t, result, hist[0])
	assert.Equal(t, hist, f.store.LoadGoals(ctx))

	assert.Equal(t, []string{
		analytics.EventIncomeSaved,
		analytics.EventGoalSaved,
		analytics.EventGoalEvaluated,
	}, f.recorder.Names())
}

func TestSubmitGoalInvalidStays(t *testing.T) {
	f := setup(t, func(ctx context.Context, s *history.Store) {
		require.NoError(t, s.SaveIncome(ctx, validIncome()))
	})
	bad := laptop()
	bad.Cost = 0

	stage, err := f.ctrl.SubmitGoal(context.Background(), bad)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidGoal))
	assert.Equal(t, StageGoal, stage)
	assert.Empty(t, f.ctrl.History())
}

func TestSubmitGoalKeepsInsertionOrder(t *testing.T) {
	f := setup(t, func(ctx context.Context, s *history.Store) {
		require.NoError(t, s.SaveIncome(ctx, validIncome()))
	})
	ctx := context.Background()

	for _, name := range []string{"first", "second", "third"} {
		g := laptop()
		g.Name = name
		_, err := f.ctrl.SubmitGoal(ctx, g)
		require.NoError(t, err)
		_, err = f.ctrl.Reset(ctx)
		require.NoError(t, err)
	}

	hist := f.ctrl.History()
	require.Len(t, hist, 3)
	assert.Equal(t, "first", hist[0].Name)
	assert.Equal(t, "third", hist[2].Name)
}

func TestSubmitGoalWithKnownIDUpdates(t *testing.T) {
	f := setup(t, func(ctx context.Context, s *history.Store) {
		require.NoError(t, s.SaveIncome(ctx, validIncome()))
	})
	ctx := context.Background()

	_, err := f.ctrl.SubmitGoal(ctx, laptop())
	require.NoError(t, err)
	first, _ := f.ctrl.CurrentResult()
	_, _ = f.ctrl.Reset(ctx)

	again := first.Goal
	again.Cost = 2400
	_, err = f.ctrl.SubmitGoal(ctx, again)
	require.NoError(t, err)

	hist := f.ctrl.History()
	require.Len(t, hist, 1)
	assert.Equal(t, 2400.0, hist[0].Cost)
	assert.Contains(t, f.recorder.Names(), analytics.EventGoalUpdated)
}

func TestSubmitGoalWithKnownIDAppendsWhenEntryWasRemoved(t *testing.T) {
	f := setup(t, func(ctx context.Context, s *history.Store) {
		require.NoError(t, s.SaveIncome(ctx, validIncome()))
	})
	ctx := context.Background()

	_, err := f.ctrl.SubmitGoal(ctx, laptop())
	require.NoError(t, err)
	first, _ := f.ctrl.CurrentResult()
	_, _ = f.ctrl.Reset(ctx)

	// another writer cleared the list; the controller's copy is stale
	require.NoError(t, f.store.ClearGoals(ctx))

	_, err = f.ctrl.SubmitGoal(ctx, first.Goal)
	require.NoError(t, err)

	hist := f.ctrl.History()
	require.Len(t, hist, 1)
	assert.Equal(t, first.ID, hist[0].ID)
	assert.Equal(t, []string{
		analytics.EventGoalSaved,
		analytics.EventGoalEvaluated,
		analytics.EventGoalSaved,
		analytics.EventGoalEvaluated,
	}, f.recorder.Names())
}

func TestEditOfRemovedGoalIsNotAppended(t *testing.T) {
	f := setup(t, func(ctx context.Context, s *history.Store) {
		require.NoError(t, s.SaveIncome(ctx, validIncome()))
	})
	ctx := context.Background()

	_, err := f.ctrl.SubmitGoal(ctx, laptop())
	require.NoError(t, err)
	original, _ := f.ctrl.CurrentResult()
	_, err = f.ctrl.EditRequested(ctx, original)
	require.NoError(t, err)

	require.NoError(t, f.store.ClearGoals(ctx))

	stage, err := f.ctrl.SubmitGoal(ctx, original.Goal)
	require.NoError(t, err)
	assert.Equal(t, StageResult, stage)
	assert.Empty(t, f.ctrl.History())
	assert.NotContains(t, f.recorder.Names(), analytics.EventGoalUpdated)
}

// ==========================
// Edit, reset, clear
// ==========================

func TestEditRequestedRoutesThroughUpdate(t *testing.T) {
	f := setup(t, func(ctx context.Context, s *history.Store) {
		require.NoError(t, s.SaveIncome(ctx, validIncome()))
	})
	ctx := context.Background()

	_, err := f.ctrl.SubmitGoal(ctx, laptop())
	require.NoError(t, err)
	original, _ := f.ctrl.CurrentResult()

	stage, err := f.ctrl.EditRequested(ctx, original)
	require.NoError(t, err)
	assert.Equal(t, StageGoal, stage)
	_, hasResult := f.ctrl.CurrentResult()
	assert.False(t, hasResult)

	draft := f.ctrl.GoalDraft()
	assert.Equal(t, original.Goal, draft)

	// The form may drop id and timestamp; the edited identity is kept.
	edited := laptop()
	edited.Name = "Gaming laptop"
	edited.Cost = 2000
	_, err = f.ctrl.SubmitGoal(ctx, edited)
	require.NoError(t, err)

	hist := f.ctrl.History()
	require.Len(t, hist, 1)
	assert.Equal(t, original.ID, hist[0].ID)
	assert.Equal(t, original.Timestamp, hist[0].Timestamp)
	assert.Equal(t, "Gaming laptop", hist[0].Name)
	assert.NotEqual(t, original.GoalScore, hist[0].GoalScore)

	_, editing := f.ctrl.EditingGoal()
	assert.False(t, editing)
	assert.Equal(t, []string{
		analytics.EventGoalSaved,
		analytics.EventGoalEvaluated,
		analytics.EventGoalUpdated,
		analytics.EventGoalEvaluated,
	}, f.recorder.Names())
}

func TestEditGoalByID(t *testing.T) {
	f := setup(t, func(ctx context.Context, s *history.Store) {
		require.NoError(t, s.SaveIncome(ctx, validIncome()))
	})
	ctx := context.Background()

	_, err := f.ctrl.SubmitGoal(ctx, laptop())
	require.NoError(t, err)
	r, _ := f.ctrl.CurrentResult()

	_, err = f.ctrl.EditGoalByID(ctx, "missing")
	assert.True(t, errors.Is(err, apperrors.ErrGoalNotFound))
	assert.Equal(t, StageResult, f.ctrl.Stage())

	stage, err := f.ctrl.EditGoalByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, StageGoal, stage)
	g, ok := f.ctrl.EditingGoal()
	require.True(t, ok)
	assert.Equal(t, r.ID, g.ID)
}

func TestResetOnlyFromResult(t *testing.T) {
	f := setup(t, func(ctx context.Context, s *history.Store) {
		require.NoError(t, s.SaveIncome(ctx, validIncome()))
	})
	ctx := context.Background()

	_, err := f.ctrl.Reset(ctx)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))

	_, err = f.ctrl.SubmitGoal(ctx, laptop())
	require.NoError(t, err)

	stage, err := f.ctrl.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, StageGoal, stage)
	_, ok := f.ctrl.CurrentResult()
	assert.False(t, ok)
	assert.Len(t, f.ctrl.History(), 1)

	draft := f.ctrl.GoalDraft()
	assert.Empty(t, draft.ID)
	assert.Equal(t, models.DefaultImpact, draft.Impact)
}

func TestEditIncome(t *testing.T) {
	f := setup(t, func(ctx context.Context, s *history.Store) {
		require.NoError(t, s.SaveIncome(ctx, validIncome()))
	})
	ctx := context.Background()

	stage, err := f.ctrl.EditIncome(ctx)
	require.NoError(t, err)
	assert.Equal(t, StageIncome, stage)
	_, ok := f.ctrl.Income()
	assert.True(t, ok)

	_, err = f.ctrl.EditIncome(ctx)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))

	changed := validIncome()
	changed.MonthlyIncome = 8000
	_, err = f.ctrl.SubmitIncome(ctx, changed)
	require.NoError(t, err)
	p, _ := f.ctrl.Income()
	assert.Equal(t, 8000.0, p.MonthlyIncome)
}

func TestClearHistoryKeepsStageAndIncome(t *testing.T) {
	f := setup(t, func(ctx context.Context, s *history.Store) {
		require.NoError(t, s.SaveIncome(ctx, validIncome()))
	})
	ctx := context.Background()

	_, err := f.ctrl.SubmitGoal(ctx, laptop())
	require.NoError(t, err)

	stage, err := f.ctrl.ClearHistory(ctx)
	require.NoError(t, err)
	assert.Equal(t, StageResult, stage)
	assert.Empty(t, f.ctrl.History())
	assert.Empty(t, f.store.LoadGoals(ctx))

	_, ok := f.store.LoadIncome(ctx)
	assert.True(t, ok)
	assert.Equal(t, analytics.EventHistoryCleared, f.recorder.Names()[len(f.recorder.Names())-1])
}

// ==========================
// Storage failures and tracing
// ==========================

type failingStore struct {
	HistoryStore
	err error
}

func (f failingStore) SaveIncome(context.Context, models.IncomeProfile) error { return f.err }
func (f failingStore) SaveGoal(context.Context, models.GoalResult) error      { return f.err }
func (f failingStore) ClearGoals(context.Context) error                       { return f.err }

func TestStorageFailureKeepsStage(t *testing.T) {
	ctx := context.Background()
	base := history.NewStore(database.NewMemoryKV(), logger.NewNoOpLogger())
	writeErr := apperrors.NewStorageWriteFailedError(history.IncomeKey, errors.New("disk full"))
	store := failingStore{HistoryStore: base, err: writeErr}
	recorder := analytics.NewRecorder()

	ctrl := NewController(ctx, store, recorder, logger.NewNoOpLogger())

	stage, err := ctrl.SubmitIncome(ctx, validIncome())
	assert.True(t, errors.Is(err, apperrors.ErrStorageWrite))
	assert.Equal(t, StageIncome, stage)
	_, ok := ctrl.Income()
	assert.False(t, ok)

	_, err = ctrl.ClearHistory(ctx)
	assert.Error(t, err)
	assert.Empty(t, recorder.Names())
}

func TestEventsAreTraced(t *testing.T) {
	f := setup(t, nil)
	ctx := context.Background()

	_, _ = f.ctrl.SubmitGoal(ctx, laptop())
	_, err := f.ctrl.SubmitIncome(ctx, validIncome())
	require.NoError(t, err)

	ended := f.spans.Ended()
	require.Len(t, ended, 2)

	assert.Equal(t, "workflow.SubmitGoal", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, string(apperrors.ErrCodeIncomeMissing), ended[0].Status().Description)

	assert.Equal(t, "workflow.SubmitIncome", ended[1].Name())
	assert.Equal(t, codes.Unset, ended[1].Status().Code)

	attrs := map[string]string{}
	for _, kv := range ended[1].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsString()
	}
	assert.Equal(t, "income", attrs["workflow.stage.from"])
	assert.Equal(t, "goal", attrs["workflow.stage.to"])
}
