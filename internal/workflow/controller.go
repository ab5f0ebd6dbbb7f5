// Package workflow sequences the income, goal and result screens and owns the
// in-progress state between user events. It is the entry point for a UI
// layer embedding this module; the job workers use the history store and
// scoring packages directly and do not go through a Controller.
package workflow

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"worth-it/internal/analytics"
	apperrors "worth-it/internal/common/errors"
	"worth-it/internal/common/logger"
	"worth-it/internal/models"
	"worth-it/internal/scoring"
)

type Stage string

const (
	StageIncome Stage = "income"
	StageGoal   Stage = "goal"
	StageResult Stage = "result"
)

const tracerName = "worth-it/workflow"

// HistoryStore is the persistence the controller delegates to.
type HistoryStore interface {
	SaveIncome(ctx context.Context, p models.IncomeProfile) error
	LoadIncome(ctx context.Context) (models.IncomeProfile, bool)
	SaveGoal(ctx context.Context, r models.GoalResult) error
	UpdateGoal(ctx context.Context, r models.GoalResult) (bool, error)
	UpsertGoal(ctx context.Context, r models.GoalResult) (bool, error)
	LoadGoals(ctx context.Context) []models.GoalResult
	ClearGoals(ctx context.Context) error
}

// Controller is the screen state machine. It is not safe for concurrent use;
// one controller serves one user session.
type Controller struct {
	store  HistoryStore
	sink   analytics.Sink
	logger logger.Logger
	tracer trace.Tracer
	now    func() time.Time

	stage   Stage
	income  *models.IncomeProfile
	savings *models.SavingsBreakdown
	current *models.GoalResult
	editing *models.Goal
	history []models.GoalResult
}

type Option func(*Controller)

// WithClock overrides the time source used for new goal timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithTracer overrides the global OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(c *Controller) { c.tracer = t }
}

// NewController restores the stored profile and history. The controller starts
// on the goal stage when a valid profile was stored, otherwise on income.
func NewController(ctx context.Context, store HistoryStore, sink analytics.Sink, log logger.Logger, opts ...Option) *Controller {
	if sink == nil {
		sink = analytics.Noop()
	}
	c := &Controller{
		store:  store,
		sink:   sink,
		logger: log.WithFields(map[string]interface{}{"component": "workflow"}),
		tracer: otel.Tracer(tracerName),
		now:    time.Now,
		stage:  StageIncome,
	}
	for _, opt := range opts {
		opt(c)
	}

	if p, ok := store.LoadIncome(ctx); ok {
		savings := scoring.ComputeSavings(p)
		c.income = &p
		c.savings = &savings
		c.stage = StageGoal
	}
	c.history = store.LoadGoals(ctx)

	c.logger.Debug("workflow restored", map[string]interface{}{
		"stage":        string(c.stage),
		"historyCount": len(c.history),
	})
	return c
}

// ==========================
// Accessors
// ==========================

func (c *Controller) Stage() Stage { return c.stage }

func (c *Controller) Income() (models.IncomeProfile, bool) {
	if c.income == nil {
		return models.IncomeProfile{}, false
	}
	return *c.income, true
}

func (c *Controller) Savings() (models.SavingsBreakdown, bool) {
	if c.savings == nil {
		return models.SavingsBreakdown{}, false
	}
	return *c.savings, true
}

func (c *Controller) CurrentResult() (models.GoalResult, bool) {
	if c.current == nil {
		return models.GoalResult{}, false
	}
	return *c.current, true
}

func (c *Controller) EditingGoal() (models.Goal, bool) {
	if c.editing == nil {
		return models.Goal{}, false
	}
	return *c.editing, true
}

// History returns a copy of the goal history as last read from the store.
func (c *Controller) History() []models.GoalResult {
	return append([]models.GoalResult(nil), c.history...)
}

// GoalDraft returns the values the goal form should be pre-populated with:
// the goal being edited, or the defaults for a new product goal.
func (c *Controller) GoalDraft() models.Goal {
	if c.editing != nil {
		return *c.editing
	}
	return models.Goal{
		Type:   models.GoalTypeProduct,
		Years:  scoring.DefaultYears(models.GoalTypeProduct),
		Impact: models.DefaultImpact,
	}
}

// ==========================
// Events
// ==========================

// SubmitIncome validates and persists the profile, then moves to the goal stage.
func (c *Controller) SubmitIncome(ctx context.Context, p models.IncomeProfile) (Stage, error) {
	ctx, span := c.startSpan(ctx, "SubmitIncome")
	defer span.End()

	if c.stage != StageIncome {
		return c.fail(span, apperrors.NewInvalidTransitionError("SubmitIncome", string(c.stage)))
	}
	if err := p.Validate(); err != nil {
		return c.fail(span, apperrors.NewInvalidIncomeError(err))
	}
	if err := c.store.SaveIncome(ctx, p); err != nil {
		return c.fail(span, err)
	}

	savings := scoring.ComputeSavings(p)
	c.income = &p
	c.savings = &savings
	c.current = nil
	c.editing = nil
	c.sink.IncomeSaved(ctx, p)

	return c.transition(span, StageGoal, "income submitted", map[string]interface{}{
		"currency":      string(p.Currency),
		"hourlySavings": savings.Hourly,
	})
}

// SubmitGoal scores the goal and records it. A goal being edited replaces its
// entry through UpdateGoal and is never appended. One whose id is already in
// history goes through UpsertGoal; anything else is appended. A goal without
// an id is treated as new and gets one.
func (c *Controller) SubmitGoal(ctx context.Context, goal models.Goal) (Stage, error) {
	ctx, span := c.startSpan(ctx, "SubmitGoal")
	defer span.End()

	if c.income == nil {
		return c.fail(span, apperrors.NewIncomeMissingError())
	}
	if c.stage != StageGoal {
		return c.fail(span, apperrors.NewInvalidTransitionError("SubmitGoal", string(c.stage)))
	}

	switch {
	case c.editing != nil:
		goal.ID = c.editing.ID
		goal.Timestamp = c.editing.Timestamp
	case goal.ID == "":
		fresh := models.NewGoal(goal.Name, goal.Cost, goal.Type, goal.Years, goal.Impact, c.now())
		goal.ID, goal.Timestamp = fresh.ID, fresh.Timestamp
	case goal.Timestamp == 0:
		goal.Timestamp = c.now().UnixMilli()
	}
	if err := goal.Validate(); err != nil {
		return c.fail(span, apperrors.NewInvalidGoalError(err))
	}

	result := scoring.ComputeGoalResult(goal, *c.income)
	isEdit := c.editing != nil

	var (
		updated bool
		err     error
	)
	switch {
	case c.editing != nil:
		updated, err = c.store.UpdateGoal(ctx, result)
		if err == nil && !updated {
			c.logger.Warn("edited goal is no longer in history", map[string]interface{}{"goalId": goal.ID})
		}
	case c.inHistory(goal.ID):
		updated, err = c.store.UpsertGoal(ctx, result)
	default:
		err = c.store.SaveGoal(ctx, result)
	}
	if err != nil {
		return c.fail(span, err)
	}

	switch {
	case updated:
		c.sink.GoalUpdated(ctx, goal, c.income.Currency)
	case c.editing == nil:
		c.sink.GoalSaved(ctx, goal, c.income.Currency)
	}
	c.sink.GoalEvaluated(ctx, result)

	c.current = &result
	c.editing = nil
	c.refreshHistory(ctx)

	return c.transition(span, StageResult, "goal evaluated", map[string]interface{}{
		"goalId":  goal.ID,
		"edit":    isEdit,
		"score":   result.GoalScore,
		"verdict": string(result.Verdict),
	})
}

// Reset leaves the result screen for a fresh goal form. History is untouched.
func (c *Controller) Reset(ctx context.Context) (Stage, error) {
	_, span := c.startSpan(ctx, "Reset")
	defer span.End()

	if c.stage != StageResult {
		return c.fail(span, apperrors.NewInvalidTransitionError("Reset", string(c.stage)))
	}
	c.current = nil
	c.editing = nil
	return c.transition(span, StageGoal, "result dismissed", nil)
}

// EditRequested loads a history entry into the goal form.
func (c *Controller) EditRequested(ctx context.Context, existing models.GoalResult) (Stage, error) {
	_, span := c.startSpan(ctx, "EditRequested")
	defer span.End()

	if c.stage != StageGoal && c.stage != StageResult {
		return c.fail(span, apperrors.NewInvalidTransitionError("EditRequested", string(c.stage)))
	}
	goal := existing.Goal
	c.editing = &goal
	c.current = nil
	return c.transition(span, StageGoal, "goal edit requested", map[string]interface{}{"goalId": goal.ID})
}

// EditGoalByID is EditRequested for a history entry looked up by id.
func (c *Controller) EditGoalByID(ctx context.Context, id string) (Stage, error) {
	for _, r := range c.history {
		if r.ID == id {
			return c.EditRequested(ctx, r)
		}
	}
	return c.stage, apperrors.NewGoalNotFoundError(id)
}

// EditIncome returns to the income form, keeping the current profile as its
// starting values.
func (c *Controller) EditIncome(ctx context.Context) (Stage, error) {
	_, span := c.startSpan(ctx, "EditIncome")
	defer span.End()

	if c.stage == StageIncome {
		return c.fail(span, apperrors.NewInvalidTransitionError("EditIncome", string(c.stage)))
	}
	c.current = nil
	c.editing = nil
	return c.transition(span, StageIncome, "income edit requested", nil)
}

// ClearHistory empties the stored and in-memory goal history. The stage and
// the income profile are kept; a pending edit is dropped since its entry is gone.
func (c *Controller) ClearHistory(ctx context.Context) (Stage, error) {
	ctx, span := c.startSpan(ctx, "ClearHistory")
	defer span.End()

	if err := c.store.ClearGoals(ctx); err != nil {
		return c.fail(span, err)
	}
	c.history = []models.GoalResult{}
	c.editing = nil
	c.sink.HistoryCleared(ctx)

	c.logger.Info("history cleared", map[string]interface{}{"stage": string(c.stage)})
	span.SetAttributes(attribute.String("workflow.stage.to", string(c.stage)))
	return c.stage, nil
}

// ==========================
// Internals
// ==========================

func (c *Controller) inHistory(id string) bool {
	for _, r := range c.history {
		if r.ID == id {
			return true
		}
	}
	return false
}

func (c *Controller) refreshHistory(ctx context.Context) {
	c.history = c.store.LoadGoals(ctx)
}

func (c *Controller) startSpan(ctx context.Context, event string) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, "workflow."+event, trace.WithAttributes(
		attribute.String("workflow.event", event),
		attribute.String("workflow.stage.from", string(c.stage)),
	))
}

func (c *Controller) transition(span trace.Span, to Stage, msg string, fields map[string]interface{}) (Stage, error) {
	from := c.stage
	c.stage = to

	logFields := map[string]interface{}{"from": string(from), "to": string(to)}
	for k, v := range fields {
		logFields[k] = v
	}
	c.logger.Info(msg, logFields)
	span.SetAttributes(attribute.String("workflow.stage.to", string(to)))
	return to, nil
}

// fail reports an event failure. The stage never changes on failure.
func (c *Controller) fail(span trace.Span, err error) (Stage, error) {
	stdErr := apperrors.AsStandardError(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(stdErr.Code))

	c.logger.Warn("workflow event rejected", map[string]interface{}{
		"stage":     string(c.stage),
		"errorCode": string(stdErr.Code),
		"details":   stdErr.Details,
	})
	return c.stage, err
}
