// Package analytics defines the event sink the workflow controller reports
// user actions to. Sinks are injected; there is no global tracker.
package analytics

import (
	"context"
	"sync"

	"worth-it/internal/common/logger"
	"worth-it/internal/models"
)

// Event names, kept stable for downstream dashboards.
const (
	EventIncomeSaved    = "income_details_saved"
	EventGoalSaved      = "goal_saved"
	EventGoalUpdated    = "goal_updated"
	EventGoalEvaluated  = "goal_evaluated"
	EventHistoryCleared = "history_cleared"
)

type Sink interface {
	IncomeSaved(ctx context.Context, p models.IncomeProfile)
	GoalSaved(ctx context.Context, g models.Goal, currency models.Currency)
	GoalUpdated(ctx context.Context, g models.Goal, currency models.Currency)
	GoalEvaluated(ctx context.Context, r models.GoalResult)
	HistoryCleared(ctx context.Context)
}

// IncomeProperties is the property set sent with EventIncomeSaved.
func IncomeProperties(p models.IncomeProfile) map[string]interface{} {
	return map[string]interface{}{
		"monthly_income":     p.MonthlyIncome,
		"currency":           string(p.Currency),
		"savings_percentage": p.SavingsPercentage,
		"hours_per_day":      p.HoursPerDay,
		"days_per_week":      p.DaysPerWeek,
	}
}

// GoalProperties is the property set sent with goal events.
func GoalProperties(g models.Goal, currency models.Currency) map[string]interface{} {
	return map[string]interface{}{
		"goal_id":     g.ID,
		"goal_name":   g.Name,
		"goal_cost":   g.Cost,
		"goal_type":   string(g.Type),
		"goal_years":  g.Years,
		"goal_impact": g.Impact,
		"currency":    string(currency),
	}
}

// ==========================
// No-op and fan-out
// ==========================

type noop struct{}

// Noop discards every event.
func Noop() Sink { return noop{} }

func (noop) IncomeSaved(context.Context, models.IncomeProfile)         {}
func (noop) GoalSaved(context.Context, models.Goal, models.Currency)   {}
func (noop) GoalUpdated(context.Context, models.Goal, models.Currency) {}
func (noop) GoalEvaluated(context.Context, models.GoalResult)          {}
func (noop) HistoryCleared(context.Context)                            {}

type multi []Sink

// Multi forwards each event to every sink in order. Nil sinks are skipped.
func Multi(sinks ...Sink) Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multi) IncomeSaved(ctx context.Context, p models.IncomeProfile) {
	for _, s := range m {
		s.IncomeSaved(ctx, p)
	}
}

func (m multi) GoalSaved(ctx context.Context, g models.Goal, c models.Currency) {
	for _, s := range m {
		s.GoalSaved(ctx, g, c)
	}
}

func (m multi) GoalUpdated(ctx context.Context, g models.Goal, c models.Currency) {
	for _, s := range m {
		s.GoalUpdated(ctx, g, c)
	}
}

func (m multi) GoalEvaluated(ctx context.Context, r models.GoalResult) {
	for _, s := range m {
		s.GoalEvaluated(ctx, r)
	}
}

func (m multi) HistoryCleared(ctx context.Context) {
	for _, s := range m {
		s.HistoryCleared(ctx)
	}
}

// ==========================
// Log sink
// ==========================

// LogSink writes each event as a structured log line.
type LogSink struct {
	logger logger.Logger
}

func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{logger: log.WithFields(map[string]interface{}{"component": "analytics"})}
}

func (l *LogSink) emit(event string, props map[string]interface{}) {
	fields := make(map[string]interface{}, len(props)+1)
	for k, v := range props {
		fields[k] = v
	}
	fields["event"] = event
	l.logger.Info("analytics event", fields)
}

func (l *LogSink) IncomeSaved(_ context.Context, p models.IncomeProfile) {
	l.emit(EventIncomeSaved, IncomeProperties(p))
}

func (l *LogSink) GoalSaved(_ context.Context, g models.Goal, c models.Currency) {
	l.emit(EventGoalSaved, GoalProperties(g, c))
}

func (l *LogSink) GoalUpdated(_ context.Context, g models.Goal, c models.Currency) {
	l.emit(EventGoalUpdated, GoalProperties(g, c))
}

func (l *LogSink) GoalEvaluated(_ context.Context, r models.GoalResult) {
	l.emit(EventGoalEvaluated, map[string]interface{}{
		"goal_id":    r.ID,
		"goal_score": r.GoalScore,
		"verdict":    string(r.Verdict),
	})
}

func (l *LogSink) HistoryCleared(_ context.Context) {
	l.emit(EventHistoryCleared, nil)
}

// ==========================
// Recorder
// ==========================

// Event is one recorded analytics call.
type Event struct {
	Name       string
	Properties map[string]interface{}
}

// Recorder keeps events in memory, for tests and debugging endpoints.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) record(name string, props map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Name: name, Properties: props})
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Names returns the recorded event names in order.
func (r *Recorder) Names() []string {
	events := r.Events()
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = e.Name
	}
	return names
}

func (r *Recorder) IncomeSaved(_ context.Context, p models.IncomeProfile) {
	r.record(EventIncomeSaved, IncomeProperties(p))
}

func (r *Recorder) GoalSaved(_ context.Context, g models.Goal, c models.Currency) {
	r.record(EventGoalSaved, GoalProperties(g, c))
}

func (r *Recorder) GoalUpdated(_ context.Context, g models.Goal, c models.Currency) {
	r.record(EventGoalUpdated, GoalProperties(g, c))
}

func (r *Recorder) GoalEvaluated(_ context.Context, res models.GoalResult) {
	r.record(EventGoalEvaluated, map[string]interface{}{
		"goal_id":    res.ID,
		"goal_score": res.GoalScore,
		"verdict":    string(res.Verdict),
	})
}

func (r *Recorder) HistoryCleared(_ context.Context) {
	r.record(EventHistoryCleared, map[string]interface{}{})
}
