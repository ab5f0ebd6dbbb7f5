// internal/common/metrics/metrics.go
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"worth-it/internal/models"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worth_it_worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worth_it_worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worth_it_worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worth_it_worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// ScoreBuckets follow the verdict bands.
var ScoreBuckets = []float64{10, 25, 50, 75, 95, 100}

// PrometheusSink counts workflow events. It satisfies analytics.Sink.
type PrometheusSink struct {
	incomeSaved    prometheus.Counter
	goalsSaved     *prometheus.CounterVec
	goalsUpdated   *prometheus.CounterVec
	goalsEvaluated *prometheus.CounterVec
	goalScore      prometheus.Histogram
	historyCleared prometheus.Counter
}

// NewPrometheusSink registers the event collectors on reg.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	factory := promauto.With(reg)

	return &PrometheusSink{
		incomeSaved: factory.NewCounter(prometheus.CounterOpts{
			Name: "worth_it_income_saved_total",
			Help: "Income profiles submitted",
		}),
		goalsSaved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "worth_it_goals_saved_total",
			Help: "New goals added to history",
		}, []string{"goal_type", "currency"}),
		goalsUpdated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "worth_it_goals_updated_total",
			Help: "History goals edited and re-scored",
		}, []string{"goal_type", "currency"}),
		goalsEvaluated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "worth_it_goals_evaluated_total",
			Help: "Goal evaluations by verdict",
		}, []string{"verdict"}),
		goalScore: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "worth_it_goal_score",
			Help:    "Distribution of goal scores",
			Buckets: ScoreBuckets,
		}),
		historyCleared: factory.NewCounter(prometheus.CounterOpts{
			Name: "worth_it_history_cleared_total",
			Help: "Times the goal history was cleared",
		}),
	}
}

func (s *PrometheusSink) IncomeSaved(context.Context, models.IncomeProfile) {
	s.incomeSaved.Inc()
}

func (s *PrometheusSink) GoalSaved(_ context.Context, g models.Goal, currency models.Currency) {
	s.goalsSaved.WithLabelValues(string(g.Type), string(currency)).Inc()
}

func (s *PrometheusSink) GoalUpdated(_ context.Context, g models.Goal, currency models.Currency) {
	s.goalsUpdated.WithLabelValues(string(g.Type), string(currency)).Inc()
}

func (s *PrometheusSink) GoalEvaluated(_ context.Context, r models.GoalResult) {
	s.goalsEvaluated.WithLabelValues(string(r.Verdict)).Inc()
	s.goalScore.Observe(r.GoalScore)
}

func (s *PrometheusSink) HistoryCleared(context.Context) {
	s.historyCleared.Inc()
}
