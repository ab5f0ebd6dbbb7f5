// internal/workers/scoring/evaluate-goal/handler.go
package evaluategoal

import (
	"context"
	"encoding/json"
	"fmt"

	"worth-it/internal/analytics"
	"worth-it/internal/common/camunda"
	apperrors "worth-it/internal/common/errors"
	"worth-it/internal/common/logger"
	"worth-it/internal/common/validation"
	"worth-it/internal/models"
	"worth-it/internal/scoring"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "evaluate-goal"
)

// GoalStore is the part of the history store this worker needs.
type GoalStore interface {
	LoadIncome(ctx context.Context) (models.IncomeProfile, bool)
	UpsertGoal(ctx context.Context, r models.GoalResult) (updated bool, err error)
}

type Handler struct {
	config    *Config
	store     GoalStore
	sink      analytics.Sink
	formatter *scoring.Formatter
	errors    *apperrors.ErrorHandler
	logger    logger.Logger
}

func NewHandler(config *Config, store GoalStore, sink analytics.Sink, log logger.Logger) *Handler {
	if sink == nil {
		sink = analytics.Noop()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		store:     store,
		sink:      sink,
		formatter: scoring.DefaultFormatter,
		errors:    apperrors.NewErrorHandler(log),
		logger:    log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := ParseInput(job.Variables)
	if err == nil {
		var output *Output
		if output, err = h.execute(ctx, input); err == nil {
			err = camunda.CompleteJob(ctx, client, job, output)
		}
	}
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
	}
	return err
}

// ParseInput validates the goal, and the income profile when present, against
// their schemas before decoding.
func ParseInput(variables string) (*Input, error) {
	var raw struct {
		Goal          json.RawMessage `json:"goal"`
		IncomeProfile json.RawMessage `json:"incomeProfile"`
		Persist       bool            `json:"persist"`
	}
	if err := json.Unmarshal([]byte(variables), &raw); err != nil {
		return nil, apperrors.NewParseError("job variables", err)
	}

	if len(raw.Goal) == 0 || string(raw.Goal) == "null" {
		return nil, apperrors.NewInvalidGoalError(fmt.Errorf("goal is required"))
	}
	if res := validation.GoalSchema.ValidateBytes(raw.Goal); !res.Valid {
		return nil, apperrors.NewInvalidGoalError(res.Err())
	}

	input := &Input{Persist: raw.Persist}
	if err := json.Unmarshal(raw.Goal, &input.Goal); err != nil {
		return nil, apperrors.NewParseError("goal", err)
	}

	if len(raw.IncomeProfile) > 0 && string(raw.IncomeProfile) != "null" {
		if res := validation.IncomeProfileSchema.ValidateBytes(raw.IncomeProfile); !res.Valid {
			return nil, apperrors.NewInvalidIncomeError(res.Err())
		}
		var p models.IncomeProfile
		if err := json.Unmarshal(raw.IncomeProfile, &p); err != nil {
			return nil, apperrors.NewParseError("incomeProfile", err)
		}
		input.IncomeProfile = &p
	}
	return input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	income, err := h.resolveIncome(ctx, input.IncomeProfile)
	if err != nil {
		return nil, err
	}

	goal := input.Goal
	if goal.ID == "" {
		fresh := models.NewGoal(goal.Name, goal.Cost, goal.Type, goal.Years, goal.Impact, h.config.Now())
		goal.ID, goal.Timestamp = fresh.ID, fresh.Timestamp
	} else if goal.Timestamp == 0 {
		goal.Timestamp = h.config.Now().UnixMilli()
	}
	if err := goal.Validate(); err != nil {
		return nil, apperrors.NewInvalidGoalError(err)
	}

	result := scoring.ComputeGoalResult(goal, income)
	output := &Output{
		GoalResult:     result,
		VerdictDetails: scoring.VerdictDetails(result.Verdict),
		ImpactLabel:    scoring.ImpactLabel(goal.Type, goal.Impact),
		Formatted:      h.format(result, income.Currency),
	}

	if input.Persist {
		updated, err := h.persist(ctx, result, income.Currency)
		if err != nil {
			return nil, err
		}
		output.Persisted = true
		output.Updated = updated
	}
	h.sink.GoalEvaluated(ctx, result)

	h.logger.Info("goal evaluated", map[string]interface{}{
		"goalId":    goal.ID,
		"score":     result.GoalScore,
		"verdict":   string(result.Verdict),
		"persisted": output.Persisted,
	})
	return output, nil
}

func (h *Handler) resolveIncome(ctx context.Context, given *models.IncomeProfile) (models.IncomeProfile, error) {
	if given != nil {
		if err := given.Validate(); err != nil {
			return models.IncomeProfile{}, apperrors.NewInvalidIncomeError(err)
		}
		return *given, nil
	}
	stored, ok := h.store.LoadIncome(ctx)
	if !ok {
		return models.IncomeProfile{}, apperrors.NewIncomeMissingError()
	}
	return stored, nil
}

// persist replaces an existing entry with the same id, otherwise appends.
// The analytics event follows what the store actually did.
func (h *Handler) persist(ctx context.Context, result models.GoalResult, currency models.Currency) (bool, error) {
	updated, err := h.store.UpsertGoal(ctx, result)
	if err != nil {
		return false, err
	}
	if updated {
		h.sink.GoalUpdated(ctx, result.Goal, currency)
	} else {
		h.sink.GoalSaved(ctx, result.Goal, currency)
	}
	return updated, nil
}

func (h *Handler) format(r models.GoalResult, currency models.Currency) FormattedResult {
	return FormattedResult{
		Cost:   h.formatter.FormatCurrency(r.Cost, currency),
		Hours:  h.formatter.FormatTime(r.SavingsTime.Hours, "hour"),
		Days:   h.formatter.FormatTime(r.SavingsTime.Days, "day"),
		Weeks:  h.formatter.FormatTime(r.SavingsTime.Weeks, "week"),
		Months: h.formatter.FormatTime(r.SavingsTime.Months, "month"),
		Years:  h.formatter.FormatTime(r.SavingsTime.Years, "year"),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
