// internal/workers/history/list-history/handler.go
package listhistory

import (
	"context"
	"encoding/json"
	"fmt"

	"worth-it/internal/common/camunda"
	apperrors "worth-it/internal/common/errors"
	"worth-it/internal/common/logger"
	"worth-it/internal/models"
	"worth-it/internal/scoring"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "list-history"
)

type HistoryReader interface {
	LoadIncome(ctx context.Context) (models.IncomeProfile, bool)
	LoadGoals(ctx context.Context) []models.GoalResult
}

type Handler struct {
	config *Config
	store  HistoryReader
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, store HistoryReader, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		store:  store,
		errors: apperrors.NewErrorHandler(log),
		logger: log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	err := json.Unmarshal([]byte(job.Variables), &input)
	if err != nil {
		err = apperrors.NewParseError("job variables", err)
	} else {
		var output *Output
		if output, err = h.execute(ctx, &input); err == nil {
			err = camunda.CompleteJob(ctx, client, job, output)
		}
	}
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
	}
	return err
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Verdict != "" && !knownVerdict(input.Verdict) {
		return nil, apperrors.NewParseError("verdict", fmt.Errorf("unknown verdict %q", input.Verdict))
	}
	if input.Limit < 0 {
		return nil, apperrors.NewParseError("limit", fmt.Errorf("limit must not be negative, got %d", input.Limit))
	}

	all := h.store.LoadGoals(ctx)
	selected := make([]models.GoalResult, 0, len(all))
	for _, r := range all {
		if input.Verdict == "" || r.Verdict == input.Verdict {
			selected = append(selected, r)
		}
	}
	// the limit keeps the most recent entries, still in insertion order
	if input.Limit > 0 && len(selected) > input.Limit {
		selected = selected[len(selected)-input.Limit:]
	}

	output := &Output{
		GoalResults: selected,
		Count:       len(selected),
		Total:       len(all),
	}

	if input.IncludeIncome {
		if p, ok := h.store.LoadIncome(ctx); ok {
			s := scoring.ComputeSavings(p)
			output.IncomeProfile = &p
			output.Savings = &s
		}
	}

	h.logger.Info("history listed", map[string]interface{}{
		"count": output.Count,
		"total": output.Total,
	})
	return output, nil
}

func knownVerdict(v models.Verdict) bool {
	for _, known := range models.Verdicts {
		if v == known {
			return true
		}
	}
	return false
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
