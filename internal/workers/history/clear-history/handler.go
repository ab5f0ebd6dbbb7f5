// internal/workers/history/clear-history/handler.go
package clearhistory

import (
	"context"
	"encoding/json"

	"worth-it/internal/analytics"
	"worth-it/internal/common/camunda"
	apperrors "worth-it/internal/common/errors"
	"worth-it/internal/common/logger"
	"worth-it/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "clear-history"
)

type HistoryClearer interface {
	LoadGoals(ctx context.Context) []models.GoalResult
	ClearGoals(ctx context.Context) error
	ClearAll(ctx context.Context) error
}

type Handler struct {
	config *Config
	store  HistoryClearer
	sink   analytics.Sink
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, store HistoryClearer, sink analytics.Sink, log logger.Logger) *Handler {
	if sink == nil {
		sink = analytics.Noop()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		store:  store,
		sink:   sink,
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
	removed := len(h.store.LoadGoals(ctx))

	clearFn := h.store.ClearGoals
	if input.IncludeIncome {
		clearFn = h.store.ClearAll
	}
	if err := clearFn(ctx); err != nil {
		return nil, err
	}
	h.sink.HistoryCleared(ctx)

	h.logger.Info("history cleared", map[string]interface{}{
		"removedGoals":  removed,
		"incomeCleared": input.IncludeIncome,
	})

	return &Output{
		Cleared:       true,
		RemovedGoals:  removed,
		IncomeCleared: input.IncludeIncome,
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
