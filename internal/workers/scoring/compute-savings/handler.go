// internal/workers/scoring/compute-savings/handler.go
package computesavings

import (
	"context"
	"encoding/json"
	"fmt"

	"worth-it/internal/common/camunda"
	apperrors "worth-it/internal/common/errors"
	"worth-it/internal/common/logger"
	"worth-it/internal/common/validation"
	"worth-it/internal/scoring"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "compute-savings"
)

type Handler struct {
	config    *Config
	formatter *scoring.Formatter
	errors    *apperrors.ErrorHandler
	logger    logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
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

// ParseInput checks the job variables against the income profile schema.
func ParseInput(variables string) (*Input, error) {
	var raw struct {
		IncomeProfile json.RawMessage `json:"incomeProfile"`
	}
	if err := json.Unmarshal([]byte(variables), &raw); err != nil {
		return nil, apperrors.NewParseError("job variables", err)
	}
	if len(raw.IncomeProfile) == 0 || string(raw.IncomeProfile) == "null" {
		return nil, apperrors.NewInvalidIncomeError(fmt.Errorf("incomeProfile is required"))
	}
	if res := validation.IncomeProfileSchema.ValidateBytes(raw.IncomeProfile); !res.Valid {
		return nil, apperrors.NewInvalidIncomeError(res.Err())
	}

	var input Input
	if err := json.Unmarshal(raw.IncomeProfile, &input.IncomeProfile); err != nil {
		return nil, apperrors.NewParseError("incomeProfile", err)
	}
	return &input, nil
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	p := input.IncomeProfile
	if err := p.Validate(); err != nil {
		return nil, apperrors.NewInvalidIncomeError(err)
	}

	s := scoring.ComputeSavings(p)
	output := &Output{
		Savings: s,
		Formatted: FormattedSavings{
			Annual:  h.formatter.FormatCurrency(s.Annual, p.Currency),
			Monthly: h.formatter.FormatCurrency(s.Monthly, p.Currency),
			Weekly:  h.formatter.FormatCurrency(s.Weekly, p.Currency),
			Daily:   h.formatter.FormatCurrency(s.Daily, p.Currency),
			Hourly:  h.formatter.FormatCurrency(s.Hourly, p.Currency),
		},
	}

	h.logger.Info("savings computed", map[string]interface{}{
		"currency": string(p.Currency),
		"hourly":   s.Hourly,
	})
	return output, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
