// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"worth-it/internal/common/config"
	apperrors "worth-it/internal/common/errors"
	"worth-it/internal/common/logger"
	"worth-it/internal/common/metrics"
)

// JobHandler reports the outcome of a job it has already completed or failed
// on the engine. A non-nil error only feeds metrics and logs.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job) error
}

// JobRecorder receives per-job OpenTelemetry measurements.
type JobRecorder interface {
	RecordJobProcessed(ctx context.Context, taskType, status string)
	RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string)
}

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// NewWorker opens a job worker for taskType. A disabled worker config returns nil.
func NewWorker(
	client zbc.Client,
	taskType string,
	wcfg config.WorkerConfig,
	handler JobHandler,
	recorder JobRecorder,
	log logger.Logger,
) *CamundaWorker {
	log = log.WithFields(map[string]interface{}{"taskType": taskType})
	if !wcfg.Enabled {
		log.Info("worker disabled", nil)
		return nil
	}

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, handler, recorder, log)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	log.Info("worker started", map[string]interface{}{
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeoutMs":     wcfg.Timeout,
	})

	return &CamundaWorker{
		worker:   jobWorker,
		logger:   log,
		taskType: taskType,
	}
}

// Instrument adapts handler to the Zeebe handler signature and records
// Prometheus and OpenTelemetry job metrics around it.
func Instrument(taskType string, handler JobHandler, recorder JobRecorder, log logger.Logger) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		active := metrics.WorkerJobsActive.WithLabelValues(taskType)
		active.Inc()
		defer active.Dec()

		start := time.Now()
		err := handler.Handle(client, job)
		elapsed := time.Since(start)

		status := "completed"
		if err != nil {
			status = "failed"
			code := apperrors.AsStandardError(err).Code
			metrics.WorkerJobsFailed.WithLabelValues(taskType, string(code)).Inc()
			log.Warn("job handler returned error", map[string]interface{}{
				"jobKey":    job.Key,
				"errorCode": string(code),
			})
		} else {
			metrics.WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		}
		metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())

		if recorder != nil {
			ctx := context.Background()
			recorder.RecordJobProcessed(ctx, taskType, status)
			recorder.RecordJobDuration(ctx, taskType, elapsed, status)
		}
	}
}

// TaskType returns the job type this worker polls.
func (w *CamundaWorker) TaskType() string { return w.taskType }

// Stop closes the job worker and waits for in-flight jobs. The shared client
// is closed by its owner.
func (w *CamundaWorker) Stop() {
	w.logger.Info("stopping worker", nil)
	w.worker.Close()
	w.worker.AwaitClose()
}

// CompleteJob completes job with output serialized as its variables. The send
// is retried on transient gateway errors within ctx.
func CompleteJob(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return sendJobCommand(ctx, "complete job", func(ctx context.Context) (interface{}, error) {
		return cmd.Send(ctx)
	})
}

func sendJobCommand(ctx context.Context, operation string, send func(context.Context) (interface{}, error)) error {
	_, err := executeWithRetry(ctx, JobCommandRetryConfig, send, operation)
	return err
}
