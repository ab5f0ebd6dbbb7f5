package camunda

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worth-it/internal/common/config"
	apperrors "worth-it/internal/common/errors"
	"worth-it/internal/common/logger"
	"worth-it/internal/common/metrics"
)

func testClient(maxRetries int) *Client {
	return &Client{config: &ClientConfig{RetryConfig: &RetryConfig{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   2 * time.Millisecond,
	}}}
}

// ==========================
// Retry and error mapping
// ==========================

func TestExecuteWithRetry_SucceedsAfterTransientErrors(t *testing.T) {
	c := testClient(3)
	calls := 0

	result, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("rpc error: code = Unavailable")
		}
		return "ok", nil
	}, "publish message")

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetry_GivesUpOnPermanentError(t *testing.T) {
	c := testClient(3)
	calls := 0

	_, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		return nil, errors.New("rpc error: code = NotFound desc = job not found")
	}, "complete job")

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, apperrors.ErrCodeEngineRejected, apperrors.AsStandardError(err).Code)
}

func TestExecuteWithRetry_ExhaustsRetries(t *testing.T) {
	c := testClient(2)
	calls := 0

	_, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		calls++
		return nil, errors.New("context deadline exceeded")
	}, "topology")

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	stdErr := apperrors.AsStandardError(err)
	assert.Equal(t, apperrors.ErrCodeEngineUnavailable, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestExecuteWithRetry_Cancelled(t *testing.T) {
	c := &Client{config: &ClientConfig{RetryConfig: &RetryConfig{
		MaxRetries: 5, BaseDelay: time.Second, MaxDelay: time.Second,
	}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ExecuteWithRetry(ctx, func(context.Context) (interface{}, error) {
		return nil, errors.New("connection refused")
	}, "topology")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSendJobCommand_RetriesTransientSend(t *testing.T) {
	calls := 0
	err := sendJobCommand(context.Background(), "complete job", func(context.Context) (interface{}, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("rpc error: code = Unavailable desc = connection reset")
		}
		return &pb.CompleteJobResponse{}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestSendJobCommand_DoesNotRetryRejection(t *testing.T) {
	calls := 0
	err := sendJobCommand(context.Background(), "complete job", func(context.Context) (interface{}, error) {
		calls++
		return nil, errors.New("rpc error: code = NotFound desc = job 42 not found")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, apperrors.ErrCodeEngineRejected, apperrors.AsStandardError(err).Code)
}

func TestIsRetryableZeebeError(t *testing.T) {
	assert.True(t, isRetryableZeebeError(errors.New("dial tcp: connection refused")))
	assert.True(t, isRetryableZeebeError(errors.New("Deadline Exceeded")))
	assert.False(t, isRetryableZeebeError(errors.New("permission denied")))
}

func TestConfigFrom(t *testing.T) {
	cc := ConfigFrom(config.CamundaConfig{BrokerAddress: "zeebe:26500", RequestTimeout: 1500})
	assert.Equal(t, "zeebe:26500", cc.GatewayAddress)
	assert.True(t, cc.UsePlaintextConnection)
	assert.Equal(t, 1500*time.Millisecond, cc.RequestTimeout)
	assert.Same(t, DefaultRetryConfig, cc.RetryConfig)
}

// ==========================
// Instrumentation
// ==========================

type stubHandler struct {
	err error
}

func (s stubHandler) Handle(worker.JobClient, entities.Job) error { return s.err }

type stubRecorder struct {
	mu       sync.Mutex
	statuses []string
	timed    int
}

func (r *stubRecorder) RecordJobProcessed(_ context.Context, _ string, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func (r *stubRecorder) RecordJobDuration(context.Context, string, time.Duration, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timed++
}

func testJob(taskType string) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 42, Type: taskType, Retries: 3}}
}

func TestInstrumentRecordsOutcome(t *testing.T) {
	const taskType = "test.instrument.outcome"
	rec := &stubRecorder{}
	log := logger.NewTestLogger(t)

	Instrument(taskType, stubHandler{}, rec, log)(nil, testJob(taskType))
	failing := apperrors.NewStorageWriteFailedError("goal-results", errors.New("disk full"))
	Instrument(taskType, stubHandler{err: failing}, rec, log)(nil, testJob(taskType))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WorkerJobsCompleted.WithLabelValues(taskType)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WorkerJobsFailed.WithLabelValues(taskType, "STORAGE_WRITE_FAILED")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues(taskType)))

	assert.Equal(t, []string{"completed", "failed"}, rec.statuses)
	assert.Equal(t, 2, rec.timed)
}

func TestInstrumentWithoutRecorder(t *testing.T) {
	const taskType = "test.instrument.norecorder"
	assert.NotPanics(t, func() {
		Instrument(taskType, stubHandler{}, nil, logger.NewNoOpLogger())(nil, testJob(taskType))
	})
}
