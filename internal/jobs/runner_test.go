package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testJob is a minimal Job implementation for exercising the runner.
type testJob struct {
	id      uuid.UUID
	execute func(ctx context.Context) error
}

func (j *testJob) ID() uuid.UUID     { return j.id }
func (j *testJob) Type() string      { return "test" }
func (j *testJob) Payload() []byte   { return []byte("{}") }
func (j *testJob) Status() JobStatus { return JobStatusPending }
func (j *testJob) Execute(ctx context.Context) error {
	if j.execute != nil {
		return j.execute(ctx)
	}
	return nil
}

func testRunnerConfig() JobRunnerConfig {
	return JobRunnerConfig{
		WorkerCount:           1,
		QueueSize:             10,
		StuckJobAge:           time.Minute,
		StuckJobCheckInterval: time.Hour, // keep the monitor quiet during tests
	}
}

func waitForStatus(t *testing.T, store *MockJobStore, jobID uuid.UUID, want JobStatus) {
	t.Helper()

	require.Eventually(t, func() bool {
		got, ok := store.JobStatus(jobID)
		return ok && got == want
	}, 2*time.Second, 10*time.Millisecond, "job never reached status %s", want)
}

func TestJobRunnerSubmitAndExecute(t *testing.T) {
	t.Parallel()

	store := NewMockJobStore()
	runner := NewJobRunner(store, testRunnerConfig(), slog.Default())
	require.NoError(t, runner.Start())
	defer runner.Stop()

	var executed atomic.Int32
	job := &testJob{id: uuid.New(), execute: func(ctx context.Context) error {
		executed.Add(1)
		return nil
	}}

	require.NoError(t, runner.Submit(context.Background(), job))

	waitForStatus(t, store, job.ID(), JobStatusCompleted)
	assert.Equal(t, int32(1), executed.Load())
}

func TestJobRunnerFailedJob(t *testing.T) {
	t.Parallel()

	store := NewMockJobStore()
	runner := NewJobRunner(store, testRunnerConfig(), slog.Default())

	var handled atomic.Int32
	runner.SetErrorHandler(func(job Job, err error) {
		handled.Add(1)
	})
	require.NoError(t, runner.Start())
	defer runner.Stop()

	job := &testJob{id: uuid.New(), execute: func(ctx context.Context) error {
		return errors.New("boom")
	}}
	require.NoError(t, runner.Submit(context.Background(), job))

	waitForStatus(t, store, job.ID(), JobStatusFailed)
	require.Eventually(t, func() bool { return handled.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestJobRunnerSubmitPersistsBeforeQueueing(t *testing.T) {
	t.Parallel()

	saveErr := errors.New("disk full")
	store := NewMockJobStore()
	store.SaveJobFn = func(ctx context.Context, job Job) error {
		return saveErr
	}

	runner := NewJobRunner(store, testRunnerConfig(), slog.Default())
	err := runner.Submit(context.Background(), &testJob{id: uuid.New()})
	assert.ErrorIs(t, err, saveErr)
}

func TestJobRunnerQueueFull(t *testing.T) {
	t.Parallel()

	store := NewMockJobStore()
	cfg := testRunnerConfig()
	cfg.QueueSize = 0

	// Runner not started: nothing drains the queue.
	runner := NewJobRunner(store, cfg, slog.Default())

	job := &testJob{id: uuid.New()}
	err := runner.Submit(context.Background(), job)
	require.Error(t, err)

	// The row is still durable, so recovery can pick it up later.
	status, ok := store.JobStatus(job.ID())
	require.True(t, ok)
	assert.Equal(t, JobStatusPending, status)
}

func TestJobRunnerRecovery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMockJobStore()

	// Persist rows directly, as if a previous process crashed.
	pending := &testJob{id: uuid.New()}
	interrupted := &testJob{id: uuid.New()}
	require.NoError(t, store.SaveJob(ctx, pending))
	require.NoError(t, store.SaveJob(ctx, interrupted))
	require.NoError(t, store.UpdateJobStatus(ctx, interrupted.ID(), JobStatusProcessing, ""))

	var rehydrated atomic.Int32
	runner := NewJobRunner(store, testRunnerConfig(), slog.Default())
	runner.SetRehydrator(func(jobType string, id uuid.UUID, payload []byte) (Job, error) {
		rehydrated.Add(1)
		return &testJob{id: id}, nil
	})

	require.NoError(t, runner.Start())
	defer runner.Stop()

	waitForStatus(t, store, pending.ID(), JobStatusCompleted)
	waitForStatus(t, store, interrupted.ID(), JobStatusCompleted)
	assert.Equal(t, int32(2), rehydrated.Load())
}

func TestJobRunnerRehydrateFailureMarksJobFailed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMockJobStore()

	stale := &testJob{id: uuid.New()}
	require.NoError(t, store.SaveJob(ctx, stale))

	runner := NewJobRunner(store, testRunnerConfig(), slog.Default())
	runner.SetRehydrator(func(jobType string, id uuid.UUID, payload []byte) (Job, error) {
		return nil, errors.New("unknown payload shape")
	})

	require.NoError(t, runner.Start())
	defer runner.Stop()

	waitForStatus(t, store, stale.ID(), JobStatusFailed)
}
