package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/maverick/backend/internal/contracts"
)

// fakeJob 처음 failures번 실패 후 성공하는 작업
type fakeJob struct {
	name     string
	schedule string
	failures int32
	err      error
	calls    atomic.Int32
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(ctx context.Context) error {
	n := j.calls.Add(1)
	if n <= j.failures {
		return j.err
	}
	return nil
}

func newJob(name string, failures int32, err error) *fakeJob {
	return &fakeJob{name: name, schedule: "0 0 * * * *", failures: failures, err: err}
}

func newTestScheduler() *Scheduler {
	return New(nil, WithRetries(2, time.Millisecond))
}

func TestRunJobSuccess(t *testing.T) {
	s := newTestScheduler()
	job := newJob("ok", 0, nil)
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJob(context.Background(), "ok")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Attempts)
	assert.Empty(t, result.Error)
}

func TestRunJobRetries(t *testing.T) {
	tests := []struct {
		name     string
		failures int32
		err      error
		success  bool
		attempts int
	}{
		{"recovers after one failure", 1, errors.New("db timeout"), true, 2},
		{"exhausts retries", 5, errors.New("db timeout"), false, 3},
		{"invalid input not retried", 5, fmt.Errorf("%w: no positions", contracts.ErrInvalidInput), false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScheduler()
			job := newJob("job", tt.failures, tt.err)
			require.NoError(t, s.AddJob(job))

			result, err := s.RunJob(context.Background(), "job")
			require.NoError(t, err)
			assert.Equal(t, tt.success, result.Success)
			assert.Equal(t, tt.attempts, result.Attempts)
			assert.Equal(t, int32(tt.attempts), job.calls.Load())
		})
	}
}

func TestRunJobCancelledContext(t *testing.T) {
	s := New(nil, WithRetries(3, time.Hour))
	job := newJob("slow", 5, errors.New("unavailable"))
	require.NoError(t, s.AddJob(job))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	result, err := s.RunJob(ctx, "slow")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.Attempts)
}

func TestRunJobUnknown(t *testing.T) {
	_, err := newTestScheduler().RunJob(context.Background(), "missing")
	assert.Error(t, err)
}

func TestAddJobErrors(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(newJob("a", 0, nil)))
	assert.Error(t, s.AddJob(newJob("a", 0, nil)), "duplicate name")

	bad := newJob("bad", 0, nil)
	bad.schedule = "not a cron"
	assert.Error(t, s.AddJob(bad))
}

func TestRemoveJob(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(newJob("a", 0, nil)))
	require.NoError(t, s.AddJob(newJob("b", 0, nil)))

	require.NoError(t, s.RemoveJob("a"))
	assert.Equal(t, []string{"b"}, s.GetAllJobs())
	assert.Error(t, s.RemoveJob("a"))
}

func TestJobStats(t *testing.T) {
	s := newTestScheduler()
	job := newJob("flaky", 3, errors.New("boom"))
	require.NoError(t, s.AddJob(job))

	// 1회차: 3번 모두 실패, 2회차: 성공
	_, err := s.RunJob(context.Background(), "flaky")
	require.NoError(t, err)
	_, err = s.RunJob(context.Background(), "flaky")
	require.NoError(t, err)

	stats := s.GetJobStats()["flaky"]
	assert.Equal(t, 2, stats.TotalRuns)
	assert.Equal(t, 1, stats.SuccessCount)
	assert.Equal(t, 1, stats.FailureCount)
	assert.InDelta(t, 0.5, stats.SuccessRate, 1e-12)
	assert.NotNil(t, stats.LastRun)
	assert.NotNil(t, stats.LastSuccess)
	assert.NotNil(t, stats.LastFailure)

	history, err := s.GetJobHistory("flaky")
	require.NoError(t, err)
	assert.Len(t, history.Results, 2)
}

func TestNextRun(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(newJob("hourly", 0, nil)))
	s.Start()
	defer s.Stop()

	next, err := s.NextRun("hourly")
	require.NoError(t, err)
	assert.True(t, next.After(time.Now()))
	assert.Zero(t, next.Minute())
}

func TestJobHistoryLimit(t *testing.T) {
	h := &JobHistory{}
	for i := range historyLimit + 20 {
		h.Add(JobResult{JobName: fmt.Sprint(i), Success: i%2 == 0})
	}

	assert.Len(t, h.Results, historyLimit)
	assert.Equal(t, "20", h.Results[0].JobName)
	assert.InDelta(t, 0.5, h.SuccessRate(), 1e-12)
	assert.Len(t, h.Failures(), historyLimit/2)

	latest := h.Latest(3)
	require.Len(t, latest, 3)
	assert.Equal(t, "119", latest[2].JobName)
	assert.Empty(t, h.Latest(0))
	assert.Empty(t, (&JobHistory{}).Latest(5))
}
