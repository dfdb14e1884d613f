package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func TestScheduler_RunJobNow(t *testing.T) {
	s := newTestScheduler(t)

	var runs atomic.Int32
	require.NoError(t, s.AddCronJob("audit_retention", "Audit retention", "test job", "0 3 * * *", true,
		func(context.Context) error {
			runs.Add(1)
			return nil
		}))
	s.Start()

	require.NoError(t, s.RunJobNow("audit_retention"))
	require.Eventually(t, func() bool {
		job, ok := s.GetJob("audit_retention")
		return ok && runs.Load() == 1 && job.Status == JobStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	job, ok := s.GetJob("audit_retention")
	require.True(t, ok)
	assert.Equal(t, 1, job.RunCount)
	assert.NotNil(t, job.LastRun)
	assert.NotNil(t, job.NextRun)
}

func TestScheduler_FailedJobIsRecorded(t *testing.T) {
	s := newTestScheduler(t)

	require.NoError(t, s.AddCronJob("broken", "Broken", "always fails", "0 3 * * *", false,
		func(context.Context) error {
			return errors.New("boom")
		}))
	s.Start()

	require.NoError(t, s.RunJobNow("broken"))
	require.Eventually(t, func() bool {
		job, _ := s.GetJob("broken")
		return job.Status == JobStatusFailed
	}, 2*time.Second, 10*time.Millisecond)

	job, _ := s.GetJob("broken")
	assert.Equal(t, 1, job.ErrorCount)
	assert.Equal(t, "boom", job.LastError)
}

func TestScheduler_DisabledJobSkips(t *testing.T) {
	s := newTestScheduler(t)

	var runs atomic.Int32
	require.NoError(t, s.AddCronJob("cleanup", "Cleanup", "", "0 3 * * *", true,
		func(context.Context) error {
			runs.Add(1)
			return nil
		}))
	s.Start()

	require.NoError(t, s.SetJobEnabled("cleanup", false))
	require.NoError(t, s.RunJobNow("cleanup"))
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, runs.Load())
}

func TestScheduler_UnknownJob(t *testing.T) {
	s := newTestScheduler(t)
	assert.ErrorIs(t, s.RunJobNow("missing"), ErrJobNotFound)
	assert.ErrorIs(t, s.SetJobEnabled("missing", true), ErrJobNotFound)
	_, ok := s.GetJob("missing")
	assert.False(t, ok)
	assert.Empty(t, s.GetJobs())
}
