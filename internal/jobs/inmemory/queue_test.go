package inmemory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finsight/internal/jobs"
	"github.com/dvloznov/finsight/internal/notionsync"
)

func waitForStatus(t *testing.T, store *Store, jobID string, want jobs.JobStatus) *jobs.SyncNotionJob {
	t.Helper()
	var job *jobs.SyncNotionJob
	require.Eventually(t, func() bool {
		var err error
		job, err = store.GetJob(context.Background(), jobID)
		return err == nil && job.Status == want
	}, 2*time.Second, 5*time.Millisecond)
	return job
}

func TestQueue_ProcessesJob(t *testing.T) {
	store := NewStore()
	q := NewQueue(4, 2, store)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, q.Start(ctx, func(ctx context.Context, job *jobs.SyncNotionJob) error {
		job.Result = &notionsync.SyncResult{Created: 3}
		return nil
	}))

	job := &jobs.SyncNotionJob{UserID: "user-1"}
	require.NoError(t, q.PublishSyncNotion(ctx, job))
	assert.NotEmpty(t, job.JobID)
	assert.Equal(t, jobs.DefaultMaxRetries, job.MaxRetries)

	done := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	require.NotNil(t, done.Result)
	assert.Equal(t, 3, done.Result.Created)
	assert.NotNil(t, done.StartedAt)
	assert.NotNil(t, done.CompletedAt)

	require.NoError(t, q.Stop(context.Background()))
}

func TestQueue_RetriesThenFails(t *testing.T) {
	store := NewStore()
	q := NewQueue(4, 1, store)
	q.backoff = time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var attempts atomic.Int32
	require.NoError(t, q.Start(ctx, func(ctx context.Context, job *jobs.SyncNotionJob) error {
		attempts.Add(1)
		return errors.New("notion unavailable")
	}))

	job := &jobs.SyncNotionJob{UserID: "user-1", MaxRetries: 2}
	require.NoError(t, q.PublishSyncNotion(ctx, job))

	failed := waitForStatus(t, store, job.JobID, jobs.JobStatusFailed)
	assert.Equal(t, int32(3), attempts.Load())
	assert.Equal(t, 2, failed.RetryCount)
	assert.Equal(t, "notion unavailable", failed.Error)

	require.NoError(t, q.Stop(context.Background()))
}

func TestQueue_PublishAfterStop(t *testing.T) {
	q := NewQueue(1, 1, nil)
	require.NoError(t, q.Stop(context.Background()))
	require.NoError(t, q.Close())

	err := q.PublishSyncNotion(context.Background(), &jobs.SyncNotionJob{})
	assert.ErrorIs(t, err, ErrQueueClosed)
	assert.ErrorIs(t, q.Start(context.Background(), nil), ErrQueueClosed)
}

func TestStore_ListJobs(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, j := range []jobs.SyncNotionJob{
		{JobID: "a", UserID: "u1", Status: jobs.JobStatusCompleted, CreatedAt: base},
		{JobID: "b", UserID: "u1", Status: jobs.JobStatusFailed, CreatedAt: base.Add(time.Hour)},
		{JobID: "c", UserID: "u2", Status: jobs.JobStatusCompleted, CreatedAt: base.Add(2 * time.Hour)},
	} {
		require.NoError(t, store.SaveJob(ctx, &j), "job %d", i)
	}

	all, err := store.ListJobs(ctx, jobs.JobFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].JobID)

	u1, err := store.ListJobs(ctx, jobs.JobFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, u1, 2)
	assert.Equal(t, "b", u1[0].JobID)

	completed, err := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusCompleted, Limit: 1})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "c", completed[0].JobID)

	empty, err := store.ListJobs(ctx, jobs.JobFilter{Offset: 5})
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = store.GetJob(ctx, "missing")
	assert.ErrorIs(t, err, jobs.ErrJobNotFound)

	assert.Error(t, store.SaveJob(ctx, &jobs.SyncNotionJob{}))
}
