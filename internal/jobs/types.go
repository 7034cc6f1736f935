// Package jobs defines background jobs run outside the request path.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/finsight/internal/notionsync"
)

// ErrJobNotFound is returned by a JobStore for unknown job ids.
var ErrJobNotFound = errors.New("job not found")

// JobType represents the type of job to be executed.
type JobType string

// JobTypeSyncNotion exports a user's transactions to Notion.
const JobTypeSyncNotion JobType = "sync_notion"

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// DefaultMaxRetries is applied to jobs published without a retry budget.
const DefaultMaxRetries = 3

// SyncNotionJob exports one user's transactions to the configured Notion database.
type SyncNotionJob struct {
	JobID  string `json:"job_id"`
	UserID string `json:"user_id"`
	DryRun bool   `json:"dry_run"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`

	// Result is set by the handler on success.
	Result *notionsync.SyncResult `json:"result,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Type returns the job type.
func (j *SyncNotionJob) Type() JobType {
	return JobTypeSyncNotion
}

// Publisher enqueues jobs.
type Publisher interface {
	PublishSyncNotion(ctx context.Context, job *SyncNotionJob) error
	Close() error
}

// Consumer runs a handler for every published job.
type Consumer interface {
	// Start launches the workers and returns immediately.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming and waits for in-flight jobs.
	Stop(ctx context.Context) error
}

// JobHandler processes a job. A returned error marks the attempt as failed
// and the job is retried while it has retries left.
type JobHandler func(ctx context.Context, job *SyncNotionJob) error

// JobStore keeps job state for status queries.
type JobStore interface {
	SaveJob(ctx context.Context, job *SyncNotionJob) error

	// GetJob returns ErrJobNotFound for unknown ids.
	GetJob(ctx context.Context, jobID string) (*SyncNotionJob, error)

	// ListJobs returns matching jobs, newest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*SyncNotionJob, error)
}

// JobFilter narrows ListJobs. Zero values match everything.
type JobFilter struct {
	UserID string
	Status JobStatus
	Limit  int
	Offset int
}
