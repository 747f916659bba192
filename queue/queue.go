package queue

import (
	"context"
	"errors"
	"time"

	"gemtasks/model"
)

// Default lease held per in-flight job. If a worker does not complete or fail
// a job within the lease window, the reclaimer makes it claimable again, so
// duplicate execution is possible and handlers must tolerate it.
const DefaultLease = 30 * time.Second

var ErrNotDurable = errors.New("queue: operation requires a durable queue")

// JobDescriptor is the opaque handle returned to submitters. The ID is a real
// broker-side identifier in durable mode or a synthetic inert-prefixed one in
// mock mode; it is non-empty in both.
type JobDescriptor struct {
	ID   string     `json:"id"`
	Kind model.Kind `json:"kind"`
}

// Queue is the capability shared by the durable and inert implementations.
// The implementation is selected once at construction time and never swapped
// for the life of the process.
type Queue interface {
	Submit(ctx context.Context, job model.Job) (JobDescriptor, error)
	Close() error
}

// ClaimedJob is a job under lease. raw is the exact broker representation of
// the entry, needed to remove it from the processing list on completion.
type ClaimedJob struct {
	model.Job
	raw string
}

// Consumer is the worker-facing side of a durable queue. The inert queue does
// not implement it; workers bound to an inert handle never claim anything.
type Consumer interface {
	Claim(ctx context.Context, lease time.Duration) (*ClaimedJob, error)
	Complete(ctx context.Context, c *ClaimedJob) error
	Retry(ctx context.Context, c *ClaimedJob, delay time.Duration) error
	FailTerminal(ctx context.Context, c *ClaimedJob, reason string) error
}

// FailedStore exposes the retained terminally-failed jobs for inspection and
// manual requeue. Durable queues only.
type FailedStore interface {
	ListFailed(ctx context.Context, limit int64) ([]model.Job, error)
	RequeueFailed(ctx context.Context, jobID string) error
}
