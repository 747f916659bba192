package model

import (
	"encoding/json"
	"time"
)

// Kind selects the queue topic and the worker a job is bound to.
type Kind string

const (
	KindSendEmail   Kind = "send-email"
	KindDeleteOrder Kind = "delete-order"
)

// Job states as tracked by the durable queue. Queued and delayed jobs live in
// the broker's ready/delayed structures; failed jobs are retained for
// inspection and never purged automatically.
const (
	StateQueued     = "queued"
	StateDelayed    = "delayed"
	StateProcessing = "processing"
	StateFailed     = "failed"
)

// Attempt policy, fixed for both task kinds.
const (
	MaxAttempts      = 3
	InitialBackoffMs = 5000
)

// Job is the envelope persisted in the broker. Once submitted it is immutable
// except for Attempts and LastError, which the worker updates as part of
// retry bookkeeping.
type Job struct {
	ID          string          `json:"id"`
	Kind        Kind            `json:"kind"`
	Payload     json.RawMessage `json:"payload"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	BackoffMs   int64           `json:"backoff_ms"`
	DelayMs     int64           `json:"delay_ms,omitempty"`
	EnqueuedAt  time.Time       `json:"enqueued_at"`
	LastError   string          `json:"last_error,omitempty"`
}

// NextBackoff returns the delay before the next attempt, doubling per failed
// attempt (5s, 10s, 20s under the default policy). Attempts is the count
// already consumed, so the first retry sees the initial backoff unchanged.
func (j Job) NextBackoff() time.Duration {
	backoff := j.BackoffMs
	if backoff <= 0 {
		backoff = InitialBackoffMs
	}
	attempt := j.Attempts
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(backoff<<(attempt-1)) * time.Millisecond
}

// EmailPayload is the body of a send-email job. All fields are required.
type EmailPayload struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
}

// CleanupPayload is the body of a delete-order job.
type CleanupPayload struct {
	OrderID string `json:"order_id"`
}

// Order statuses. Only Completed orders are eligible for physical deletion;
// the cleanup worker re-checks the status at execution time.
const (
	OrderStatusCompleted = "Completed"
	OrderStatusInProcess = "In Process"
)

// Order is the slice of the orders table the cleanup worker cares about.
type Order struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
