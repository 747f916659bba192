// Package jobs is the submission API for background work. Business callers
// treat it as a best-effort side channel: a failed submission is logged and
// must never roll back the write that triggered it.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"gemtasks/model"
	"gemtasks/queue"

	"github.com/google/uuid"
)

var (
	ErrInvalidPayload = errors.New("jobs: invalid payload")
	ErrInvalidAddress = errors.New("jobs: invalid recipient address")
)

// Basic local@domain.tld shape. Deliverability is the mail transport's
// problem; this only rejects obvious garbage before it reaches the queue.
var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// QueueProvider yields the queue handle for a task kind. Satisfied by
// *queue.Registry.
type QueueProvider interface {
	Get(ctx context.Context, kind model.Kind) (queue.Queue, error)
}

type Submitter struct {
	queues QueueProvider
	log    *log.Logger
}

func NewSubmitter(queues QueueProvider, logger *log.Logger) *Submitter {
	if logger == nil {
		logger = log.Default()
	}
	return &Submitter{queues: queues, log: logger}
}

// SubmitEmail enqueues a transactional email. Validation runs before any
// queue interaction, so a rejected payload leaves no partial state behind.
func (s *Submitter) SubmitEmail(ctx context.Context, p model.EmailPayload) (queue.JobDescriptor, error) {
	if p.To == "" || p.Subject == "" || p.HTMLBody == "" {
		return queue.JobDescriptor{}, fmt.Errorf("%w: recipient, subject and body are required", ErrInvalidPayload)
	}
	if !emailShape.MatchString(p.To) {
		return queue.JobDescriptor{}, fmt.Errorf("%w: %q", ErrInvalidAddress, p.To)
	}
	return s.submit(ctx, model.KindSendEmail, p, 0)
}

// SubmitOrderCleanup schedules deferred physical deletion of a completed
// order. The worker re-checks the order status at execution time, so a
// status change after scheduling turns the job into a no-op.
func (s *Submitter) SubmitOrderCleanup(ctx context.Context, orderID string, delay time.Duration) (queue.JobDescriptor, error) {
	if strings.TrimSpace(orderID) == "" {
		return queue.JobDescriptor{}, fmt.Errorf("%w: order id is required", ErrInvalidPayload)
	}
	if delay < 0 {
		return queue.JobDescriptor{}, fmt.Errorf("%w: delay must be non-negative", ErrInvalidPayload)
	}
	return s.submit(ctx, model.KindDeleteOrder, model.CleanupPayload{OrderID: orderID}, delay)
}

func (s *Submitter) submit(ctx context.Context, kind model.Kind, payload any, delay time.Duration) (queue.JobDescriptor, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return queue.JobDescriptor{}, fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	job := model.Job{
		ID:          uuid.NewString(),
		Kind:        kind,
		Payload:     data,
		MaxAttempts: model.MaxAttempts,
		BackoffMs:   model.InitialBackoffMs,
		DelayMs:     delay.Milliseconds(),
		EnqueuedAt:  time.Now().UTC(),
	}

	q, err := s.queues.Get(ctx, kind)
	if err != nil {
		return queue.JobDescriptor{}, err
	}
	desc, err := q.Submit(ctx, job)
	if err != nil {
		s.log.Printf("[jobs] enqueue %s failed: %v", kind, err)
		return queue.JobDescriptor{}, err
	}
	return desc, nil
}
