package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"gemtasks/model"
	"gemtasks/queue"
)

// Outcome is the tagged result of executing one job. The worker loop, not
// the handler, interprets it against the queue: Done acknowledges, Retry
// consumes an attempt and re-queues with backoff, Discard moves the job
// straight to the retained failed list without touching the retry budget.
type Outcome int

const (
	OutcomeDone Outcome = iota
	OutcomeRetry
	OutcomeDiscard
)

type Result struct {
	Outcome Outcome
	Reason  string // Discard only
	Err     error  // Retry only
}

func done() Result                 { return Result{Outcome: OutcomeDone} }
func retry(err error) Result       { return Result{Outcome: OutcomeRetry, Err: err} }
func discard(reason string) Result { return Result{Outcome: OutcomeDiscard, Reason: reason} }

// Handler executes the side effect for one task kind.
type Handler interface {
	Kind() model.Kind
	Handle(ctx context.Context, job model.Job) Result
}

// QueueProvider yields the queue handle for a task kind. Satisfied by
// *queue.Registry.
type QueueProvider interface {
	Get(ctx context.Context, kind model.Kind) (queue.Queue, error)
}

// Worker pulls jobs for one task kind and executes them. A worker bound to
// an inert handle (broker unreachable at startup) stays idle instead of
// crashing the process; broker unavailability is an operational condition,
// not a logical one, and both task kinds degrade the same way.
type Worker struct {
	queue       queue.Consumer // nil when inert
	handler     Handler
	log         *log.Logger
	concurrency int
	lease       time.Duration
}

func New(ctx context.Context, queues QueueProvider, h Handler, concurrency int, logger *log.Logger) (*Worker, error) {
	if logger == nil {
		logger = log.Default()
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	q, err := queues.Get(ctx, h.Kind())
	if err != nil {
		return nil, err
	}
	w := &Worker{handler: h, log: logger, concurrency: concurrency, lease: queue.DefaultLease}
	if c, ok := q.(queue.Consumer); ok {
		w.queue = c
	} else {
		logger.Printf("[worker:%s] broker unavailable, worker will stay idle", h.Kind())
	}
	return w, nil
}

// Start launches the claim loops. An inert worker parks a single goroutine
// on ctx so shutdown accounting stays uniform.
func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup) {
	if w.queue == nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-ctx.Done()
		}()
		return
	}
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.loop(ctx, id)
		}(i + 1)
	}
}

func (w *Worker) loop(ctx context.Context, id int) {
	kind := w.handler.Kind()
	for {
		select {
		case <-ctx.Done():
			w.log.Printf("[worker:%s %d] shutting down", kind, id)
			return
		default:
		}

		claimed, err := w.queue.Claim(ctx, w.lease)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.log.Printf("[worker:%s %d] claim error: %v", kind, id, err)
			time.Sleep(time.Second)
			continue
		}
		if claimed == nil {
			continue
		}
		w.process(ctx, id, claimed)
	}
}

func (w *Worker) process(ctx context.Context, id int, c *queue.ClaimedJob) {
	kind := w.handler.Kind()
	res := w.handler.Handle(ctx, c.Job)

	switch res.Outcome {
	case OutcomeDone:
		if err := w.queue.Complete(ctx, c); err != nil {
			w.log.Printf("[worker:%s %d] ack job %s: %v", kind, id, c.ID, err)
			return
		}
		w.log.Printf("[worker:%s %d] processed job %s", kind, id, c.ID)

	case OutcomeDiscard:
		if err := w.queue.FailTerminal(ctx, c, res.Reason); err != nil {
			w.log.Printf("[worker:%s %d] discard job %s: %v", kind, id, c.ID, err)
			return
		}
		w.log.Printf("[worker:%s %d] discarded job %s: %s", kind, id, c.ID, res.Reason)

	case OutcomeRetry:
		c.Attempts++
		c.LastError = "handler requested retry"
		if res.Err != nil {
			c.LastError = res.Err.Error()
		}
		max := c.MaxAttempts
		if max <= 0 {
			max = model.MaxAttempts
		}
		if c.Attempts >= max {
			if err := w.queue.FailTerminal(ctx, c, c.LastError); err != nil {
				w.log.Printf("[worker:%s %d] fail job %s: %v", kind, id, c.ID, err)
				return
			}
			w.log.Printf("[worker:%s %d] job %s failed after %d attempts: %v", kind, id, c.ID, c.Attempts, res.Err)
			return
		}
		delay := c.NextBackoff()
		if err := w.queue.Retry(ctx, c, delay); err != nil {
			w.log.Printf("[worker:%s %d] requeue job %s: %v", kind, id, c.ID, err)
			return
		}
		w.log.Printf("[worker:%s %d] retrying job %s in %v (attempt %d): %v", kind, id, c.ID, delay, c.Attempts, res.Err)
	}
}
