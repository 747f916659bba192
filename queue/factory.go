package queue

import (
	"context"
	"log"
	"sync"
	"time"

	"gemtasks/model"
)

// Options is the shared broker connection configuration, read-only after
// construction. Both queue handles and both workers consume the same values.
type Options struct {
	Addr         string
	Password     string
	ProbeTimeout time.Duration
	Logger       *log.Logger
}

// Registry owns the per-kind queue handles. A handle is constructed lazily on
// first use and memoized for the life of the process: if durable construction
// fails the inert fallback is cached permanently, with no periodic re-probe.
type Registry struct {
	opts  Options
	probe func(addr string, timeout time.Duration) bool
	dial  func(opts Options, kind model.Kind) (Queue, error)

	mu      sync.Mutex
	handles map[model.Kind]Queue
	pending map[model.Kind]chan struct{}
}

func NewRegistry(opts Options) *Registry {
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = DefaultProbeTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Registry{
		opts:    opts,
		probe:   Probe,
		dial:    dialRedis,
		handles: make(map[model.Kind]Queue),
		pending: make(map[model.Kind]chan struct{}),
	}
}

func dialRedis(opts Options, kind model.Kind) (Queue, error) {
	return NewRedisQueue(opts, kind)
}

// Get returns the queue handle for kind, constructing it on first use.
// Concurrent first-time callers wait behind a single in-flight initialization
// and all observe the same handle: exactly one probe and at most one dial run
// no matter how many submitters race. The only error Get can return is ctx
// cancellation while waiting; construction failure degrades to the inert
// queue instead of propagating.
func (r *Registry) Get(ctx context.Context, kind model.Kind) (Queue, error) {
	for {
		r.mu.Lock()
		if q, ok := r.handles[kind]; ok {
			r.mu.Unlock()
			return q, nil
		}
		if ch, ok := r.pending[kind]; ok {
			r.mu.Unlock()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-ch:
			}
			continue
		}
		ch := make(chan struct{})
		r.pending[kind] = ch
		r.mu.Unlock()

		r.initialize(kind, ch)
	}
}

// initialize runs the probe-then-dial sequence and caches the result. The
// in-flight marker is cleared in a defer, so a panic mid-construction does
// not wedge future submitters; because the handle is only cached on the
// normal path, the next caller then re-runs initialization from scratch.
func (r *Registry) initialize(kind model.Kind, ch chan struct{}) {
	defer func() {
		r.mu.Lock()
		delete(r.pending, kind)
		close(ch)
		r.mu.Unlock()
	}()

	var q Queue
	if r.probe(r.opts.Addr, r.opts.ProbeTimeout) {
		durable, err := r.dial(r.opts, kind)
		if err != nil {
			r.opts.Logger.Printf("[queue:%s] broker dial failed, falling back to inert queue: %v", kind, err)
			q = NewInertQueue(kind, r.opts.Logger)
		} else {
			q = durable
		}
	} else {
		r.opts.Logger.Printf("[queue:%s] broker %s unreachable, falling back to inert queue", kind, r.opts.Addr)
		q = NewInertQueue(kind, r.opts.Logger)
	}

	r.mu.Lock()
	r.handles[kind] = q
	r.mu.Unlock()
}

// Close tears down every constructed handle. Only called at process shutdown.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var first error
	for kind, q := range r.handles {
		if err := q.Close(); err != nil && first == nil {
			first = err
		}
		delete(r.handles, kind)
	}
	return first
}
