package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"gemtasks/model"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "gemtasks:"

	// Claim blocks on the broker for at most this long before the worker
	// loop gets a chance to re-check its context.
	claimBlock = 2 * time.Second

	promoteBatch = 100
)

// RedisQueue is the durable queue for one task kind. Per-kind key space:
//
//	gemtasks:<kind>:ready       list of job JSON, claimable
//	gemtasks:<kind>:delayed     zset, score = fire time (unix ms)
//	gemtasks:<kind>:processing  list of job JSON under lease
//	gemtasks:<kind>:leases      zset, score = lease expiry (unix ms)
//	gemtasks:<kind>:failed      list of terminally failed jobs, retained
type RedisQueue struct {
	client *redis.Client
	kind   model.Kind
	log    *log.Logger
}

// NewRedisQueue dials the broker and verifies it with a ping. Request-level
// retries are disabled on the client; retry policy belongs to the job layer.
func NewRedisQueue(opts Options, kind model.Kind) (*RedisQueue, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	client := redis.NewClient(&redis.Options{
		Addr:       opts.Addr,
		Password:   opts.Password,
		MaxRetries: -1,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping broker at %s: %w", opts.Addr, err)
	}
	return &RedisQueue{client: client, kind: kind, log: logger}, nil
}

func (q *RedisQueue) key(part string) string {
	return keyPrefix + string(q.kind) + ":" + part
}

// Submit persists the job, immediately claimable or parked in the delayed set
// when the envelope carries a schedule delay.
func (q *RedisQueue) Submit(ctx context.Context, job model.Job) (JobDescriptor, error) {
	data, err := json.Marshal(job)
	if err != nil {
		return JobDescriptor{}, fmt.Errorf("marshal job: %w", err)
	}

	if job.DelayMs > 0 {
		fire := time.Now().UnixMilli() + job.DelayMs
		err = q.client.ZAdd(ctx, q.key("delayed"), redis.Z{Score: float64(fire), Member: string(data)}).Err()
	} else {
		err = q.client.LPush(ctx, q.key("ready"), data).Err()
	}
	if err != nil {
		return JobDescriptor{}, fmt.Errorf("enqueue %s job: %w", job.Kind, err)
	}
	return JobDescriptor{ID: job.ID, Kind: job.Kind}, nil
}

// Claim makes due delayed jobs available, returns expired leases to the ready
// list, then blocks for one job. The move from ready to processing is atomic;
// the lease entry written afterwards is what makes a stalled worker's job
// reclaimable. Returns (nil, nil) when no work arrived within the block
// window.
func (q *RedisQueue) Claim(ctx context.Context, lease time.Duration) (*ClaimedJob, error) {
	if lease <= 0 {
		lease = DefaultLease
	}
	if err := q.promoteDue(ctx); err != nil {
		q.log.Printf("[queue:%s] promote delayed jobs: %v", q.kind, err)
	}
	if _, err := q.ReclaimExpired(ctx); err != nil {
		q.log.Printf("[queue:%s] reclaim expired leases: %v", q.kind, err)
	}

	raw, err := q.client.BLMove(ctx, q.key("ready"), q.key("processing"), "RIGHT", "LEFT", claimBlock).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	expiry := time.Now().Add(lease).UnixMilli()
	if err := q.client.ZAdd(ctx, q.key("leases"), redis.Z{Score: float64(expiry), Member: raw}).Err(); err != nil {
		q.log.Printf("[queue:%s] record lease: %v", q.kind, err)
	}

	var job model.Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		// Unparseable entry: drop it from processing, nothing to execute.
		q.release(ctx, raw)
		return nil, fmt.Errorf("decode claimed job: %w", err)
	}
	return &ClaimedJob{Job: job, raw: raw}, nil
}

// Complete acknowledges a job. Nothing is retained on success.
func (q *RedisQueue) Complete(ctx context.Context, c *ClaimedJob) error {
	return q.release(ctx, c.raw)
}

// Retry re-queues a claimed job into the delayed set, carrying the updated
// attempt counter and last error in the envelope.
func (q *RedisQueue) Retry(ctx context.Context, c *ClaimedJob, delay time.Duration) error {
	data, err := json.Marshal(c.Job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.release(ctx, c.raw); err != nil {
		return err
	}
	fire := time.Now().Add(delay).UnixMilli()
	return q.client.ZAdd(ctx, q.key("delayed"), redis.Z{Score: float64(fire), Member: string(data)}).Err()
}

// FailTerminal moves a claimed job to the retained failed list. Failed jobs
// are never purged automatically; they stay inspectable until an operator
// requeues or deletes them.
func (q *RedisQueue) FailTerminal(ctx context.Context, c *ClaimedJob, reason string) error {
	c.LastError = reason
	data, err := json.Marshal(c.Job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.release(ctx, c.raw); err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key("failed"), data).Err()
}

// release removes a claimed entry from the processing list and lease set.
func (q *RedisQueue) release(ctx context.Context, raw string) error {
	if err := q.client.LRem(ctx, q.key("processing"), 1, raw).Err(); err != nil {
		return err
	}
	return q.client.ZRem(ctx, q.key("leases"), raw).Err()
}

// promoteDue moves delayed jobs whose fire time has passed into the ready
// list. Every claimer runs this, so the push is gated on the ZRem count: only
// the claimer that won the removal may make the job available, otherwise
// concurrent promotions would deliver the same job once per claimer.
func (q *RedisQueue) promoteDue(ctx context.Context) error {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	due, err := q.client.ZRangeByScore(ctx, q.key("delayed"), &redis.ZRangeBy{
		Min: "-inf", Max: now, Count: promoteBatch,
	}).Result()
	if err != nil || len(due) == 0 {
		return err
	}
	for _, raw := range due {
		removed, err := q.client.ZRem(ctx, q.key("delayed"), raw).Result()
		if err != nil {
			return err
		}
		if removed == 0 {
			// Another claimer promoted it between the range read and here.
			continue
		}
		if err := q.client.LPush(ctx, q.key("ready"), raw).Err(); err != nil {
			return err
		}
	}
	return nil
}

// ReclaimExpired returns jobs whose lease expired to the ready list, making
// redelivery possible. A job reclaimed while its original worker is still
// running may execute twice; handlers are expected to tolerate that.
func (q *RedisQueue) ReclaimExpired(ctx context.Context) (int, error) {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	expired, err := q.client.ZRangeByScore(ctx, q.key("leases"), &redis.ZRangeBy{
		Min: "-inf", Max: now, Count: promoteBatch,
	}).Result()
	if err != nil || len(expired) == 0 {
		return 0, err
	}
	reclaimed := 0
	for _, raw := range expired {
		if err := q.client.ZRem(ctx, q.key("leases"), raw).Err(); err != nil {
			return reclaimed, err
		}
		removed, err := q.client.LRem(ctx, q.key("processing"), 1, raw).Result()
		if err != nil {
			return reclaimed, err
		}
		if removed == 0 {
			// Completed between the range read and the remove.
			continue
		}
		if err := q.client.LPush(ctx, q.key("ready"), raw).Err(); err != nil {
			return reclaimed, err
		}
		reclaimed++
	}
	if reclaimed > 0 {
		q.log.Printf("[queue:%s] reclaimed %d expired lease(s)", q.kind, reclaimed)
	}
	return reclaimed, nil
}

// ListFailed returns up to limit retained failed jobs, newest first.
func (q *RedisQueue) ListFailed(ctx context.Context, limit int64) ([]model.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	entries, err := q.client.LRange(ctx, q.key("failed"), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("list failed jobs: %w", err)
	}
	jobs := make([]model.Job, 0, len(entries))
	for _, entry := range entries {
		var job model.Job
		if err := json.Unmarshal([]byte(entry), &job); err != nil {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// RequeueFailed moves a retained failed job back to the ready list with its
// attempt counter reset.
func (q *RedisQueue) RequeueFailed(ctx context.Context, jobID string) error {
	entries, err := q.client.LRange(ctx, q.key("failed"), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("fetch failed jobs: %w", err)
	}

	for _, entry := range entries {
		var job model.Job
		if err := json.Unmarshal([]byte(entry), &job); err != nil {
			continue
		}
		if job.ID != jobID {
			continue
		}
		if err := q.client.LRem(ctx, q.key("failed"), 1, entry).Err(); err != nil {
			return err
		}
		job.Attempts = 0
		job.LastError = ""
		data, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("marshal job: %w", err)
		}
		return q.client.LPush(ctx, q.key("ready"), data).Err()
	}
	return fmt.Errorf("no failed job with id %s", jobID)
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}
