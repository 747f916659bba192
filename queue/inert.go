package queue

import (
	"context"
	"encoding/json"
	"log"

	"gemtasks/model"

	"github.com/google/uuid"
)

// InertQueue stands in for the broker when it is unreachable. Submit logs the
// job's identifying field and hands back a synthetic descriptor; nothing is
// persisted, delayed, retried or delivered.
type InertQueue struct {
	kind model.Kind
	log  *log.Logger
}

func NewInertQueue(kind model.Kind, logger *log.Logger) *InertQueue {
	if logger == nil {
		logger = log.Default()
	}
	return &InertQueue{kind: kind, log: logger}
}

func (q *InertQueue) Submit(ctx context.Context, job model.Job) (JobDescriptor, error) {
	q.log.Printf("[queue:%s] broker unavailable, dropping job %s", q.kind, identify(job))
	return JobDescriptor{ID: "inert-" + uuid.NewString(), Kind: job.Kind}, nil
}

func (q *InertQueue) Close() error { return nil }

func identify(job model.Job) string {
	switch job.Kind {
	case model.KindSendEmail:
		var p model.EmailPayload
		if err := json.Unmarshal(job.Payload, &p); err == nil {
			return p.To
		}
	case model.KindDeleteOrder:
		var p model.CleanupPayload
		if err := json.Unmarshal(job.Payload, &p); err == nil {
			return p.OrderID
		}
	}
	return job.ID
}
