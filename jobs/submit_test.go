package jobs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"gemtasks/model"
	"gemtasks/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingQueue struct {
	submitted []model.Job
	err       error
}

func (q *recordingQueue) Submit(ctx context.Context, job model.Job) (queue.JobDescriptor, error) {
	q.submitted = append(q.submitted, job)
	if q.err != nil {
		return queue.JobDescriptor{}, q.err
	}
	return queue.JobDescriptor{ID: job.ID, Kind: job.Kind}, nil
}

func (q *recordingQueue) Close() error { return nil }

type fakeProvider struct {
	q    queue.Queue
	gets int
}

func (p *fakeProvider) Get(ctx context.Context, kind model.Kind) (queue.Queue, error) {
	p.gets++
	return p.q, nil
}

func newTestSubmitter(q queue.Queue) (*Submitter, *fakeProvider) {
	provider := &fakeProvider{q: q}
	return NewSubmitter(provider, log.New(io.Discard, "", 0)), provider
}

func TestSubmitEmail(t *testing.T) {
	t.Run("well-formed payload", func(t *testing.T) {
		rq := &recordingQueue{}
		sub, _ := newTestSubmitter(rq)

		desc, err := sub.SubmitEmail(context.Background(), model.EmailPayload{
			To:       "jane@example.com",
			Subject:  "Your order has shipped",
			HTMLBody: "<p>hi</p>",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, desc.ID)

		require.Len(t, rq.submitted, 1)
		job := rq.submitted[0]
		assert.Equal(t, model.KindSendEmail, job.Kind)
		assert.Equal(t, model.MaxAttempts, job.MaxAttempts)
		assert.EqualValues(t, model.InitialBackoffMs, job.BackoffMs)
		assert.Zero(t, job.DelayMs)
	})

	t.Run("missing fields reject before any queue interaction", func(t *testing.T) {
		cases := []model.EmailPayload{
			{Subject: "s", HTMLBody: "b"},
			{To: "jane@example.com", HTMLBody: "b"},
			{To: "jane@example.com", Subject: "s"},
		}
		for _, p := range cases {
			rq := &recordingQueue{}
			sub, provider := newTestSubmitter(rq)

			_, err := sub.SubmitEmail(context.Background(), p)
			assert.ErrorIs(t, err, ErrInvalidPayload)
			assert.Zero(t, provider.gets, "validation must run before the queue is touched")
			assert.Empty(t, rq.submitted)
		}
	})

	t.Run("malformed address", func(t *testing.T) {
		rq := &recordingQueue{}
		sub, provider := newTestSubmitter(rq)

		_, err := sub.SubmitEmail(context.Background(), model.EmailPayload{
			To: "not-an-email", Subject: "s", HTMLBody: "b",
		})
		assert.ErrorIs(t, err, ErrInvalidAddress)
		assert.Zero(t, provider.gets)
	})

	t.Run("enqueue failure is surfaced", func(t *testing.T) {
		rq := &recordingQueue{err: errors.New("connection reset")}
		sub, _ := newTestSubmitter(rq)

		_, err := sub.SubmitEmail(context.Background(), model.EmailPayload{
			To: "jane@example.com", Subject: "s", HTMLBody: "b",
		})
		assert.Error(t, err)
	})
}

func TestSubmitOrderCleanup(t *testing.T) {
	t.Run("carries the caller delay", func(t *testing.T) {
		rq := &recordingQueue{}
		sub, _ := newTestSubmitter(rq)

		desc, err := sub.SubmitOrderCleanup(context.Background(), "ord-42", 1500*time.Millisecond)
		require.NoError(t, err)
		assert.NotEmpty(t, desc.ID)

		require.Len(t, rq.submitted, 1)
		assert.Equal(t, model.KindDeleteOrder, rq.submitted[0].Kind)
		assert.EqualValues(t, 1500, rq.submitted[0].DelayMs)
	})

	t.Run("empty order id", func(t *testing.T) {
		rq := &recordingQueue{}
		sub, provider := newTestSubmitter(rq)

		_, err := sub.SubmitOrderCleanup(context.Background(), "  ", 0)
		assert.ErrorIs(t, err, ErrInvalidPayload)
		assert.Zero(t, provider.gets)
	})

	t.Run("negative delay", func(t *testing.T) {
		rq := &recordingQueue{}
		sub, _ := newTestSubmitter(rq)

		_, err := sub.SubmitOrderCleanup(context.Background(), "ord-42", -time.Second)
		assert.ErrorIs(t, err, ErrInvalidPayload)
	})
}

func TestSubmitInMockMode(t *testing.T) {
	var buf bytes.Buffer
	inert := queue.NewInertQueue(model.KindDeleteOrder, log.New(&buf, "", 0))
	sub, _ := newTestSubmitter(inert)

	start := time.Now()
	desc, err := sub.SubmitOrderCleanup(context.Background(), "X", time.Second)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(desc.ID, "inert-"), "descriptor id %q should carry the mock prefix", desc.ID)
	assert.Contains(t, buf.String(), "X", "inert submit logs the order id synchronously")
	assert.Less(t, time.Since(start), 100*time.Millisecond, "mock mode never actually delays")
}
