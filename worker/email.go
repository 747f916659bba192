package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"gemtasks/model"
)

// EmailConcurrency is how many email jobs may execute at once per process.
const EmailConcurrency = 5

// Sender is the outbound email collaborator.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// EmailHandler delivers transactional email. It does not deduplicate: a crash
// between a successful send and the completion ack re-delivers the job under
// the at-least-once guarantee, so a duplicate email is possible and accepted.
type EmailHandler struct {
	sender Sender
}

func NewEmailHandler(sender Sender) *EmailHandler {
	return &EmailHandler{sender: sender}
}

func (h *EmailHandler) Kind() model.Kind { return model.KindSendEmail }

func (h *EmailHandler) Handle(ctx context.Context, job model.Job) Result {
	var p model.EmailPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return discard("malformed email payload: " + err.Error())
	}
	// Defense in depth against malformed historical data; submission already
	// validated these.
	if p.To == "" || p.Subject == "" || p.HTMLBody == "" {
		return discard("email payload missing recipient, subject or body")
	}
	if err := h.sender.Send(ctx, p.To, p.Subject, p.HTMLBody); err != nil {
		return retry(fmt.Errorf("send to %s: %w", p.To, err))
	}
	return done()
}
