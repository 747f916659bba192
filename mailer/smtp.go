package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPSender sends HTML mail through a plain SMTP relay.
type SMTPSender struct {
	addr string
	from string
}

func NewSMTPSender(addr, from string) *SMTPSender {
	return &SMTPSender{addr: addr, from: from}
}

// Send builds a single-part HTML message and hands it to the relay.
// net/smtp does not accept a context; the dial timeout comes from the OS.
func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	if err := smtp.SendMail(s.addr, nil, s.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}
