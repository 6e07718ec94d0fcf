// Package mail implements the mailer port over SMTP.
package mail

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/ports"
)

// SMTPMailer sends plain-text notifications through an SMTP relay. Each
// Send opens and closes its own connection.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, username, password, from string) (*SMTPMailer, error) {
	if host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if from == "" {
		return nil, fmt.Errorf("smtp sender address is required")
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg ports.MailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	out := gomail.NewMessage()
	out.SetHeader("From", m.from)
	out.SetHeader("To", msg.To)
	out.SetHeader("Subject", msg.Subject)
	out.SetBody("text/plain", msg.Body)
	return m.dialer.DialAndSend(out)
}
