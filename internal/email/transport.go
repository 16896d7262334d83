package email

import (
	"context"
	"fmt"

	"github.com/planhub/planhub-api/internal/config"
	"gopkg.in/gomail.v2"
)

// Transport delivers one rendered email. Implementations must honor the
// context deadline; a timed-out delivery reports an error so the queue's
// retry accounting can treat it as a transport failure.
type Transport interface {
	Send(ctx context.Context, to, toName, subject, htmlBody, textBody string) error
}

// SMTPTransport sends mail through an SMTP server using gomail, with a
// plain-text body and an HTML alternative.
type SMTPTransport struct {
	dialer    *gomail.Dialer
	fromEmail string
	fromName  string
}

// NewSMTPTransport creates a transport from the SMTP configuration.
func NewSMTPTransport(cfg config.SMTPConfig) *SMTPTransport {
	return &SMTPTransport{
		dialer:    gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
	}
}

// Ensure SMTPTransport implements the Transport interface
var _ Transport = (*SMTPTransport)(nil)

// Send delivers the message, giving up when ctx expires. gomail's dial and
// send are not context-aware, so the attempt runs in its own goroutine; on
// timeout the goroutine is abandoned and the connection left to the SMTP
// client's own teardown.
func (t *SMTPTransport) Send(ctx context.Context, to, toName, subject, htmlBody, textBody string) error {
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", t.fromEmail, t.fromName)
	if toName != "" {
		msg.SetAddressHeader("To", to, toName)
	} else {
		msg.SetHeader("To", to)
	}
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", textBody)
	msg.AddAlternative("text/html", htmlBody)

	done := make(chan error, 1)
	go func() {
		done <- t.dialer.DialAndSend(msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp delivery to %s failed: %w", to, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp delivery to %s timed out: %w", to, ctx.Err())
	}
}
