package smtp

import (
	"context"
	"fmt"

	"habit-service/internal/config"
	"habit-service/internal/domain/service"

	"gopkg.in/gomail.v2"
)

// Sender delivers reminders over SMTP. It is the concrete transport behind
// service.ReminderSender; the sweep treats its failures as non-fatal.
type Sender struct {
	cfg    *config.SMTPConfig
	dialer *gomail.Dialer
}

// NewSender creates a new SMTP reminder sender
func NewSender(cfg *config.SMTPConfig) service.ReminderSender {
	return &Sender{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// Send delivers one reminder to the subscription endpoint (an email address)
func (s *Sender) Send(ctx context.Context, endpoint, title, message string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.FromEmail, s.cfg.FromName)
	m.SetHeader("To", endpoint)
	m.SetHeader("Subject", title)
	m.SetBody("text/plain", message)

	// gomail has no context support; honor cancellation before dialing.
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send reminder to %s: %w", endpoint, err)
	}

	return nil
}
