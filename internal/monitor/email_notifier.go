package monitor

import (
	"context"
	"fmt"

	"github.com/Michael-ctrl-eng/radio-monitor/internal/config"
	"github.com/wneessen/go-mail"
)

// Compile-time interface guard.
var _ Notifier = (*EmailNotifier)(nil)

// EmailNotifier delivers alerts over SMTP. The from address is the SMTP
// account user, matching the upstream mail server's expectations.
type EmailNotifier struct {
	cfg        config.SMTPConfig
	recipients []string
}

// NewEmailNotifier creates an email notifier for the given recipients.
func NewEmailNotifier(cfg config.SMTPConfig, recipients []string) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, recipients: recipients}
}

// Notify sends the alert as a plain-text message to every recipient.
func (n *EmailNotifier) Notify(ctx context.Context, alert *Alert) error {
	msg := mail.NewMsg()
	if err := msg.From(n.cfg.Username); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := msg.To(n.recipients...); err != nil {
		return fmt.Errorf("set recipients: %w", err)
	}
	msg.Subject(alert.Subject)
	msg.SetBodyString(mail.TypeTextPlain, alert.Body)

	client, err := mail.NewClient(n.cfg.Host,
		mail.WithPort(n.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.cfg.Username),
		mail.WithPassword(n.cfg.Password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail via %s: %w", n.cfg.Host, err)
	}
	return nil
}

// Type returns the notifier type identifier.
func (n *EmailNotifier) Type() string {
	return "email"
}
