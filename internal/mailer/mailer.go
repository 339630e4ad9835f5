// Package mailer dispatches transactional mail through the configured
// SMTP relay.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"

	appconfig "github.com/docvault/docvault/config"
	"github.com/docvault/docvault/internal/types"
)

const resetSubject = "Reset Your Password"

// SMTPMailer sends mail over SMTP with a bounded per-send timeout so a
// slow relay cannot hang the HTTP request that triggered it.
type SMTPMailer struct {
	client      *mail.Client
	from        string
	sendTimeout time.Duration
	logger      *slog.Logger
}

func New(cfg appconfig.MailConfig, logger *slog.Logger) (*SMTPMailer, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &SMTPMailer{
		client:      client,
		from:        cfg.From,
		sendTimeout: timeout,
		logger:      logger,
	}, nil
}

// SendPasswordResetCode mails the one-time code. Relay errors and
// timeouts both surface as ErrDeliveryFailed.
func (m *SMTPMailer) SendPasswordResetCode(ctx context.Context, email, code string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("invalid sender %q: %v: %w", m.from, err, types.ErrDeliveryFailed)
	}
	if err := msg.To(email); err != nil {
		return fmt.Errorf("invalid recipient: %v: %w", err, types.ErrDeliveryFailed)
	}
	msg.Subject(resetSubject)
	msg.SetBodyString(mail.TypeTextPlain,
		fmt.Sprintf("Your OTP for password reset is: %s\n\nThis OTP is valid for 5 minutes.", code))

	sendCtx, cancel := context.WithTimeout(ctx, m.sendTimeout)
	defer cancel()

	if err := m.client.DialAndSendWithContext(sendCtx, msg); err != nil {
		m.logger.ErrorContext(ctx, "Failed to send password reset mail", slog.Any("error", err))
		return fmt.Errorf("send reset mail: %v: %w", err, types.ErrDeliveryFailed)
	}
	return nil
}
