package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"

	"github.com/FACorreiaa/stock-alert/internal/domain/portal"
)

const defaultSubject = "在庫アラート"

var ErrEmailNotConfigured = errors.New("email notification is not configured")

// emailSender is the part of the resend client used here.
type emailSender interface {
	Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Email sends alerts through Resend.
type Email struct {
	sender  emailSender
	logger  *slog.Logger
	from    string
	to      []string
	subject string
}

// NewEmail returns ErrEmailNotConfigured when the API key, sender or
// recipients are missing.
func NewEmail(apiKey string, settings *portal.EmailSettings, logger *slog.Logger) (*Email, error) {
	if apiKey == "" || settings == nil || settings.From == "" || len(settings.To) == 0 {
		return nil, ErrEmailNotConfigured
	}
	client := resend.NewClient(apiKey)
	return newEmail(client.Emails, settings, logger), nil
}

func newEmail(sender emailSender, settings *portal.EmailSettings, logger *slog.Logger) *Email {
	subject := settings.Subject
	if subject == "" {
		subject = defaultSubject
	}
	return &Email{
		sender:  sender,
		logger:  logger,
		from:    settings.From,
		to:      settings.To,
		subject: subject,
	}
}

func (e *Email) Name() string {
	return "email"
}

// Notify sends the whole message as one plain-text email.
func (e *Email) Notify(ctx context.Context, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	resp, err := e.sender.Send(&resend.SendEmailRequest{
		From:    e.from,
		To:      e.to,
		Subject: e.subject,
		Text:    message,
	})
	if err != nil {
		e.logger.Error("failed to send alert email", slog.Any("error", err))
		return fmt.Errorf("failed to send alert email: %w", err)
	}

	e.logger.Info("alert email sent", slog.String("id", resp.Id), slog.Int("recipients", len(e.to)))
	return nil
}
