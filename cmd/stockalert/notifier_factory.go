package main

import (
	"errors"
	"log/slog"

	"github.com/FACorreiaa/stock-alert/internal/app"
	"github.com/FACorreiaa/stock-alert/internal/domain/alert/notify"
	"github.com/FACorreiaa/stock-alert/internal/domain/portal"
	"github.com/FACorreiaa/stock-alert/pkg/config"
)

// newNotifierFactory builds Chatwork, which is always required, and the
// Resend email channel when both an API key and an email block exist.
func newNotifierFactory(cfg *config.Config, logger *slog.Logger) app.NotifierFactory {
	return func(settings *portal.Settings) ([]notify.Notifier, error) {
		chat, err := notify.NewChatwork(cfg.Notify.ChatworkToken, settings.Chatwork, logger,
			notify.WithTimeout(cfg.Notify.Timeout),
			notify.WithRatePerMinute(cfg.Notify.ChatworkPerMinute),
		)
		if err != nil {
			return nil, err
		}
		notifiers := []notify.Notifier{chat}

		email, err := notify.NewEmail(cfg.Notify.ResendAPIKey, settings.Email, logger)
		switch {
		case err == nil:
			notifiers = append(notifiers, email)
		case !errors.Is(err, notify.ErrEmailNotConfigured):
			return nil, err
		}
		return notifiers, nil
	}
}
