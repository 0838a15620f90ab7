package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// LogNotifier writes notifications to the structured log. It backs local
// development and doubles as the audit trail for the other channels.
type LogNotifier struct {
	Logger zerolog.Logger
}

// Notify implements Notifier.
func (l LogNotifier) Notify(_ context.Context, n Notification) error {
	l.Logger.Info().
		Str("kind", n.Kind).
		Str("recipient", n.Recipient).
		Str("subject", n.Subject).
		Fields(n.Meta).
		Msg(n.Body)
	return nil
}

// EmailNotifier is a sandbox adapter standing in for an SMTP or transactional
// email integration.
type EmailNotifier struct {
	Logger zerolog.Logger
}

// Notify implements Notifier.
func (e EmailNotifier) Notify(_ context.Context, n Notification) error {
	e.Logger.Info().
		Str("channel", "email").
		Str("kind", n.Kind).
		Str("to", n.Recipient).
		Str("subject", n.Subject).
		Msg("email queued")
	return nil
}

// SMSNotifier is a sandbox adapter standing in for an SMS gateway integration.
type SMSNotifier struct {
	Logger zerolog.Logger
}

// Notify implements Notifier.
func (s SMSNotifier) Notify(_ context.Context, n Notification) error {
	s.Logger.Info().
		Str("channel", "sms").
		Str("kind", n.Kind).
		Str("to", n.Recipient).
		Msg(n.Body)
	return nil
}
