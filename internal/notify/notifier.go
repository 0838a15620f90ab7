package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Notification kinds emitted by the storefront.
const (
	KindLowStock    = "low_stock"
	KindOrderPlaced = "order_placed"
	KindOrderPaid   = "order_paid"
	KindEventSignup = "event_signup"
)

// Notification is a channel-agnostic message destined for staff or shoppers.
type Notification struct {
	Kind      string
	Recipient string
	Subject   string
	Body      string
	Meta      map[string]any
}

// Notifier delivers a notification over one channel. Implementations must be
// safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// FromChannels builds a fan-out notifier from configured channel names.
func FromChannels(channels []string, logger zerolog.Logger) (Notifier, error) {
	if len(channels) == 0 {
		return LogNotifier{Logger: logger}, nil
	}
	out := make(Fanout, 0, len(channels))
	for _, ch := range channels {
		switch strings.ToLower(strings.TrimSpace(ch)) {
		case "log", "":
			out = append(out, LogNotifier{Logger: logger})
		case "email":
			out = append(out, EmailNotifier{Logger: logger})
		case "sms":
			out = append(out, SMSNotifier{Logger: logger})
		default:
			return nil, fmt.Errorf("unsupported notify channel: %s", ch)
		}
	}
	return out, nil
}

// Fanout delivers the notification to every wrapped notifier and reports the
// first error after all have been attempted.
type Fanout []Notifier

// Notify implements Notifier.
func (f Fanout) Notify(ctx context.Context, n Notification) error {
	var firstErr error
	for _, notifier := range f {
		if err := notifier.Notify(ctx, n); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
