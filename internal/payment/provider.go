package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ChargeRequest captures the information required to charge a shopper for an order.
type ChargeRequest struct {
	OrderID     string
	OrderNumber string
	AmountCents int64
	Currency    string
}

// Receipt represents the normalised result of a successful charge.
type Receipt struct {
	Provider    string
	ReceiptID   string
	AmountCents int64
	ChargedAt   time.Time
}

// ErrDeclined is returned when a provider rejects the charge.
var ErrDeclined = errors.New("payment declined")

// Provider abstracts the operations required from an upstream payment provider.
type Provider interface {
	Name() string
	Charge(ctx context.Context, req ChargeRequest) (Receipt, error)
}

// ByName resolves a configured provider name to an adapter.
func ByName(name string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "stripe", "":
		return Stripe{}, nil
	case "paypal":
		return Paypal{}, nil
	default:
		return nil, fmt.Errorf("unsupported payment provider: %s", name)
	}
}

func validate(req ChargeRequest) error {
	if strings.TrimSpace(req.OrderID) == "" {
		return errors.New("order id is required")
	}
	if req.AmountCents <= 0 {
		return fmt.Errorf("invalid charge amount: %d", req.AmountCents)
	}
	return nil
}
