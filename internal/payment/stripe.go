package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Stripe is a sandbox adapter that mimics a card charge without a network call.
// The real implementation would call the Stripe API; tests and local
// development rely on the synthesised receipt to drive the rest of the flow.
type Stripe struct{}

// Name identifies the provider on stored orders.
func (Stripe) Name() string { return "stripe" }

// Charge synthesises a deterministic-shaped receipt for the order.
func (s Stripe) Charge(_ context.Context, req ChargeRequest) (Receipt, error) {
	if err := validate(req); err != nil {
		return Receipt{}, err
	}
	return Receipt{
		Provider:    s.Name(),
		ReceiptID:   "ch_" + uuid.NewString(),
		AmountCents: req.AmountCents,
		ChargedAt:   time.Now().UTC(),
	}, nil
}
