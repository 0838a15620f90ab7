package payment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Paypal is a sandbox adapter mirroring the Stripe one for express checkout.
type Paypal struct{}

// Name identifies the provider on stored orders.
func (Paypal) Name() string { return "paypal" }

// Charge synthesises an express-checkout style receipt.
func (p Paypal) Charge(_ context.Context, req ChargeRequest) (Receipt, error) {
	if err := validate(req); err != nil {
		return Receipt{}, err
	}
	return Receipt{
		Provider:    p.Name(),
		ReceiptID:   "PAYID-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:20],
		AmountCents: req.AmountCents,
		ChargedAt:   time.Now().UTC(),
	}, nil
}
