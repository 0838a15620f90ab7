package pricing

import (
	"fmt"
	"strings"
)

// Percentage per loyalty tier. Green members are eligible but earn no
// discount yet; the distinct message nudges them towards Silver.
var loyaltyPercents = map[string]int{
	"platinum": 15,
	"gold":     10,
	"silver":   5,
	"green":    0,
}

// LoyaltyRule grants members a percentage of the cart subtotal based on
// their tier.
type LoyaltyRule struct{}

func (LoyaltyRule) Name() string             { return "Loyalty Discount" }
func (LoyaltyRule) Description() string      { return "Member tier discounts" }
func (LoyaltyRule) Priority() int            { return 15 }
func (LoyaltyRule) Combination() Combination { return Stack }

func (LoyaltyRule) Eligible(_ Cart, shopper *Shopper) bool {
	if shopper == nil {
		return false
	}
	_, ok := loyaltyPercents[shopper.LoyaltyTier]
	return ok
}

func (r LoyaltyRule) Calculate(cart Cart, shopper *Shopper) Result {
	if !r.Eligible(cart, shopper) {
		return Result{Description: "Not a member. Become a member now to start earning loyalty rewards."}
	}

	if shopper.LoyaltyTier == "green" {
		return Result{Description: "Green loyalty status, reach Silver status to get 5% off."}
	}

	percent := loyaltyPercents[shopper.LoyaltyTier]
	amount := cart.SubtotalCents() * Money(percent) / 100

	return Result{
		AmountCents: amount,
		Description: fmt.Sprintf("%s member: %d%% off", strings.ToUpper(shopper.LoyaltyTier), percent),
		Extra: map[string]any{
			"tier":            shopper.LoyaltyTier,
			"discountPercent": percent,
		},
	}
}
