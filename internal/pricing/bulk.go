package pricing

import "fmt"

type bulkTier struct {
	MinQty  int
	Percent int
	Label   string
}

// Tiers are evaluated highest threshold first; the first match wins, tiers
// do not accumulate. Percentages are integers to keep the arithmetic in
// exact minor units.
var bulkTiers = []bulkTier{
	{MinQty: 20, Percent: 20, Label: "20% off 20+ items"},
	{MinQty: 10, Percent: 10, Label: "10% off 10+ items"},
	{MinQty: 5, Percent: 5, Label: "5% off 5+ items"},
}

// BulkRule grants volume-based percentage discounts once the cart reaches
// five units in total.
type BulkRule struct{}

func (BulkRule) Name() string             { return "Bulk Discount" }
func (BulkRule) Description() string      { return "Volume based pricing tiers" }
func (BulkRule) Priority() int            { return 10 }
func (BulkRule) Combination() Combination { return Stack }

func (BulkRule) Eligible(cart Cart, _ *Shopper) bool {
	return cart.TotalQuantity() >= bulkTiers[len(bulkTiers)-1].MinQty
}

func (r BulkRule) Calculate(cart Cart, shopper *Shopper) Result {
	if !r.Eligible(cart, shopper) {
		return Result{Description: "No eligible bulk discount."}
	}

	totalQty := cart.TotalQuantity()
	var tier *bulkTier
	for i := range bulkTiers {
		if totalQty >= bulkTiers[i].MinQty {
			tier = &bulkTiers[i]
			break
		}
	}
	if tier == nil {
		return Result{Description: "No bulk discount applied."}
	}

	// Per line item: floor(price*qty*pct/100). Flooring is deliberate so a
	// fraction of a cent is never discounted upward.
	var amount Money
	for _, it := range cart.Items {
		if it.Qty <= 0 {
			continue
		}
		lineSubtotal := it.UnitPrice * Money(it.Qty)
		amount += lineSubtotal * Money(tier.Percent) / 100
	}

	return Result{
		AmountCents: amount,
		Description: fmt.Sprintf("%s (%d items)", tier.Label, totalQty),
		Extra: map[string]any{
			"tier":            tier.MinQty,
			"discountPercent": tier.Percent,
		},
	}
}
