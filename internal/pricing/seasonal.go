package pricing

import (
	"strings"
	"time"
)

const seasonalPercent = 15

// SeasonalRule runs the spring promotion: 15% off outdoor plants during
// September through November. The window is Southern-Hemisphere spring on
// purpose; it is a regional business rule, not a calendar bug.
type SeasonalRule struct {
	// Now is injectable so tests can pin the calendar month.
	Now func() time.Time
}

func (SeasonalRule) Name() string             { return "Seasonal Discount" }
func (SeasonalRule) Description() string      { return "Limited time seasonal promotion" }
func (SeasonalRule) Priority() int            { return 5 }
func (SeasonalRule) Combination() Combination { return Stack }

func (r SeasonalRule) clock() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r SeasonalRule) Eligible(cart Cart, _ *Shopper) bool {
	month := r.clock().Month()
	if month < time.September || month > time.November {
		return false
	}
	for _, it := range cart.Items {
		if isOutdoor(it) {
			return true
		}
	}
	return false
}

func (r SeasonalRule) Calculate(cart Cart, shopper *Shopper) Result {
	if !r.Eligible(cart, shopper) {
		return Result{Description: "No eligible seasonal promotion."}
	}

	var amount Money
	affected := 0
	for _, it := range cart.Items {
		if it.Qty <= 0 || !isOutdoor(it) {
			continue
		}
		lineSubtotal := it.UnitPrice * Money(it.Qty)
		amount += lineSubtotal * seasonalPercent / 100
		affected++
	}

	return Result{
		AmountCents: amount,
		Description: "Spring Promotion: 15% off outdoor plants",
		Extra: map[string]any{
			"itemsAffected": affected,
		},
	}
}

// isOutdoor matches the category by case-insensitive substring, so
// "Outdoor, Sun" qualifies. Items without a category are simply excluded.
func isOutdoor(it LineItem) bool {
	return it.Category != "" && strings.Contains(strings.ToLower(it.Category), "outdoor")
}
