package pricing

import "time"

// DefaultRules returns the active discount rule set in evaluation order:
// bulk, loyalty, seasonal, coupon. Aggregation today is additive, so order
// does not change the totals, but a future BestOnly rule would depend on it.
//
// The rule set is built per call rather than held in package state so tests
// can substitute doubles without monkey-patching anything global. A nil now
// leaves the seasonal rule on the wall clock.
func DefaultRules(now func() time.Time) []Rule {
	return []Rule{
		BulkRule{},
		LoyaltyRule{},
		SeasonalRule{Now: now},
		CouponRule{},
	}
}
