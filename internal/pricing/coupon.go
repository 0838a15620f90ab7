package pricing

// CouponRule is the extension point for social-media promotion codes. No
// coupon backend exists yet, so the rule is wired but reports ineligible for
// every cart. It stays in the default rule set so adding real coupon logic
// is a change to this file only.
type CouponRule struct{}

func (CouponRule) Name() string             { return "Coupon Discount" }
func (CouponRule) Description() string      { return "Social media promotions" }
func (CouponRule) Priority() int            { return 3 }
func (CouponRule) Combination() Combination { return Stack }

func (CouponRule) Eligible(_ Cart, _ *Shopper) bool { return false }

func (r CouponRule) Calculate(cart Cart, shopper *Shopper) Result {
	return Result{Description: "No coupon applied."}
}
