package loyalty

import "strings"

// Tier names ordered from entry level to top.
const (
	TierGreen    = "green"
	TierSilver   = "silver"
	TierGold     = "gold"
	TierPlatinum = "platinum"
)

// Spend thresholds, in cents, at which a shopper reaches each tier. The
// eligible amount counts loyalty credit so discounted orders still progress
// members toward the next tier.
const (
	SilverThresholdCents   int64 = 100_00
	GoldThresholdCents     int64 = 500_00
	PlatinumThresholdCents int64 = 1000_00
)

// TierFor maps a lifetime eligible spend to a loyalty tier.
func TierFor(eligibleCents int64) string {
	switch {
	case eligibleCents >= PlatinumThresholdCents:
		return TierPlatinum
	case eligibleCents >= GoldThresholdCents:
		return TierGold
	case eligibleCents >= SilverThresholdCents:
		return TierSilver
	default:
		return TierGreen
	}
}

// DiscountPercent returns the checkout discount granted to a tier.
func DiscountPercent(tier string) int {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case TierPlatinum:
		return 15
	case TierGold:
		return 10
	case TierSilver:
		return 5
	default:
		return 0
	}
}

// Accrual describes the loyalty outcome of one paid order.
type Accrual struct {
	SpentCents  int64
	CreditCents int64
	Points      int64
	Tier        string
	TierChanged bool
}

// Accrue computes the loyalty deltas for a paid order. paidCents is the amount
// actually charged; originalCents the pre-discount subtotal. The difference is
// banked as credit so members on higher discounts keep progressing, and points
// accrue one per whole currency unit of the original amount.
func Accrue(currentSpentCents, currentCreditCents, paidCents, originalCents int64) Accrual {
	if originalCents <= 0 {
		originalCents = paidCents
	}
	credit := originalCents - paidCents
	if credit < 0 {
		credit = 0
	}
	previousTier := TierFor(currentSpentCents + currentCreditCents)
	newTier := TierFor(currentSpentCents + paidCents + currentCreditCents + credit)
	return Accrual{
		SpentCents:  paidCents,
		CreditCents: credit,
		Points:      originalCents / 100,
		Tier:        newTier,
		TierChanged: previousTier != newTier,
	}
}

// Info summarises a shopper's standing for the profile endpoint.
type Info struct {
	CurrentTier        string  `json:"currentTier"`
	DiscountPercent    int     `json:"discount"`
	TotalSpentCents    int64   `json:"totalSpentInCents"`
	LoyaltyPoints      int64   `json:"loyaltyPoints"`
	NextTier           string  `json:"nextTier,omitempty"`
	NextThresholdCents int64   `json:"nextThresholdInCents,omitempty"`
	AmountToNextCents  int64   `json:"amountToNextTierInCents"`
	ProgressToNext     float64 `json:"progressToNext"`
}

// InfoFor computes tier progress for a shopper.
func InfoFor(tier string, totalSpentCents, creditCents, points int64) Info {
	normalized := strings.ToLower(strings.TrimSpace(tier))
	if normalized == "" {
		normalized = TierGreen
	}
	info := Info{
		CurrentTier:     normalized,
		DiscountPercent: DiscountPercent(normalized),
		TotalSpentCents: totalSpentCents,
		LoyaltyPoints:   points,
	}
	var nextTier string
	var nextThreshold int64
	switch normalized {
	case TierGreen:
		nextTier, nextThreshold = TierSilver, SilverThresholdCents
	case TierSilver:
		nextTier, nextThreshold = TierGold, GoldThresholdCents
	case TierGold:
		nextTier, nextThreshold = TierPlatinum, PlatinumThresholdCents
	default:
		info.ProgressToNext = 100
		return info
	}
	eligible := totalSpentCents + creditCents
	info.NextTier = nextTier
	info.NextThresholdCents = nextThreshold
	info.AmountToNextCents = nextThreshold - totalSpentCents
	progress := float64(eligible) / float64(nextThreshold) * 100
	if progress > 100 {
		progress = 100
	}
	info.ProgressToNext = progress
	return info
}
