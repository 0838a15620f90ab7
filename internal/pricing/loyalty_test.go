package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoyaltyNonMember(t *testing.T) {
	rule := LoyaltyRule{}
	cart := cartOf(10000, 1)

	require.False(t, rule.Eligible(cart, nil))
	result := rule.Calculate(cart, nil)
	require.Equal(t, Money(0), result.AmountCents)
	require.Equal(t, "Not a member. Become a member now to start earning loyalty rewards.", result.Description)
}

func TestLoyaltyUnknownTierTreatedAsNonMember(t *testing.T) {
	result := LoyaltyRule{}.Calculate(cartOf(10000, 1), &Shopper{LoyaltyTier: "diamond"})
	require.Equal(t, Money(0), result.AmountCents)
	require.Equal(t, "Not a member. Become a member now to start earning loyalty rewards.", result.Description)
}

func TestLoyaltyGreenEligibleButZero(t *testing.T) {
	rule := LoyaltyRule{}
	shopper := &Shopper{LoyaltyTier: "green"}
	cart := cartOf(10000, 1)

	require.True(t, rule.Eligible(cart, shopper))
	result := rule.Calculate(cart, shopper)
	require.Equal(t, Money(0), result.AmountCents)
	require.Equal(t, "Green loyalty status, reach Silver status to get 5% off.", result.Description)
}

func TestLoyaltyTierPercentages(t *testing.T) {
	cart := cartOf(10000, 1) // $100 subtotal
	cases := []struct {
		tier    string
		amount  Money
		percent int
	}{
		{"silver", 500, 5},
		{"gold", 1000, 10},
		{"platinum", 1500, 15},
	}
	for _, tc := range cases {
		t.Run(tc.tier, func(t *testing.T) {
			result := LoyaltyRule{}.Calculate(cart, &Shopper{LoyaltyTier: tc.tier})
			require.Equal(t, tc.amount, result.AmountCents)
			require.Equal(t, tc.tier, result.Extra["tier"])
			require.Equal(t, tc.percent, result.Extra["discountPercent"])
		})
	}
}

func TestLoyaltyFloorsSubtotalPercentage(t *testing.T) {
	// 5% of 1999 cents is 99.95; the member gets 99, never 100.
	result := LoyaltyRule{}.Calculate(cartOf(1999, 1), &Shopper{LoyaltyTier: "silver"})
	require.Equal(t, Money(99), result.AmountCents)
	require.Equal(t, "SILVER member: 5% off", result.Description)
}
