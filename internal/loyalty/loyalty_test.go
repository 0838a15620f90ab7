package loyalty_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-nursery/internal/loyalty"
)

func TestTierFor(t *testing.T) {
	cases := []struct {
		eligible int64
		want     string
	}{
		{0, loyalty.TierGreen},
		{99_99, loyalty.TierGreen},
		{100_00, loyalty.TierSilver},
		{499_99, loyalty.TierSilver},
		{500_00, loyalty.TierGold},
		{999_99, loyalty.TierGold},
		{1000_00, loyalty.TierPlatinum},
		{5000_00, loyalty.TierPlatinum},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, loyalty.TierFor(tc.eligible), "eligible=%d", tc.eligible)
	}
}

func TestDiscountPercent(t *testing.T) {
	require.Equal(t, 0, loyalty.DiscountPercent("green"))
	require.Equal(t, 5, loyalty.DiscountPercent("silver"))
	require.Equal(t, 10, loyalty.DiscountPercent("GOLD"))
	require.Equal(t, 15, loyalty.DiscountPercent("platinum"))
	require.Equal(t, 0, loyalty.DiscountPercent("unknown"))
}

func TestAccrueBanksDiscountAsCredit(t *testing.T) {
	// A member paying 90.00 on a 100.00 cart keeps earning as if they had
	// paid full price, and the banked credit tips them into gold.
	acc := loyalty.Accrue(400_00, 50_00, 90_00, 100_00)
	require.EqualValues(t, 90_00, acc.SpentCents)
	require.EqualValues(t, 10_00, acc.CreditCents)
	require.EqualValues(t, 100, acc.Points)
	require.Equal(t, loyalty.TierGold, acc.Tier)
	require.True(t, acc.TierChanged) // 450.00 eligible before, 550.00 after
}

func TestAccrueWithoutDiscount(t *testing.T) {
	acc := loyalty.Accrue(0, 0, 45_50, 0)
	require.EqualValues(t, 45_50, acc.SpentCents)
	require.EqualValues(t, 0, acc.CreditCents)
	require.EqualValues(t, 45, acc.Points)
	require.Equal(t, loyalty.TierGreen, acc.Tier)
	require.False(t, acc.TierChanged)
}

func TestAccrueNeverBanksNegativeCredit(t *testing.T) {
	acc := loyalty.Accrue(0, 0, 120_00, 100_00)
	require.EqualValues(t, 0, acc.CreditCents)
}

func TestInfoFor(t *testing.T) {
	info := loyalty.InfoFor("silver", 250_00, 50_00, 300)
	require.Equal(t, "silver", info.CurrentTier)
	require.Equal(t, 5, info.DiscountPercent)
	require.Equal(t, "gold", info.NextTier)
	require.EqualValues(t, loyalty.GoldThresholdCents, info.NextThresholdCents)
	require.EqualValues(t, 250_00, info.AmountToNextCents)
	require.InDelta(t, 60.0, info.ProgressToNext, 0.001)
}

func TestInfoForPlatinumHasNoNextTier(t *testing.T) {
	info := loyalty.InfoFor("platinum", 2000_00, 0, 2000)
	require.Empty(t, info.NextTier)
	require.EqualValues(t, 0, info.NextThresholdCents)
	require.Equal(t, 100.0, info.ProgressToNext)
}

func TestInfoForDefaultsToGreen(t *testing.T) {
	info := loyalty.InfoFor("", 0, 0, 0)
	require.Equal(t, loyalty.TierGreen, info.CurrentTier)
	require.Equal(t, "silver", info.NextTier)
	require.Equal(t, 0.0, info.ProgressToNext)
}
