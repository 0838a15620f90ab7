package pricing

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func cartOf(unitPrice Money, qty int) Cart {
	return Cart{Items: []LineItem{{PlantID: "p1", Name: "Monstera", UnitPrice: unitPrice, Qty: qty}}}
}

func TestBulkNotEligibleUnderFiveItems(t *testing.T) {
	rule := BulkRule{}
	cart := cartOf(2000, 4)
	require.False(t, rule.Eligible(cart, nil))

	result := rule.Calculate(cart, nil)
	require.Equal(t, Money(0), result.AmountCents)
	require.Equal(t, "No eligible bulk discount.", result.Description)
}

func TestBulkTierBoundaries(t *testing.T) {
	cases := []struct {
		qty     int
		percent int
		tier    int
	}{
		{5, 5, 5},
		{9, 5, 5},
		{10, 10, 10},
		{19, 10, 10},
		{20, 20, 20},
		{35, 20, 20},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("qty=%d", tc.qty), func(t *testing.T) {
			cart := cartOf(2000, tc.qty)
			result := BulkRule{}.Calculate(cart, nil)
			expected := Money(2000) * Money(tc.qty) * Money(tc.percent) / 100
			require.Equal(t, expected, result.AmountCents)
			require.Equal(t, tc.tier, result.Extra["tier"])
			require.Equal(t, tc.percent, result.Extra["discountPercent"])
		})
	}
}

func TestBulkExactFiveUnits(t *testing.T) {
	// 5 units of a $20 item: floor(2000*5*5/100) = 500 cents.
	result := BulkRule{}.Calculate(cartOf(2000, 5), nil)
	require.Equal(t, Money(500), result.AmountCents)
	require.Equal(t, "5% off 5+ items (5 items)", result.Description)
}

func TestBulkFloorsPerLineItem(t *testing.T) {
	// Two lines of 333 cents x 3 units: each line floors 999*5/100 = 49,
	// so the total is 98, not floor(1998*5/100) = 99.
	cart := Cart{Items: []LineItem{
		{PlantID: "a", UnitPrice: 333, Qty: 3},
		{PlantID: "b", UnitPrice: 333, Qty: 3},
	}}
	result := BulkRule{}.Calculate(cart, nil)
	require.Equal(t, Money(98), result.AmountCents)
}

func TestBulkCountsQuantityAcrossLines(t *testing.T) {
	cart := Cart{Items: []LineItem{
		{PlantID: "a", UnitPrice: 1000, Qty: 3},
		{PlantID: "b", UnitPrice: 500, Qty: 2},
	}}
	require.True(t, BulkRule{}.Eligible(cart, nil))
	result := BulkRule{}.Calculate(cart, nil)
	// 5% of 3000 = 150 plus 5% of 1000 = 50.
	require.Equal(t, Money(200), result.AmountCents)
	require.Equal(t, "5% off 5+ items (5 items)", result.Description)
}
