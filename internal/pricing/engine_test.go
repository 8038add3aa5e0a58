package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func testConfig() Config {
	return Config{
		DiamondTiers: []DiamondTier{
			{Key: "lessThan1ct", Lower: dec("0"), Upper: decPtr("1"), Multiplier: dec("1.5"), FlatAddition: dec("0")},
			{Key: "greaterThan1ct", Lower: dec("1"), Upper: decPtr("2"), Multiplier: dec("1.7"), FlatAddition: dec("500")},
			{Key: "greaterThan2ct", Lower: dec("2"), Upper: decPtr("3"), Multiplier: dec("1.8"), FlatAddition: dec("600")},
			{Key: "greaterThan3ct", Lower: dec("3"), Upper: decPtr("4"), Multiplier: dec("1.9"), FlatAddition: dec("700")},
			{Key: "greaterThan4ct", Lower: dec("4"), Upper: decPtr("5"), Multiplier: dec("2.0"), FlatAddition: dec("800")},
			{Key: "greaterThan5ct", Lower: dec("5"), Multiplier: dec("2.1"), FlatAddition: dec("900")},
		},
		BaseFees: BaseFees{Fee1: dec("200"), Fee2: dec("100")},
		MakingCharges: MakingCharges{
			LessThan2gRatePerGram:    dec("600"),
			GreaterThan2gRatePerGram: dec("500"),
			Multiplier:               dec("1.1"),
		},
		GSTRate: dec("0.03"),
	}
}

func TestComputeDiamondPriceAppliesTierMarginAndFees(t *testing.T) {
	cfg := testConfig()

	// 1.5ct stone in [1,2): 10000*1.7 + 500 + 200 + 100 = 17800
	price, err := ComputeDiamondPrice(cfg, dec("10000"), dec("1.5"))
	require.NoError(t, err)
	require.True(t, price.Equal(dec("17800")), "got %s", price)
}

func TestComputeDiamondPriceIsDeterministic(t *testing.T) {
	cfg := testConfig()
	first, err := ComputeDiamondPrice(cfg, dec("12345.67"), dec("0.42"))
	require.NoError(t, err)
	second, err := ComputeDiamondPrice(cfg, dec("12345.67"), dec("0.42"))
	require.NoError(t, err)
	require.True(t, first.Equal(second))
}

func TestComputeDiamondPriceRejectsNonPositiveWeight(t *testing.T) {
	cfg := testConfig()
	for _, w := range []string{"0", "-1", "-0.001"} {
		_, err := ComputeDiamondPrice(cfg, dec("10000"), dec(w))
		require.ErrorIs(t, err, ErrInvalidWeight, "weight %s", w)
	}
}

func TestTierBoundariesAreClosedBelowOpenAbove(t *testing.T) {
	cfg := testConfig()
	cases := []struct {
		weight string
		want   string
	}{
		{"0.5", "lessThan1ct"},
		{"0.999", "lessThan1ct"},
		{"1", "greaterThan1ct"},
		{"1.999", "greaterThan1ct"},
		{"2", "greaterThan2ct"},
		{"3", "greaterThan3ct"},
		{"4.5", "greaterThan4ct"},
		{"5", "greaterThan5ct"},
		{"12.75", "greaterThan5ct"},
	}
	for _, tc := range cases {
		tier, err := cfg.TierFor(dec(tc.weight))
		require.NoError(t, err, "weight %s", tc.weight)
		require.Equal(t, tc.want, tier.Key, "weight %s", tc.weight)
	}
}

func TestComputeMakingCharge(t *testing.T) {
	cfg := testConfig()

	// 1.5g below the 2g boundary: 1.5 * 600 * 1.1 = 990
	charge, err := ComputeMakingCharge(cfg, dec("1.5"))
	require.NoError(t, err)
	require.True(t, charge.Equal(dec("990")), "got %s", charge)

	// Boundary 2.0g uses the upper rate: 2 * 500 * 1.1 = 1100
	charge, err = ComputeMakingCharge(cfg, dec("2"))
	require.NoError(t, err)
	require.True(t, charge.Equal(dec("1100")), "got %s", charge)

	// Zero weight yields a zero charge.
	charge, err = ComputeMakingCharge(cfg, dec("0"))
	require.NoError(t, err)
	require.True(t, charge.IsZero())

	_, err = ComputeMakingCharge(cfg, dec("-0.1"))
	require.ErrorIs(t, err, ErrInvalidWeight)
}

func TestComputeFinalPriceBreakdown(t *testing.T) {
	cfg := testConfig()
	stones := []DiamondComponent{
		{CaratWeight: dec("1.5"), BaseValue: dec("10000")},
		{CaratWeight: dec("0.5"), BaseValue: dec("4000")},
	}

	quote, err := ComputeFinalPrice(cfg, stones, dec("1.5"), dec("7000"))
	require.NoError(t, err)

	// gold: 1.5 * 7000 = 10500
	require.True(t, quote.GoldValue.Equal(dec("10500")), "gold %s", quote.GoldValue)
	// stones: 17800 + (4000*1.5 + 0 + 300) = 17800 + 6300 = 24100
	require.True(t, quote.DiamondValue.Equal(dec("24100")), "diamond %s", quote.DiamondValue)
	// making: 990
	require.True(t, quote.MakingCharge.Equal(dec("990")), "making %s", quote.MakingCharge)
	// subtotal: 35590; gst: 1067.70; total: 36657.70
	require.True(t, quote.SubtotalBeforeTax.Equal(dec("35590")), "subtotal %s", quote.SubtotalBeforeTax)
	require.True(t, quote.GST.Equal(dec("1067.70")), "gst %s", quote.GST)
	require.True(t, quote.Total.Equal(dec("36657.70")), "total %s", quote.Total)

	require.Len(t, quote.Stones, 2)
	require.Equal(t, "greaterThan1ct", quote.Stones[0].TierKey)
	require.Equal(t, "lessThan1ct", quote.Stones[1].TierKey)
}

func TestComputeFinalPriceTotalNeverBelowSubtotal(t *testing.T) {
	cfg := testConfig()
	weights := []string{"0.2", "0.9", "1", "2.5", "5.1"}
	for _, w := range weights {
		quote, err := ComputeFinalPrice(cfg,
			[]DiamondComponent{{CaratWeight: dec(w), BaseValue: dec("8000")}},
			dec("3.2"), dec("6450.55"))
		require.NoError(t, err)
		require.True(t, quote.Total.GreaterThanOrEqual(quote.SubtotalBeforeTax),
			"weight %s: total %s < subtotal %s", w, quote.Total, quote.SubtotalBeforeTax)
	}
}

func TestComputeFinalPriceRoundsOnlyAtTheEnd(t *testing.T) {
	cfg := testConfig()
	cfg.GSTRate = dec("0.0333")

	quote, err := ComputeFinalPrice(cfg,
		[]DiamondComponent{{CaratWeight: dec("0.333"), BaseValue: dec("3333.33")}},
		dec("1.111"), dec("6543.21"))
	require.NoError(t, err)

	// Recompute the unrounded chain and compare against the rounded total.
	gold := dec("1.111").Mul(dec("6543.21"))
	stone := dec("3333.33").Mul(dec("1.5")).Add(dec("300"))
	making := dec("1.111").Mul(dec("600")).Mul(dec("1.1"))
	subtotal := gold.Add(stone).Add(making)
	expected := subtotal.Add(subtotal.Mul(dec("0.0333"))).Round(2)
	require.True(t, quote.Total.Equal(expected), "total %s want %s", quote.Total, expected)
}

func TestComputeFinalPriceRejectsNegativeGoldWeight(t *testing.T) {
	cfg := testConfig()
	_, err := ComputeFinalPrice(cfg, nil, dec("-1"), dec("7000"))
	require.ErrorIs(t, err, ErrInvalidWeight)
}
