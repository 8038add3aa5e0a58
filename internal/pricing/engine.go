package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DiamondComponent is one stone on an item: its carat weight and the externally
// supplied base valuation (catalog price per carat already multiplied out).
type DiamondComponent struct {
	CaratWeight decimal.Decimal `json:"carat_weight"`
	BaseValue   decimal.Decimal `json:"base_value"`
}

// StoneQuote is the priced result for a single diamond component.
type StoneQuote struct {
	CaratWeight decimal.Decimal `json:"carat_weight"`
	TierKey     string          `json:"tier_key"`
	Price       decimal.Decimal `json:"price"`
}

// Quote is the full price breakdown for an item or order line. Component fields
// are rounded to two decimals for display; Total is derived from the unrounded
// chain and rounded last.
type Quote struct {
	GoldValue         decimal.Decimal `json:"gold_value"`
	DiamondValue      decimal.Decimal `json:"diamond_value"`
	MakingCharge      decimal.Decimal `json:"making_charge"`
	SubtotalBeforeTax decimal.Decimal `json:"subtotal_before_tax"`
	GST               decimal.Decimal `json:"gst"`
	Total             decimal.Decimal `json:"total"`
	Stones            []StoneQuote    `json:"stones,omitempty"`
}

// ComputeDiamondPrice applies the margin tier for caratWeight to an externally
// supplied base valuation. Both base fees are added once per stone.
func ComputeDiamondPrice(cfg Config, baseValue, caratWeight decimal.Decimal) (decimal.Decimal, error) {
	if !caratWeight.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: carat weight must be positive, got %s", ErrInvalidWeight, caratWeight)
	}
	tier, err := cfg.TierFor(caratWeight)
	if err != nil {
		return decimal.Zero, err
	}
	price := baseValue.Mul(tier.Multiplier).
		Add(tier.FlatAddition).
		Add(cfg.BaseFees.Fee1).
		Add(cfg.BaseFees.Fee2)
	return price, nil
}

// ComputeMakingCharge prices gold fabrication labor. Weight 2.0g and above uses
// the upper rate. Zero weight is allowed and yields a zero charge.
func ComputeMakingCharge(cfg Config, goldWeightGrams decimal.Decimal) (decimal.Decimal, error) {
	if goldWeightGrams.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: gold weight must not be negative, got %s", ErrInvalidWeight, goldWeightGrams)
	}
	rate := cfg.MakingCharges.GreaterThan2gRatePerGram
	if goldWeightGrams.LessThan(decimal.NewFromInt(2)) {
		rate = cfg.MakingCharges.LessThan2gRatePerGram
	}
	return goldWeightGrams.Mul(rate).Mul(cfg.MakingCharges.Multiplier), nil
}

// ComputeFinalPrice combines gold value, per-stone diamond pricing and making
// charge into a taxed quote. Intermediates keep full precision; only the final
// total (and the display copies of each component) are rounded to two decimals.
func ComputeFinalPrice(cfg Config, stones []DiamondComponent, goldWeightGrams, goldPricePerGram decimal.Decimal) (Quote, error) {
	if goldWeightGrams.IsNegative() {
		return Quote{}, fmt.Errorf("%w: gold weight must not be negative, got %s", ErrInvalidWeight, goldWeightGrams)
	}
	goldValue := goldWeightGrams.Mul(goldPricePerGram)

	diamondValue := decimal.Zero
	stoneQuotes := make([]StoneQuote, 0, len(stones))
	for _, stone := range stones {
		price, err := ComputeDiamondPrice(cfg, stone.BaseValue, stone.CaratWeight)
		if err != nil {
			return Quote{}, err
		}
		tier, err := cfg.TierFor(stone.CaratWeight)
		if err != nil {
			return Quote{}, err
		}
		diamondValue = diamondValue.Add(price)
		stoneQuotes = append(stoneQuotes, StoneQuote{
			CaratWeight: stone.CaratWeight,
			TierKey:     tier.Key,
			Price:       price.Round(2),
		})
	}

	makingCharge, err := ComputeMakingCharge(cfg, goldWeightGrams)
	if err != nil {
		return Quote{}, err
	}

	subtotal := goldValue.Add(diamondValue).Add(makingCharge)
	gst := subtotal.Mul(cfg.GSTRate)
	total := subtotal.Add(gst).Round(2)

	return Quote{
		GoldValue:         goldValue.Round(2),
		DiamondValue:      diamondValue.Round(2),
		MakingCharge:      makingCharge.Round(2),
		SubtotalBeforeTax: subtotal.Round(2),
		GST:               gst.Round(2),
		Total:             total,
		Stones:            stoneQuotes,
	}, nil
}
