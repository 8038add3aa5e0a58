package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DiamondTier is one row of the carat-weight margin table. Ranges are half open:
// Lower is inclusive, Upper exclusive. A nil Upper means the tier is unbounded.
type DiamondTier struct {
	Key          string           `json:"key"`
	Lower        decimal.Decimal  `json:"lower"`
	Upper        *decimal.Decimal `json:"upper,omitempty"`
	Multiplier   decimal.Decimal  `json:"multiplier"`
	FlatAddition decimal.Decimal  `json:"flat_addition"`
}

// Contains reports whether caratWeight falls inside the tier range.
func (t DiamondTier) Contains(caratWeight decimal.Decimal) bool {
	if caratWeight.LessThan(t.Lower) {
		return false
	}
	if t.Upper == nil {
		return true
	}
	return caratWeight.LessThan(*t.Upper)
}

// BaseFees are flat additions applied once per diamond on top of the tier margin.
type BaseFees struct {
	Fee1 decimal.Decimal `json:"fee1"`
	Fee2 decimal.Decimal `json:"fee2"`
}

// MakingCharges holds the gold-weight based labor rates. Boundary weight 2g uses
// the GreaterThan2g rate.
type MakingCharges struct {
	LessThan2gRatePerGram    decimal.Decimal `json:"less_than_2g_rate_per_gram"`
	GreaterThan2gRatePerGram decimal.Decimal `json:"greater_than_2g_rate_per_gram"`
	Multiplier               decimal.Decimal `json:"multiplier"`
}

// Config is the singleton pricing configuration, replaced wholesale by admins.
type Config struct {
	DiamondTiers  []DiamondTier   `json:"diamond_tiers"`
	BaseFees      BaseFees        `json:"base_fees"`
	MakingCharges MakingCharges   `json:"making_charges"`
	GSTRate       decimal.Decimal `json:"gst_rate"`
	LastUpdated   time.Time       `json:"last_updated"`
	UpdatedBy     string          `json:"updated_by"`
}

// Validate checks every rate and the tier table shape. The first violation found
// is returned wrapped in ErrInvalidConfig; an invalid config is never defaulted.
func (c Config) Validate() error {
	if len(c.DiamondTiers) == 0 {
		return fmt.Errorf("%w: empty diamond tier table", ErrInvalidConfig)
	}
	for i, tier := range c.DiamondTiers {
		if tier.Key == "" {
			return fmt.Errorf("%w: tier %d has no key", ErrInvalidConfig, i)
		}
		if !tier.Multiplier.IsPositive() {
			return fmt.Errorf("%w: tier %q multiplier must be positive", ErrInvalidConfig, tier.Key)
		}
		if tier.FlatAddition.IsNegative() {
			return fmt.Errorf("%w: tier %q flat addition must not be negative", ErrInvalidConfig, tier.Key)
		}
		if tier.Upper != nil && !tier.Upper.GreaterThan(tier.Lower) {
			return fmt.Errorf("%w: tier %q upper bound must exceed lower bound", ErrInvalidConfig, tier.Key)
		}
	}
	if !c.DiamondTiers[0].Lower.IsZero() {
		return fmt.Errorf("%w: first tier must start at 0", ErrInvalidConfig)
	}
	for i := 1; i < len(c.DiamondTiers); i++ {
		prev := c.DiamondTiers[i-1]
		if prev.Upper == nil {
			return fmt.Errorf("%w: tier %q is unbounded but not last", ErrInvalidConfig, prev.Key)
		}
		if !prev.Upper.Equal(c.DiamondTiers[i].Lower) {
			return fmt.Errorf("%w: gap or overlap between tiers %q and %q", ErrInvalidConfig, prev.Key, c.DiamondTiers[i].Key)
		}
	}
	if c.DiamondTiers[len(c.DiamondTiers)-1].Upper != nil {
		return fmt.Errorf("%w: last tier must be unbounded", ErrInvalidConfig)
	}
	if c.BaseFees.Fee1.IsNegative() || c.BaseFees.Fee2.IsNegative() {
		return fmt.Errorf("%w: base fees must not be negative", ErrInvalidConfig)
	}
	if !c.MakingCharges.LessThan2gRatePerGram.IsPositive() {
		return fmt.Errorf("%w: making charge rate below 2g must be positive", ErrInvalidConfig)
	}
	if !c.MakingCharges.GreaterThan2gRatePerGram.IsPositive() {
		return fmt.Errorf("%w: making charge rate at or above 2g must be positive", ErrInvalidConfig)
	}
	if !c.MakingCharges.Multiplier.IsPositive() {
		return fmt.Errorf("%w: making charge multiplier must be positive", ErrInvalidConfig)
	}
	if c.GSTRate.IsNegative() || c.GSTRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: gst rate must be in [0, 1)", ErrInvalidConfig)
	}
	return nil
}

// TierFor returns the single tier containing caratWeight. Exactly one tier
// matches any non-negative weight in a valid config.
func (c Config) TierFor(caratWeight decimal.Decimal) (DiamondTier, error) {
	if caratWeight.IsNegative() {
		return DiamondTier{}, fmt.Errorf("%w: carat weight %s", ErrInvalidWeight, caratWeight)
	}
	for _, tier := range c.DiamondTiers {
		if tier.Contains(caratWeight) {
			return tier, nil
		}
	}
	return DiamondTier{}, fmt.Errorf("%w: no tier matches carat weight %s", ErrInvalidWeight, caratWeight)
}

// DefaultConfig returns the standard six-tier table used to seed a fresh install.
func DefaultConfig() Config {
	bound := func(v int64) *decimal.Decimal {
		d := decimal.NewFromInt(v)
		return &d
	}
	return Config{
		DiamondTiers: []DiamondTier{
			{Key: "lessThan1ct", Lower: decimal.Zero, Upper: bound(1), Multiplier: decimal.RequireFromString("1.5"), FlatAddition: decimal.Zero},
			{Key: "greaterThan1ct", Lower: decimal.NewFromInt(1), Upper: bound(2), Multiplier: decimal.RequireFromString("1.6"), FlatAddition: decimal.Zero},
			{Key: "greaterThan2ct", Lower: decimal.NewFromInt(2), Upper: bound(3), Multiplier: decimal.RequireFromString("1.7"), FlatAddition: decimal.Zero},
			{Key: "greaterThan3ct", Lower: decimal.NewFromInt(3), Upper: bound(4), Multiplier: decimal.RequireFromString("1.8"), FlatAddition: decimal.Zero},
			{Key: "greaterThan4ct", Lower: decimal.NewFromInt(4), Upper: bound(5), Multiplier: decimal.RequireFromString("1.9"), FlatAddition: decimal.Zero},
			{Key: "greaterThan5ct", Lower: decimal.NewFromInt(5), Upper: nil, Multiplier: decimal.NewFromInt(2), FlatAddition: decimal.Zero},
		},
		BaseFees: BaseFees{Fee1: decimal.Zero, Fee2: decimal.Zero},
		MakingCharges: MakingCharges{
			LessThan2gRatePerGram:    decimal.NewFromInt(600),
			GreaterThan2gRatePerGram: decimal.NewFromInt(500),
			Multiplier:               decimal.NewFromInt(1),
		},
		GSTRate: decimal.RequireFromString("0.03"),
	}
}
