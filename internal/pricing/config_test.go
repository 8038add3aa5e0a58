package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsDefaultConfig(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty tiers", func(c *Config) { c.DiamondTiers = nil }},
		{"zero multiplier", func(c *Config) { c.DiamondTiers[1].Multiplier = dec("0") }},
		{"negative multiplier", func(c *Config) { c.DiamondTiers[0].Multiplier = dec("-1.5") }},
		{"negative flat addition", func(c *Config) { c.DiamondTiers[2].FlatAddition = dec("-100") }},
		{"first tier not at zero", func(c *Config) { c.DiamondTiers[0].Lower = dec("0.5") }},
		{"gap between tiers", func(c *Config) { c.DiamondTiers[1].Lower = dec("1.5") }},
		{"overlapping tiers", func(c *Config) { c.DiamondTiers[2].Lower = dec("1.5") }},
		{"bounded last tier", func(c *Config) { c.DiamondTiers[5].Upper = decPtr("10") }},
		{"negative base fee", func(c *Config) { c.BaseFees.Fee2 = dec("-1") }},
		{"zero making rate", func(c *Config) { c.MakingCharges.LessThan2gRatePerGram = dec("0") }},
		{"zero making multiplier", func(c *Config) { c.MakingCharges.Multiplier = dec("0") }},
		{"negative gst", func(c *Config) { c.GSTRate = dec("-0.01") }},
		{"gst at 100 percent", func(c *Config) { c.GSTRate = dec("1") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestTierForRejectsNegativeWeight(t *testing.T) {
	cfg := testConfig()
	_, err := cfg.TierFor(dec("-0.5"))
	require.ErrorIs(t, err, ErrInvalidWeight)
}

func TestDefaultConfigCoversAllNonNegativeWeights(t *testing.T) {
	cfg := DefaultConfig()
	for _, w := range []string{"0", "0.01", "1", "2", "3", "4", "5", "100"} {
		_, err := cfg.TierFor(dec(w))
		require.NoError(t, err, "weight %s", w)
	}
}
