// Package policy resolves named risk-tolerance presets plus user overrides
// into the concrete numeric allocation policy consumed by the candidate
// filter and the allocation composer.
package policy

import (
	"fmt"

	"github.com/coinpilot/coinpilot/internal/models"
)

// RiskTolerance names a preset.
type RiskTolerance string

const (
	Conservative RiskTolerance = "conservative"
	Balanced     RiskTolerance = "balanced"
	Aggressive   RiskTolerance = "aggressive"
)

// HoldingsRange bounds the final holding count of a composed portfolio.
type HoldingsRange struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// RiskProfile is the constant block behind one preset. All percentage
// fields are fractions in [0,1].
type RiskProfile struct {
	Name                 RiskTolerance             `json:"name"`
	CoreTargetPct        float64                   `json:"core_target_pct"`
	BTCTargetPct         float64                   `json:"btc_target_pct"`
	ETHTargetPct         float64                   `json:"eth_target_pct"`
	StableBufferPct      float64                   `json:"stable_buffer_pct"`
	SatelliteTargetPct   float64                   `json:"satellite_target_pct"`
	BucketCaps           map[models.Bucket]float64 `json:"bucket_caps"`
	PerAssetCapPct       float64                   `json:"per_asset_cap_pct"`
	PerCategoryCapPct    float64                   `json:"per_category_cap_pct"`
	HoldingsTarget       HoldingsRange             `json:"holdings_target"`
	LiquidityRankCeiling int                       `json:"liquidity_rank_ceiling"`
	MinMarketCap         float64                   `json:"min_market_cap"`
	MinLiquidityRatio    float64                   `json:"min_liquidity_ratio"`
}

var presets = map[RiskTolerance]RiskProfile{
	Conservative: {
		Name:               Conservative,
		CoreTargetPct:      0.70,
		BTCTargetPct:       0.40,
		ETHTargetPct:       0.30,
		StableBufferPct:    0.15,
		SatelliteTargetPct: 0.15,
		BucketCaps: map[models.Bucket]float64{
			models.BucketLow:    0.15,
			models.BucketMedium: 0.08,
			models.BucketHigh:   0.0,
		},
		PerAssetCapPct:       0.10,
		PerCategoryCapPct:    0.25,
		HoldingsTarget:       HoldingsRange{Min: 4, Max: 8},
		LiquidityRankCeiling: 100,
		MinMarketCap:         1e9,
		MinLiquidityRatio:    0.02,
	},
	Balanced: {
		Name:               Balanced,
		CoreTargetPct:      0.60,
		BTCTargetPct:       0.35,
		ETHTargetPct:       0.25,
		StableBufferPct:    0.10,
		SatelliteTargetPct: 0.30,
		BucketCaps: map[models.Bucket]float64{
			models.BucketLow:    0.20,
			models.BucketMedium: 0.15,
			models.BucketHigh:   0.05,
		},
		PerAssetCapPct:       0.15,
		PerCategoryCapPct:    0.30,
		HoldingsTarget:       HoldingsRange{Min: 5, Max: 10},
		LiquidityRankCeiling: 200,
		MinMarketCap:         250e6,
		MinLiquidityRatio:    0.01,
	},
	Aggressive: {
		Name:               Aggressive,
		CoreTargetPct:      0.45,
		BTCTargetPct:       0.25,
		ETHTargetPct:       0.20,
		StableBufferPct:    0.05,
		SatelliteTargetPct: 0.50,
		BucketCaps: map[models.Bucket]float64{
			models.BucketLow:    0.25,
			models.BucketMedium: 0.20,
			models.BucketHigh:   0.15,
		},
		PerAssetCapPct:       0.20,
		PerCategoryCapPct:    0.40,
		HoldingsTarget:       HoldingsRange{Min: 6, Max: 12},
		LiquidityRankCeiling: 300,
		MinMarketCap:         50e6,
		MinLiquidityRatio:    0.005,
	},
}

// Preset returns the constant profile for a named tolerance.
func Preset(name RiskTolerance) (RiskProfile, error) {
	p, ok := presets[name]
	if !ok {
		return RiskProfile{}, fmt.Errorf("unknown risk tolerance: %q", name)
	}
	return p, nil
}

// Presets lists the available tolerance names.
func Presets() []RiskTolerance {
	return []RiskTolerance{Conservative, Balanced, Aggressive}
}
