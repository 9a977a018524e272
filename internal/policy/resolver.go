package policy

import (
	"github.com/rs/zerolog/log"

	"github.com/coinpilot/coinpilot/internal/models"
)

// coreFloorPct is the lowest the adjusted core target may fall after the
// stable buffer is carved out.
const coreFloorPct = 0.30

// Overrides carries the user-adjustable knobs. Zero values mean "keep the
// preset default".
type Overrides struct {
	StableBufferPct float64
	Holdings        HoldingsRange
	ExcludedIDs     []string
}

// Policy is the fully resolved numeric allocation policy: a preset merged
// with user overrides. It is what the filter and composer consume.
type Policy struct {
	Profile   RiskProfile
	Tolerance RiskTolerance

	CoreTargetPct      float64
	BTCTargetPct       float64
	ETHTargetPct       float64
	StableBufferPct    float64
	SatelliteTargetPct float64

	BucketCaps           map[models.Bucket]float64
	PerAssetCapPct       float64
	PerCategoryCapPct    float64
	HoldingsTarget       HoldingsRange
	LiquidityRankCeiling int
	MinMarketCap         float64
	MinLiquidityRatio    float64

	ExcludedIDs map[string]bool
}

// Resolve merges a preset with user overrides into a concrete policy.
//
// The stable buffer wins between override and preset; the core target gives
// up that buffer but never drops below the core floor; BTC/ETH targets
// scale proportionally with the adjusted core; whatever remains is the
// satellite budget.
func Resolve(tolerance RiskTolerance, overrides Overrides) (Policy, error) {
	profile, err := Preset(tolerance)
	if err != nil {
		return Policy{}, err
	}

	stable := profile.StableBufferPct
	if overrides.StableBufferPct > stable {
		stable = overrides.StableBufferPct
	}

	core := profile.CoreTargetPct - stable
	if core < coreFloorPct {
		core = coreFloorPct
	}

	satellite := 1.0 - core - stable
	if satellite < 0 {
		satellite = 0
	}

	coreScale := 1.0
	if profile.CoreTargetPct > 0 {
		coreScale = core / profile.CoreTargetPct
	}

	holdings := profile.HoldingsTarget
	if overrides.Holdings.Min > 0 {
		holdings.Min = overrides.Holdings.Min
	}
	if overrides.Holdings.Max > 0 {
		holdings.Max = overrides.Holdings.Max
	}

	excluded := make(map[string]bool, len(overrides.ExcludedIDs))
	for _, id := range overrides.ExcludedIDs {
		excluded[id] = true
	}

	caps := make(map[models.Bucket]float64, len(profile.BucketCaps))
	for bucket, cap := range profile.BucketCaps {
		caps[bucket] = cap
	}

	p := Policy{
		Profile:   profile,
		Tolerance: tolerance,

		CoreTargetPct:      core,
		BTCTargetPct:       profile.BTCTargetPct * coreScale,
		ETHTargetPct:       profile.ETHTargetPct * coreScale,
		StableBufferPct:    stable,
		SatelliteTargetPct: satellite,

		BucketCaps:           caps,
		PerAssetCapPct:       profile.PerAssetCapPct,
		PerCategoryCapPct:    profile.PerCategoryCapPct,
		HoldingsTarget:       holdings,
		LiquidityRankCeiling: profile.LiquidityRankCeiling,
		MinMarketCap:         profile.MinMarketCap,
		MinLiquidityRatio:    profile.MinLiquidityRatio,

		ExcludedIDs: excluded,
	}

	log.Debug().
		Str("tolerance", string(tolerance)).
		Float64("core_pct", p.CoreTargetPct).
		Float64("stable_pct", p.StableBufferPct).
		Float64("satellite_pct", p.SatelliteTargetPct).
		Msg("Policy resolved")

	return p, nil
}
