package portfolio

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/coinpilot/coinpilot/internal/models"
	"github.com/coinpilot/coinpilot/internal/policy"
)

// normalizeTolerance is how far the composed total may drift from 1.0
// before renormalization kicks in, and how far it may remain off after
// renormalization before composition fails loudly.
const normalizeTolerance = 0.01

// coreSlots are reserved in the holdings budget for BTC, ETH, and the
// stable buffer.
const coreSlots = 3

// Composer builds the target allocation in a single composition pass.
type Composer struct {
	roles models.AssetRoles
}

// NewComposer creates a composer sharing the id→role table with the
// filter.
func NewComposer(roles models.AssetRoles) *Composer {
	return &Composer{roles: roles}
}

// Compose runs the composition pass: deterministic core rows, merged
// satellite proposals clamped to the per-asset cap, proportional
// bucket-cap scaling, truncation to the holdings budget, and final
// renormalization to a 1.0 total.
//
// Warnings are non-fatal composition notes. The only error case is a
// post-normalization total still outside tolerance, which indicates a
// programming error upstream and is never silently re-clamped.
func (cp *Composer) Compose(pol policy.Policy, satellites []models.SatelliteProposal) ([]models.AllocationItem, []string, error) {
	var warnings []string

	items := cp.coreRows(pol)

	sats := cp.clampSatellites(pol, satellites)
	sats = cp.applyBucketCaps(pol, sats, &warnings)
	sats = cp.truncate(pol, sats)

	items = append(items, sats...)

	total := 0.0
	for _, item := range items {
		total += item.AllocationPct
	}
	if total <= 0 {
		return nil, nil, fmt.Errorf("composed portfolio has non-positive total allocation %.4f", total)
	}

	if math.Abs(total-1.0) > normalizeTolerance {
		scale := 1.0 / total
		for i := range items {
			items[i].AllocationPct *= scale
		}
		warnings = append(warnings, fmt.Sprintf("allocation renormalized from %.2f%% total", total*100))
		log.Debug().Float64("pre_total", total).Msg("Allocation renormalized")
	}

	final := 0.0
	for _, item := range items {
		final += item.AllocationPct
	}
	if math.Abs(final-1.0) > normalizeTolerance {
		return nil, nil, fmt.Errorf("post-normalization total %.6f outside tolerance; composition invariant broken", final)
	}

	if n := len(items); n < pol.HoldingsTarget.Min || n > pol.HoldingsTarget.Max {
		warnings = append(warnings, fmt.Sprintf("holding count %d outside target range %d-%d",
			n, pol.HoldingsTarget.Min, pol.HoldingsTarget.Max))
	}

	return items, warnings, nil
}

// coreRows emits the deterministic BTC/ETH rows plus the optional stable
// buffer row, with fixed editorial reasons and risks.
func (cp *Composer) coreRows(pol policy.Policy) []models.AllocationItem {
	items := []models.AllocationItem{
		{
			CoinID:        cp.roles.BTCID,
			Symbol:        "BTC",
			Name:          "Bitcoin",
			Role:          models.RoleCore,
			Bucket:        models.BucketLow,
			AllocationPct: pol.BTCTargetPct,
			Reasons: []string{
				"Deepest liquidity and longest track record in the asset class",
				"Portfolio foundation under every risk tolerance",
			},
			Risks: []string{
				"Still a volatile asset relative to traditional markets",
			},
		},
		{
			CoinID:        cp.roles.ETHID,
			Symbol:        "ETH",
			Name:          "Ethereum",
			Role:          models.RoleCore,
			Bucket:        models.BucketLow,
			AllocationPct: pol.ETHTargetPct,
			Reasons: []string{
				"Dominant smart-contract platform with entrenched network effects",
				"Core holding complementing Bitcoin exposure",
			},
			Risks: []string{
				"Protocol-upgrade execution risk",
				"Competitive pressure from alternative L1 networks",
			},
		},
	}

	if pol.StableBufferPct > 0 {
		items = append(items, models.AllocationItem{
			CoinID:        cp.roles.StableID,
			Symbol:        "USDC",
			Name:          "USD Coin",
			Role:          models.RoleStable,
			Bucket:        models.BucketLow,
			AllocationPct: pol.StableBufferPct,
			Reasons: []string{
				"Dry powder for rebalancing into drawdowns",
				"Dampens portfolio volatility",
			},
			Risks: []string{
				"Issuer and depeg risk",
				"No upside participation",
			},
		})
	}

	return items
}

// clampSatellites converts proposals into allocation rows, clamping each
// to the per-asset cap. The cap may be exceeded transiently on input; it
// never survives this step.
func (cp *Composer) clampSatellites(pol policy.Policy, proposals []models.SatelliteProposal) []models.AllocationItem {
	items := make([]models.AllocationItem, 0, len(proposals))
	for _, p := range proposals {
		pct := p.AllocationPct
		if pct <= 0 {
			continue
		}
		if pct > pol.PerAssetCapPct {
			log.Debug().
				Str("coin_id", p.CoinID).
				Float64("proposed", pct).
				Float64("cap", pol.PerAssetCapPct).
				Msg("Satellite allocation clamped to per-asset cap")
			pct = pol.PerAssetCapPct
		}

		items = append(items, models.AllocationItem{
			CoinID:        p.CoinID,
			Symbol:        p.Symbol,
			Name:          p.Name,
			Role:          models.RoleSatellite,
			Bucket:        p.Bucket,
			AllocationPct: pct,
			Reasons:       p.Reasons,
			Risks:         p.Risks,
		})
	}
	return items
}

// applyBucketCaps scales every item of an over-cap bucket down
// proportionally until the bucket total equals its cap.
func (cp *Composer) applyBucketCaps(pol policy.Policy, items []models.AllocationItem, warnings *[]string) []models.AllocationItem {
	sums := map[models.Bucket]float64{}
	for _, item := range items {
		sums[item.Bucket] += item.AllocationPct
	}

	for bucket, sum := range sums {
		bucketCap, ok := pol.BucketCaps[bucket]
		if !ok || sum <= bucketCap {
			continue
		}

		scale := 0.0
		if sum > 0 {
			scale = bucketCap / sum
		}
		for i := range items {
			if items[i].Bucket == bucket {
				items[i].AllocationPct *= scale
			}
		}

		*warnings = append(*warnings, fmt.Sprintf("%s bucket scaled from %.1f%% to its %.1f%% cap",
			bucket, sum*100, bucketCap*100))
	}

	return items
}

// truncate keeps the largest satellites up to the holdings budget, with
// three slots reserved for the core and stable rows.
func (cp *Composer) truncate(pol policy.Policy, items []models.AllocationItem) []models.AllocationItem {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].AllocationPct > items[j].AllocationPct
	})

	budget := pol.HoldingsTarget.Max - coreSlots
	if budget < 0 {
		budget = 0
	}
	if len(items) > budget {
		items = items[:budget]
	}
	return items
}
