// Package portfolio screens the ranked candidate universe and composes a
// capped, normalized target portfolio under a resolved policy.
package portfolio

import (
	"github.com/rs/zerolog/log"

	"github.com/coinpilot/coinpilot/internal/domain/series"
	"github.com/coinpilot/coinpilot/internal/models"
	"github.com/coinpilot/coinpilot/internal/policy"
)

// DropReason codes why a candidate was screened out.
type DropReason string

const (
	DropMarketCap   DropReason = "BELOW_MIN_MARKET_CAP"
	DropLiquidity   DropReason = "BELOW_LIQUIDITY_FLOOR"
	DropRankCeiling DropReason = "BEYOND_RANK_CEILING"
	DropExcluded    DropReason = "EXPLICITLY_EXCLUDED"
	DropCoreHolding DropReason = "ALREADY_CORE_OR_STABLE"
	DropBucketCap   DropReason = "BUCKET_CAPPED_TO_ZERO"
)

// Filter screens satellite candidates against a resolved policy.
type Filter struct {
	roles models.AssetRoles
}

// NewFilter creates a filter sharing the injected id→role table with the
// composer.
func NewFilter(roles models.AssetRoles) *Filter {
	return &Filter{roles: roles}
}

// Screen returns the candidates that survive every policy gate, in input
// order. Dropped candidates are logged with their reason, never errored.
func (f *Filter) Screen(candidates []*models.Candidate, pol policy.Policy) []*models.Candidate {
	kept := make([]*models.Candidate, 0, len(candidates))

	for _, c := range candidates {
		if reason, ok := f.screenOne(c, pol); !ok {
			log.Debug().
				Str("coin_id", c.ID).
				Str("reason", string(reason)).
				Msg("Candidate screened out")
			continue
		}
		kept = append(kept, c)
	}

	log.Info().
		Int("in", len(candidates)).
		Int("kept", len(kept)).
		Str("tolerance", string(pol.Tolerance)).
		Msg("Candidate universe screened")

	return kept
}

func (f *Filter) screenOne(c *models.Candidate, pol policy.Policy) (DropReason, bool) {
	if pol.ExcludedIDs[c.ID] {
		return DropExcluded, false
	}

	if f.roles.IsCoreOrStable(c.ID) {
		return DropCoreHolding, false
	}

	if c.MarketCap < pol.MinMarketCap {
		return DropMarketCap, false
	}

	if c.MarketCap > 0 && c.Volume24h/c.MarketCap < pol.MinLiquidityRatio {
		return DropLiquidity, false
	}

	if c.Rank <= 0 || c.Rank > pol.LiquidityRankCeiling {
		return DropRankCeiling, false
	}

	bucket := models.BucketForVolatility(series.Volatility30d(c.PriceSeries))
	if pol.BucketCaps[bucket] == 0 {
		return DropBucketCap, false
	}

	return "", true
}

// BucketOf exposes the volatility-derived bucket the filter and composer
// assign to a candidate.
func BucketOf(c *models.Candidate) models.Bucket {
	return models.BucketForVolatility(series.Volatility30d(c.PriceSeries))
}
