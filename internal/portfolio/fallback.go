package portfolio

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/coinpilot/coinpilot/internal/models"
	"github.com/coinpilot/coinpilot/internal/policy"
)

// minSatelliteSlice is the smallest allocation the fallback will hand a
// single satellite; anything thinner is dust.
const minSatelliteSlice = 0.02

// FallbackSelector is the deterministic, rule-based satellite picker used
// whenever the external advisory call times out, fails validation, or
// returns nothing usable. Its output is structurally identical to the
// advisory path.
type FallbackSelector struct{}

// NewFallbackSelector creates the deterministic satellite selector.
func NewFallbackSelector() *FallbackSelector {
	return &FallbackSelector{}
}

// Select fills the policy's satellite budget with the top-ranked screened
// candidates per bucket, under the same per-asset and bucket caps the
// composer enforces. Identical inputs always produce identical output.
func (fs *FallbackSelector) Select(pol policy.Policy, candidates []*models.Candidate, scores []models.CoinScore) []models.SatelliteProposal {
	scoreByID := make(map[string]float64, len(scores))
	for _, s := range scores {
		scoreByID[s.CoinID] = s.TotalScore
	}

	ranked := make([]*models.Candidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return scoreByID[ranked[i].ID] > scoreByID[ranked[j].ID]
	})

	budget := pol.SatelliteTargetPct
	slots := pol.HoldingsTarget.Max - coreSlots
	bucketRemaining := map[models.Bucket]float64{}
	for bucket, bucketCap := range pol.BucketCaps {
		bucketRemaining[bucket] = bucketCap
	}

	var proposals []models.SatelliteProposal
	for _, c := range ranked {
		if budget < minSatelliteSlice || len(proposals) >= slots {
			break
		}

		bucket := BucketOf(c)
		slice := pol.PerAssetCapPct
		if slice > bucketRemaining[bucket] {
			slice = bucketRemaining[bucket]
		}
		if slice > budget {
			slice = budget
		}
		if slice < minSatelliteSlice {
			continue
		}

		proposals = append(proposals, models.SatelliteProposal{
			CoinID:        c.ID,
			Symbol:        c.Symbol,
			Name:          c.Name,
			Bucket:        bucket,
			AllocationPct: slice,
			Reasons: []string{
				"Top-ranked candidate in its risk bucket this run",
				"Passed liquidity, rank, and exclusion screens",
			},
			Risks: []string{
				"Satellite holding; sized within bucket concentration caps",
			},
		})

		budget -= slice
		bucketRemaining[bucket] -= slice
	}

	log.Info().
		Int("satellites", len(proposals)).
		Float64("unfilled_budget", budget).
		Msg("Deterministic fallback selection complete")

	return proposals
}
