package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinpilot/coinpilot/internal/config"
	"github.com/coinpilot/coinpilot/internal/models"
)

func testCandidate(id string, prices, volumes []float64) *models.Candidate {
	c := &models.Candidate{
		ID:                id,
		Symbol:            id,
		Name:              id,
		PriceSeries:       prices,
		VolumeSeries:      volumes,
		MarketCap:         5e9,
		Volume24h:         2e8,
		CirculatingSupply: 1e8,
		TotalSupply:       1.2e8,
		Rank:              25,
	}
	if len(prices) > 0 {
		c.CurrentPrice = prices[len(prices)-1]
	}
	return c
}

func risingCandidate(id string, n int) *models.Candidate {
	prices := make([]float64, n)
	volumes := make([]float64, n)
	for i := range prices {
		prices[i] = 100 + float64(i)
		volumes[i] = 1e6
	}
	return testCandidate(id, prices, volumes)
}

func flatCandidate(id string, n int) *models.Candidate {
	prices := make([]float64, n)
	volumes := make([]float64, n)
	for i := range prices {
		prices[i] = 100
		volumes[i] = 1e6
	}
	return testCandidate(id, prices, volumes)
}

func TestScore_ComponentsWithinBounds(t *testing.T) {
	scorer := NewScorer(config.Default())

	candidates := []*models.Candidate{
		risingCandidate("alpha", 60),
		flatCandidate("beta", 40),
		testCandidate("gamma", []float64{
			100, 1, 500, 2, 900, 3, 1300, 4, 1700, 5,
			100, 1, 500, 2, 900, 3, 1300, 4, 1700, 5,
			100, 1, 500, 2, 900, 3, 1300, 4, 1700, 5,
		}, []float64{
			1, 1e12, 1, 1e12, 1, 1e12, 1, 1e12, 1, 1e12,
			1, 1e12, 1, 1e12, 1, 1e12, 1, 1e12, 1, 1e12,
			1, 1e12, 1, 1e12, 1, 1e12, 1, 1e12, 1, 1e12,
		}),
	}

	for _, c := range candidates {
		score := scorer.Score(c)
		for name, v := range map[string]float64{
			"technical":   score.TechnicalScore,
			"momentum":    score.MomentumScore,
			"volume":      score.VolumeScore,
			"volatility":  score.VolatilityScore,
			"fundamental": score.FundamentalScore,
			"total":       score.TotalScore,
			"confidence":  score.Confidence,
		} {
			assert.GreaterOrEqual(t, v, 0.0, "%s score for %s", name, c.ID)
			assert.LessOrEqual(t, v, 100.0, "%s score for %s", name, c.ID)
		}
	}
}

func TestScore_RisingSeriesIsBullish(t *testing.T) {
	scorer := NewScorer(config.Default())

	score := scorer.Score(risingCandidate("alpha", 40))

	assert.Equal(t, models.TrendBullish, score.Trend)
	assert.NotEmpty(t, score.Signals)
	assert.Equal(t, "alpha", score.CoinID)
	assert.False(t, score.ComputedAt.IsZero())
}

func TestScore_FlatSeriesIsNeutral(t *testing.T) {
	scorer := NewScorer(config.Default())

	score := scorer.Score(flatCandidate("beta", 40))

	assert.Equal(t, models.TrendNeutral, score.Trend)
}

func TestScore_TotalMatchesWeightedComponents(t *testing.T) {
	cfg := config.Default()
	scorer := NewScorer(cfg)

	score := scorer.Score(risingCandidate("alpha", 60))

	want := score.TechnicalScore*cfg.Weights.Technical +
		score.MomentumScore*cfg.Weights.Momentum +
		score.VolumeScore*cfg.Weights.Volume +
		score.VolatilityScore*cfg.Weights.Volatility +
		score.FundamentalScore*cfg.Weights.Fundamental

	assert.InDelta(t, want, score.TotalScore, 1e-9)
}

func TestRank_DropsShortHistory(t *testing.T) {
	scorer := NewScorer(config.Default())

	candidates := []*models.Candidate{
		risingCandidate("alpha", 60),
		risingCandidate("short", models.MinHistoryPoints-1),
		flatCandidate("beta", 40),
	}

	scores := scorer.Rank(candidates)

	require.Len(t, scores, 2)
	for _, sc := range scores {
		assert.NotEqual(t, "short", sc.CoinID)
	}
}

func TestRank_SortedDescending(t *testing.T) {
	scorer := NewScorer(config.Default())

	candidates := []*models.Candidate{
		flatCandidate("beta", 40),
		risingCandidate("alpha", 60),
		flatCandidate("gamma", 40),
	}

	scores := scorer.Rank(candidates)

	require.Len(t, scores, 3)
	for i := 1; i < len(scores); i++ {
		assert.GreaterOrEqual(t, scores[i-1].TotalScore, scores[i].TotalScore)
	}
}

func TestRank_EmptyInput(t *testing.T) {
	scorer := NewScorer(config.Default())

	assert.Empty(t, scorer.Rank(nil))
	assert.Empty(t, scorer.Rank([]*models.Candidate{}))
}
