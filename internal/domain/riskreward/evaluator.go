// Package riskreward is the single-asset risk/reward model behind the
// explain surface. It is independent of the composite scorer and consumes
// only a Candidate snapshot plus its 30-day history.
package riskreward

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/coinpilot/coinpilot/internal/config"
	"github.com/coinpilot/coinpilot/internal/domain/series"
	"github.com/coinpilot/coinpilot/internal/models"
)

// Market-cap tier boundaries shared by the risk factors and the category
// rules.
const (
	tierMega  = 100e9
	tierLarge = 10e9
	tierMid   = 1e9
	tierSmall = 100e6
	tierMicro = 10e6
)

// Evaluator computes weighted risk and reward scores for one asset.
type Evaluator struct {
	cfg *config.ScoringConfig
}

// NewEvaluator creates an evaluator bound to one scoring configuration.
func NewEvaluator(cfg *config.ScoringConfig) *Evaluator {
	return &Evaluator{cfg: cfg}
}

// Evaluate never fails: on a nil candidate, missing data, or any internal
// problem it returns a quarantine default with zero confidence rather than
// surfacing an error to the caller.
func (e *Evaluator) Evaluate(c *models.Candidate) (result models.RiskRewardResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Risk/reward evaluation recovered")
			result = e.safeDefault("")
		}
	}()

	if c == nil {
		return e.safeDefault("")
	}

	risk := e.riskScore(c)
	reward := e.rewardScore(c)
	category := e.categorize(c, risk, reward)
	confidence := e.confidence(c)

	return models.RiskRewardResult{
		CoinID:      c.ID,
		RiskScore:   clamp(risk),
		RewardScore: clamp(reward),
		Category:    category,
		Confidence:  confidence,
		Explanation: explain(category, clamp(risk), clamp(reward)),
	}
}

// safeDefault is the no-data fallback: quarantined, zero confidence, and a
// generic explanation.
func (e *Evaluator) safeDefault(coinID string) models.RiskRewardResult {
	return models.RiskRewardResult{
		CoinID:      coinID,
		RiskScore:   100,
		RewardScore: 0,
		Category:    models.CategoryQuarantine,
		Confidence:  0,
		Explanation: "Insufficient data to evaluate this asset; treat as quarantined until history accumulates.",
	}
}

func (e *Evaluator) riskScore(c *models.Candidate) float64 {
	w := e.cfg.RiskReward.Risk

	factors := map[string]float64{
		"volatility":     volatilityRisk(c.PriceSeries),
		"market_cap":     marketCapRisk(c.MarketCap),
		"liquidity":      liquidityRisk(c),
		"age":            ageRisk(c.Rank),
		"development":    50, // no development feed; neutral
		"centralization": centralizationRisk(c),
		"regulatory":     50, // no regulatory feed; neutral
		"technical":      technicalRisk(c.PriceSeries),
	}

	score := 0.0
	for name, weight := range w {
		score += factors[name] * weight
	}
	return score
}

func (e *Evaluator) rewardScore(c *models.Candidate) float64 {
	w := e.cfg.RiskReward.Reward

	factors := map[string]float64{
		"growth":       growthReward(c),
		"adoption":     adoptionReward(c),
		"innovation":   50, // no qualitative feed; neutral
		"utility":      50,
		"partnerships": 50,
		"community":    50,
		"tokenomics":   tokenomicsReward(c),
	}

	score := 0.0
	for name, weight := range w {
		score += factors[name] * weight
	}
	return score
}

// volatilityRisk reuses the 30-day volatility computation: the underlying
// daily-return standard deviation scaled by 1000 and capped at 100.
func volatilityRisk(prices []float64) float64 {
	vol := series.Volatility30d(prices)
	if vol == 0 {
		return 50 // neutral when history could not support the estimate
	}

	dailyStdDev := vol / (math.Sqrt(365) * 100)
	risk := dailyStdDev * 1000
	if risk > 100 {
		risk = 100
	}
	return risk
}

func marketCapRisk(marketCap float64) float64 {
	switch {
	case marketCap >= tierMega:
		return 5
	case marketCap >= tierLarge:
		return 15
	case marketCap >= tierMid:
		return 30
	case marketCap >= tierSmall:
		return 50
	case marketCap >= tierMicro:
		return 70
	default:
		return 90
	}
}

func liquidityRisk(c *models.Candidate) float64 {
	if c.MarketCap <= 0 || c.Volume24h <= 0 {
		return 90
	}

	ratio := c.Volume24h / c.MarketCap
	switch {
	case ratio >= 0.10:
		return 10
	case ratio >= 0.05:
		return 25
	case ratio >= 0.02:
		return 45
	case ratio >= 0.01:
		return 60
	case ratio >= 0.005:
		return 75
	default:
		return 90
	}
}

// ageRisk proxies project maturity by market rank; there is no listing-date
// feed.
func ageRisk(rank int) float64 {
	switch {
	case rank <= 0:
		return 70
	case rank <= 10:
		return 20
	case rank <= 50:
		return 35
	case rank <= 100:
		return 50
	case rank <= 200:
		return 65
	default:
		return 80
	}
}

func centralizationRisk(c *models.Candidate) float64 {
	if c.TotalSupply <= 0 {
		return 60
	}

	float := c.CirculatingSupply / c.TotalSupply
	switch {
	case float >= 0.9:
		return 25
	case float >= 0.7:
		return 40
	case float >= 0.4:
		return 60
	default:
		return 80
	}
}

func technicalRisk(prices []float64) float64 {
	dd := series.MaxDrawdown(prices)
	if dd > 100 {
		dd = 100
	}
	return dd
}

// growthReward blends short, medium, and monthly momentum, with a size
// adjustment: the larger the cap, the lower the base growth ceiling.
func growthReward(c *models.Candidate) float64 {
	blended := c.Change24h*0.2 + c.Change7d*0.3 + c.Change30d*0.5

	base := 50.0
	switch {
	case c.MarketCap >= tierMega:
		base = 30
	case c.MarketCap >= tierLarge:
		base = 40
	case c.MarketCap >= tierMid:
		base = 50
	default:
		base = 60
	}

	return clamp(base + blended)
}

func adoptionReward(c *models.Candidate) float64 {
	if c.MarketCap <= 0 {
		return 30
	}

	turnover := c.Volume24h / c.MarketCap
	switch {
	case turnover >= 0.10:
		return 80
	case turnover >= 0.05:
		return 65
	case turnover >= 0.01:
		return 50
	default:
		return 35
	}
}

func tokenomicsReward(c *models.Candidate) float64 {
	if c.TotalSupply <= 0 {
		return 40
	}

	float := c.CirculatingSupply / c.TotalSupply
	switch {
	case float >= 0.8:
		return 70
	case float >= 0.5:
		return 55
	default:
		return 40
	}
}

// categorize applies the category rules in priority order: quarantine
// first, then core, then high-risk, else medium.
func (e *Evaluator) categorize(c *models.Candidate, risk, reward float64) models.RiskCategory {
	switch {
	case risk >= 80 || (risk >= 60 && reward <= 20):
		return models.CategoryQuarantine
	case risk <= 30 && c.MarketCap >= tierLarge:
		return models.CategoryCore
	case reward >= 70 && risk >= 50:
		return models.CategoryHighRisk
	default:
		return models.CategoryMedium
	}
}

// confidence starts at 100 and deducts for each missing input, plus a
// penalty when the volatility estimate fell back to its neutral default.
func (e *Evaluator) confidence(c *models.Candidate) float64 {
	conf := 100.0

	if c.MarketCap <= 0 {
		conf -= 20
	}
	if c.Volume24h <= 0 {
		conf -= 15
	}
	if c.Description == "" {
		conf -= 10
	}
	if c.Rank <= 0 {
		conf -= 10
	}
	if len(c.PriceSeries) < models.MinHistoryPoints {
		conf -= 15
	}

	if conf < 0 {
		conf = 0
	}
	return conf
}

func band(score float64) string {
	switch {
	case score < 30:
		return "low"
	case score < 60:
		return "medium"
	default:
		return "high"
	}
}

func explain(category models.RiskCategory, risk, reward float64) string {
	templates := map[models.RiskCategory]string{
		models.CategoryCore:       "Core-grade asset: %s risk (%.0f) against %s reward potential (%.0f). Suitable as a portfolio foundation.",
		models.CategoryMedium:     "Medium-tier asset: %s risk (%.0f) against %s reward potential (%.0f). Position size accordingly.",
		models.CategoryHighRisk:   "High-risk asset: %s risk (%.0f) chasing %s reward potential (%.0f). Satellite exposure only.",
		models.CategoryQuarantine: "Quarantined asset: %s risk (%.0f) with %s reward potential (%.0f). Excluded from allocation.",
	}
	return fmt.Sprintf(templates[category], band(risk), risk, band(reward), reward)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
