package models

import "time"

// Candidate is one asset's point-in-time market snapshot plus its
// historical price/volume series. It is assembled once per run and never
// mutated afterwards; every scoring stage reads the same snapshot.
type Candidate struct {
	ID           string    `json:"id" db:"coin_id"`
	Symbol       string    `json:"symbol" db:"symbol"`
	Name         string    `json:"name" db:"name"`
	PriceSeries  []float64 `json:"price_series" db:"-"`
	VolumeSeries []float64 `json:"volume_series" db:"-"`

	MarketCap         float64 `json:"market_cap" db:"market_cap"`
	Volume24h         float64 `json:"volume_24h" db:"volume_24h"`
	CirculatingSupply float64 `json:"circulating_supply" db:"circulating_supply"`
	TotalSupply       float64 `json:"total_supply" db:"total_supply"`
	Rank              int     `json:"market_cap_rank" db:"rank"`

	CurrentPrice   float64 `json:"current_price" db:"current_price"`
	Change24h      float64 `json:"price_change_percentage_24h" db:"change_24h"`
	Change7d       float64 `json:"price_change_percentage_7d" db:"change_7d"`
	Change30d      float64 `json:"price_change_percentage_30d" db:"change_30d"`
	AllTimeHigh    float64 `json:"ath" db:"ath"`
	Description    string  `json:"description,omitempty" db:"-"`
}

// MinHistoryPoints is the hard floor on usable history. Candidates with
// shorter series are dropped before ranking, never scored.
const MinHistoryPoints = 30

// HasMinHistory reports whether the candidate carries enough price history
// to be scored at all.
func (c *Candidate) HasMinHistory() bool {
	return len(c.PriceSeries) >= MinHistoryPoints
}

// Trend is the directional classification emitted by the scorer.
type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
	TrendNeutral Trend = "neutral"
)

// CoinScore is the derived per-run scoring record. It is recomputed every
// run and immutable once built; nothing persists it back onto the Candidate.
type CoinScore struct {
	CoinID string `json:"coin_id" db:"coin_id"`
	Symbol string `json:"symbol" db:"symbol"`

	TechnicalScore   float64 `json:"technical_score" db:"technical_score"`
	MomentumScore    float64 `json:"momentum_score" db:"momentum_score"`
	VolumeScore      float64 `json:"volume_score" db:"volume_score"`
	VolatilityScore  float64 `json:"volatility_score" db:"volatility_score"`
	FundamentalScore float64 `json:"fundamental_score" db:"fundamental_score"`
	TotalScore       float64 `json:"total_score" db:"total_score"`

	Trend      Trend     `json:"trend" db:"trend"`
	Signals    []string  `json:"signals" db:"-"`
	Confidence float64   `json:"confidence" db:"confidence"`
	ComputedAt time.Time `json:"computed_at" db:"computed_at"`
}

// RiskCategory buckets a single asset by the risk/reward model.
type RiskCategory string

const (
	CategoryCore       RiskCategory = "core"
	CategoryMedium     RiskCategory = "medium"
	CategoryHighRisk   RiskCategory = "high-risk"
	CategoryQuarantine RiskCategory = "quarantine"
)

// RiskRewardResult is the single-asset explain payload. It is built
// independently of CoinScore from a Candidate plus its 30-day history.
type RiskRewardResult struct {
	CoinID      string       `json:"coin_id"`
	RiskScore   float64      `json:"risk_score"`
	RewardScore float64      `json:"reward_score"`
	Category    RiskCategory `json:"category"`
	Confidence  float64      `json:"confidence"`
	Explanation string       `json:"explanation"`
}

// Bucket is the volatility-derived risk tier used to cap portfolio
// concentration.
type Bucket string

const (
	BucketLow    Bucket = "Low"
	BucketMedium Bucket = "Medium"
	BucketHigh   Bucket = "High"
)

// BucketForVolatility maps annualized 30-day volatility (percent) onto a
// concentration bucket.
func BucketForVolatility(vol float64) Bucket {
	switch {
	case vol < 50:
		return BucketLow
	case vol < 90:
		return BucketMedium
	default:
		return BucketHigh
	}
}

// Role describes how a holding participates in the composed portfolio.
type Role string

const (
	RoleCore      Role = "core"
	RoleSatellite Role = "satellite"
	RoleStable    Role = "stable"
)

// Contribution is the periodic budget slice attached to one holding.
type Contribution struct {
	Amount  float64 `json:"amount"`
	Cadence string  `json:"cadence"`
}

// AllocationItem is one row of a composed target portfolio. AllocationPct
// is a fraction of the whole portfolio in [0,1].
type AllocationItem struct {
	CoinID        string       `json:"coin_id" db:"coin_id"`
	Symbol        string       `json:"symbol" db:"symbol"`
	Name          string       `json:"name" db:"name"`
	Role          Role         `json:"role" db:"role"`
	Bucket        Bucket       `json:"bucket" db:"bucket"`
	AllocationPct float64      `json:"allocation_pct" db:"allocation_pct"`
	Reasons       []string     `json:"reasons" db:"-"`
	Risks         []string     `json:"risks" db:"-"`
	Contribution  Contribution `json:"contribution" db:"-"`
}
