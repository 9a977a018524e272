// Package scoring combines indicator math and market metrics into ranked
// 0-100 composite scores. Every delta and threshold comes from the
// versioned scoring config; the scorer itself holds no tunables.
package scoring

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coinpilot/coinpilot/internal/config"
	"github.com/coinpilot/coinpilot/internal/domain/series"
	"github.com/coinpilot/coinpilot/internal/models"
)

// Scorer computes multi-factor composite scores for candidates.
type Scorer struct {
	cfg *config.ScoringConfig
}

// NewScorer creates a scorer bound to one scoring configuration.
func NewScorer(cfg *config.ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// indicatorSet is everything the component scorers read, computed once per
// candidate.
type indicatorSet struct {
	rsi            float64
	macd           series.MACDResult
	sma20          float64
	sma50          float64
	bollinger      series.BollingerResult
	volumeRatio    float64
	momentum       float64
	trendStrength  float64
	volumeMomentum float64
	volatility     float64
	sharpe         float64
	maxDrawdown    float64
	price          float64
}

func (s *Scorer) computeIndicators(c *models.Candidate) indicatorSet {
	prices := c.PriceSeries
	volumes := c.VolumeSeries

	price := c.CurrentPrice
	if price == 0 && len(prices) > 0 {
		price = prices[len(prices)-1]
	}

	return indicatorSet{
		rsi:            series.RSI(prices, 14),
		macd:           series.MACD(prices),
		sma20:          series.SMA(prices, 20),
		sma50:          series.SMA(prices, 50),
		bollinger:      series.Bollinger(prices, 20),
		volumeRatio:    series.VolumeRatio(volumes),
		momentum:       series.Momentum(prices, 10),
		trendStrength:  series.TrendStrength(prices),
		volumeMomentum: series.VolumeMomentum(volumes),
		volatility:     series.Volatility30d(prices),
		sharpe:         series.SharpeRatio(prices),
		maxDrawdown:    series.MaxDrawdown(prices),
		price:          price,
	}
}

// Score computes the full CoinScore for one candidate. The candidate is
// expected to carry at least models.MinHistoryPoints of history; Rank
// enforces that precondition.
func (s *Scorer) Score(c *models.Candidate) models.CoinScore {
	ind := s.computeIndicators(c)

	technical, techSignals := s.scoreTechnical(ind)
	momentum := s.scoreMomentum(ind)
	volume := s.scoreVolume(c, ind)
	volatility := s.scoreVolatility(ind)
	fundamental := s.scoreFundamental(c, ind)

	w := s.cfg.Weights
	total := technical*w.Technical +
		momentum*w.Momentum +
		volume*w.Volume +
		volatility*w.Volatility +
		fundamental*w.Fundamental

	trend, trendSignals := s.classifyTrend(ind)

	signals := make([]string, 0, len(techSignals)+len(trendSignals))
	signals = append(signals, techSignals...)
	signals = append(signals, trendSignals...)

	return models.CoinScore{
		CoinID:           c.ID,
		Symbol:           c.Symbol,
		TechnicalScore:   technical,
		MomentumScore:    momentum,
		VolumeScore:      volume,
		VolatilityScore:  volatility,
		FundamentalScore: fundamental,
		TotalScore:       clamp(total),
		Trend:            trend,
		Signals:          signals,
		Confidence:       s.confidence(ind),
		ComputedAt:       time.Now().UTC(),
	}
}

// Rank scores every candidate with sufficient history and returns the
// results sorted descending by total score. Candidates with short history
// are dropped, not scored.
func (s *Scorer) Rank(candidates []*models.Candidate) []models.CoinScore {
	scores := make([]models.CoinScore, 0, len(candidates))
	for _, c := range candidates {
		if !c.HasMinHistory() {
			log.Debug().
				Str("coin_id", c.ID).
				Int("history_points", len(c.PriceSeries)).
				Msg("Candidate dropped: insufficient history")
			continue
		}
		scores = append(scores, s.Score(c))
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].TotalScore > scores[j].TotalScore
	})
	return scores
}

func (s *Scorer) scoreTechnical(ind indicatorSet) (float64, []string) {
	d := s.cfg.Deltas
	t := s.cfg.Technical
	score := 50.0
	var signals []string

	switch {
	case ind.rsi < t.RSIOversold:
		score += d.Standard
		signals = append(signals, fmt.Sprintf("RSI oversold (%.1f)", ind.rsi))
	case ind.rsi > t.RSIOverbought:
		score -= d.Standard
		signals = append(signals, fmt.Sprintf("RSI overbought (%.1f)", ind.rsi))
	default:
		score += d.Slight
	}

	if ind.macd.Histogram > 0 {
		score += d.Minor
		signals = append(signals, "MACD histogram positive")
	} else {
		score -= d.Minor
	}

	// >= so the short-history fallback (SMA collapses to the last price)
	// still counts as holding the average.
	if ind.price >= ind.sma20 {
		score += d.Minor
		signals = append(signals, "Price above SMA20")
	}
	if ind.price >= ind.sma50 {
		score += d.Minor
		signals = append(signals, "Price above SMA50")
	}

	// Band position in the lowest quintile reads as discounted, highest as
	// extended.
	if span := ind.bollinger.Upper - ind.bollinger.Lower; span > 0 {
		position := (ind.price - ind.bollinger.Lower) / span
		if position < 0.2 {
			score += d.Minor
			signals = append(signals, "Near lower Bollinger band")
		} else if position > 0.8 {
			score -= d.Minor
			signals = append(signals, "Near upper Bollinger band")
		}
	}

	if ind.volumeRatio > t.VolumeRatioHigh {
		score += d.Minor
		signals = append(signals, fmt.Sprintf("Volume surge (%.2fx)", ind.volumeRatio))
	} else if ind.volumeRatio < t.VolumeRatioLow {
		score -= d.Minor
	}

	return clamp(score), signals
}

func (s *Scorer) scoreMomentum(ind indicatorSet) float64 {
	d := s.cfg.Deltas
	m := s.cfg.Momentum
	score := 50.0

	switch {
	case ind.momentum > m.Strong:
		score += d.Major
	case ind.momentum > 0:
		score += d.Minor
	case ind.momentum < m.Weak:
		score -= d.Major
	default:
		score -= d.Minor
	}

	if ind.trendStrength > m.TrendStrength {
		score += d.Standard
	} else if ind.trendStrength < -m.TrendStrength {
		score -= d.Standard
	}

	if ind.volumeMomentum > m.VolumeMomentum {
		score += d.Standard
	} else if ind.volumeMomentum < -m.VolumeMomentum {
		score -= d.Standard
	}

	return clamp(score)
}

func (s *Scorer) scoreVolume(c *models.Candidate, ind indicatorSet) float64 {
	d := s.cfg.Deltas
	v := s.cfg.Volume
	score := 50.0

	if c.MarketCap > 0 {
		turnover := c.Volume24h / c.MarketCap
		switch {
		case turnover > v.TurnoverHigh:
			score += d.Major
		case turnover > v.TurnoverMid:
			score += d.Minor
		case turnover < v.TurnoverLow:
			score -= d.Major
		}
	}

	// Recent-week volume against the prior 23 days: sustained escalation
	// scores up, drying up scores down.
	if vols := c.VolumeSeries; len(vols) >= 30 {
		recent := avg(vols[len(vols)-7:])
		prior := avg(vols[len(vols)-30 : len(vols)-7])
		if prior > 0 {
			ratio := recent / prior
			switch {
			case ratio > 1.5:
				score += d.Major
			case ratio > 1.1:
				score += d.Minor
			case ratio < 0.7:
				score -= d.Major
			}
		}
	}

	return clamp(score)
}

func (s *Scorer) scoreVolatility(ind indicatorSet) float64 {
	d := s.cfg.Deltas
	v := s.cfg.Volatility
	score := 50.0

	// Moderate risk is preferred: calm markets score best, runaway
	// volatility is penalized twice as hard as merely elevated.
	switch {
	case ind.volatility < v.Calm:
		score += d.Major
	case ind.volatility < v.Moderate:
		score += d.Minor
	case ind.volatility > v.Extreme:
		score -= d.Major
	case ind.volatility > v.Elevated:
		score -= d.Minor
	}

	switch {
	case ind.sharpe > v.SharpeStrong:
		score += d.Major
	case ind.sharpe > v.SharpeGood:
		score += d.Minor
	case ind.sharpe < 0:
		score -= d.Major
	}

	if ind.maxDrawdown < v.DrawdownShallow {
		score += d.Minor
	} else if ind.maxDrawdown > v.DrawdownDeep {
		score -= d.Major
	}

	return clamp(score)
}

func (s *Scorer) scoreFundamental(c *models.Candidate, ind indicatorSet) float64 {
	d := s.cfg.Deltas
	f := s.cfg.Fundamental
	score := 50.0

	switch {
	case c.MarketCap >= f.SweetSpotLow && c.MarketCap <= f.SweetSpotHigh:
		score += d.Major
	case c.MarketCap > f.EstablishedFloor:
		score += d.Minor
	case c.MarketCap < f.MicroCap && c.MarketCap > 0:
		score -= d.Major
	}

	if c.TotalSupply > 0 {
		supplyRatio := c.CirculatingSupply / c.TotalSupply
		if supplyRatio > f.SupplyHealthy {
			score += d.Minor
		} else if supplyRatio < f.SupplyThin {
			score -= d.Minor
		}
	}

	if c.Change30d > 10 {
		score += d.Minor
	} else if c.Change30d < -20 {
		score -= d.Minor
	}

	// ATH proximity: trading near the high reads as extended, deep below
	// it as recovery room.
	if c.AllTimeHigh > 0 && ind.price > 0 {
		proximity := ind.price / c.AllTimeHigh
		if proximity >= 0.9 {
			score -= d.Minor
		} else if proximity <= 0.5 {
			score += d.Minor
		}
	}

	return clamp(score)
}

// classifyTrend counts directional signals. A margin of more than one
// signal in either direction decides the trend; anything tighter is
// neutral.
func (s *Scorer) classifyTrend(ind indicatorSet) (models.Trend, []string) {
	t := s.cfg.Technical
	bullish := 0
	bearish := 0
	var signals []string

	if ind.rsi < t.RSIOversold {
		bullish++
	} else if ind.rsi > t.RSIOverbought {
		bearish++
	}

	// Exactly-zero readings carry no direction and vote for neither side.
	if ind.macd.Histogram > 0 {
		bullish++
	} else if ind.macd.Histogram < 0 {
		bearish++
	}

	if ind.price >= ind.sma50 {
		bullish++
	} else {
		bearish++
	}

	if ind.momentum > 0 {
		bullish++
	} else if ind.momentum < 0 {
		bearish++
	}

	if ind.volumeMomentum > 0 {
		bullish++
	} else if ind.volumeMomentum < 0 {
		bearish++
	}

	switch {
	case bullish-bearish > 1:
		signals = append(signals, fmt.Sprintf("Bullish consensus (%d vs %d)", bullish, bearish))
		return models.TrendBullish, signals
	case bearish-bullish > 1:
		signals = append(signals, fmt.Sprintf("Bearish consensus (%d vs %d)", bearish, bullish))
		return models.TrendBearish, signals
	default:
		return models.TrendNeutral, signals
	}
}

// confidence starts at a neutral base and rewards agreement between
// independent indicator families.
func (s *Scorer) confidence(ind indicatorSet) float64 {
	conf := 50.0

	if ind.macd.Histogram > 0 && ind.rsi >= 40 && ind.rsi <= 60 {
		conf += 20
	}
	if ind.momentum > 0 && ind.volumeMomentum > 0 {
		conf += 15
	}
	if ind.sharpe > s.cfg.Volatility.SharpeGood && ind.volatility < s.cfg.Volatility.Moderate {
		conf += 15
	}

	if conf > 100 {
		conf = 100
	}
	return conf
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

func avg(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
