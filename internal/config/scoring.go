// Package config holds the versioned scoring configuration: component
// weights, score deltas, tier boundaries, and the risk/reward factor
// weights. Everything the scorers treat as a tunable lives here so a run
// is reproducible from one named config object.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const weightSumTolerance = 0.001

// ScoringConfig is the full tunable surface of the scoring engine.
type ScoringConfig struct {
	Version     string                `yaml:"version"`
	Weights     ComponentWeights      `yaml:"weights"`
	Deltas      ScoreDeltas           `yaml:"deltas"`
	Technical   TechnicalThresholds   `yaml:"technical"`
	Momentum    MomentumThresholds    `yaml:"momentum"`
	Volume      VolumeThresholds      `yaml:"volume"`
	Volatility  VolatilityThresholds  `yaml:"volatility"`
	Fundamental FundamentalThresholds `yaml:"fundamental"`
	RiskReward  RiskRewardWeights     `yaml:"risk_reward"`
}

// ComponentWeights blend the five component scores into the total score.
// They must sum to 1.0 within tolerance.
type ComponentWeights struct {
	Technical   float64 `yaml:"technical"`
	Momentum    float64 `yaml:"momentum"`
	Volume      float64 `yaml:"volume"`
	Volatility  float64 `yaml:"volatility"`
	Fundamental float64 `yaml:"fundamental"`
}

// Sum returns the total of all component weights.
func (w ComponentWeights) Sum() float64 {
	return w.Technical + w.Momentum + w.Volume + w.Volatility + w.Fundamental
}

// ScoreDeltas are the named step sizes component scores move by.
type ScoreDeltas struct {
	Major    float64 `yaml:"major"`
	Standard float64 `yaml:"standard"`
	Minor    float64 `yaml:"minor"`
	Slight   float64 `yaml:"slight"`
}

// TechnicalThresholds gate the technical component deltas.
type TechnicalThresholds struct {
	RSIOversold     float64 `yaml:"rsi_oversold"`
	RSIOverbought   float64 `yaml:"rsi_overbought"`
	VolumeRatioHigh float64 `yaml:"volume_ratio_high"`
	VolumeRatioLow  float64 `yaml:"volume_ratio_low"`
}

// MomentumThresholds gate the momentum component deltas.
type MomentumThresholds struct {
	Strong         float64 `yaml:"strong"`
	Weak           float64 `yaml:"weak"`
	TrendStrength  float64 `yaml:"trend_strength"`
	VolumeMomentum float64 `yaml:"volume_momentum"`
}

// VolumeThresholds gate the volume component by 24h turnover
// (volume/marketCap).
type VolumeThresholds struct {
	TurnoverHigh float64 `yaml:"turnover_high"`
	TurnoverMid  float64 `yaml:"turnover_mid"`
	TurnoverLow  float64 `yaml:"turnover_low"`
}

// VolatilityThresholds gate the volatility component. The component
// prefers moderate risk: calm and moderate bands score up, elevated and
// extreme bands score down.
type VolatilityThresholds struct {
	Calm            float64 `yaml:"calm"`
	Moderate        float64 `yaml:"moderate"`
	Elevated        float64 `yaml:"elevated"`
	Extreme         float64 `yaml:"extreme"`
	SharpeStrong    float64 `yaml:"sharpe_strong"`
	SharpeGood      float64 `yaml:"sharpe_good"`
	DrawdownShallow float64 `yaml:"drawdown_shallow"`
	DrawdownDeep    float64 `yaml:"drawdown_deep"`
}

// FundamentalThresholds gate the fundamental component.
type FundamentalThresholds struct {
	SweetSpotLow     float64 `yaml:"sweet_spot_low"`
	SweetSpotHigh    float64 `yaml:"sweet_spot_high"`
	EstablishedFloor float64 `yaml:"established_floor"`
	MicroCap         float64 `yaml:"micro_cap"`
	SupplyHealthy    float64 `yaml:"supply_healthy"`
	SupplyThin       float64 `yaml:"supply_thin"`
}

// RiskRewardWeights are the factor weights of the risk/reward evaluator.
// Each map must sum to 1.0 within tolerance.
type RiskRewardWeights struct {
	Risk   map[string]float64 `yaml:"risk"`
	Reward map[string]float64 `yaml:"reward"`
}

// Default returns the v1 scoring configuration.
func Default() *ScoringConfig {
	return &ScoringConfig{
		Version: "v1",
		Weights: ComponentWeights{
			Technical:   0.30,
			Momentum:    0.25,
			Volume:      0.15,
			Volatility:  0.15,
			Fundamental: 0.15,
		},
		Deltas: ScoreDeltas{
			Major:    20,
			Standard: 15,
			Minor:    10,
			Slight:   5,
		},
		Technical: TechnicalThresholds{
			RSIOversold:     30,
			RSIOverbought:   70,
			VolumeRatioHigh: 1.5,
			VolumeRatioLow:  0.5,
		},
		Momentum: MomentumThresholds{
			Strong:         10,
			Weak:           -10,
			TrendStrength:  5,
			VolumeMomentum: 20,
		},
		Volume: VolumeThresholds{
			TurnoverHigh: 0.10,
			TurnoverMid:  0.05,
			TurnoverLow:  0.01,
		},
		Volatility: VolatilityThresholds{
			Calm:            30,
			Moderate:        50,
			Elevated:        70,
			Extreme:         100,
			SharpeStrong:    2,
			SharpeGood:      1,
			DrawdownShallow: 20,
			DrawdownDeep:    50,
		},
		Fundamental: FundamentalThresholds{
			SweetSpotLow:     1e9,
			SweetSpotHigh:    1e11,
			EstablishedFloor: 1e8,
			MicroCap:         1e7,
			SupplyHealthy:    0.7,
			SupplyThin:       0.3,
		},
		RiskReward: RiskRewardWeights{
			Risk: map[string]float64{
				"volatility":     0.25,
				"market_cap":     0.20,
				"liquidity":      0.15,
				"age":            0.10,
				"development":    0.10,
				"centralization": 0.08,
				"regulatory":     0.07,
				"technical":      0.05,
			},
			Reward: map[string]float64{
				"growth":       0.20,
				"adoption":     0.18,
				"innovation":   0.15,
				"utility":      0.12,
				"partnerships": 0.10,
				"community":    0.10,
				"tokenomics":   0.15,
			},
		},
	}
}

// LoadDefault returns the built-in configuration after validation.
func LoadDefault() (*ScoringConfig, error) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("default scoring config invalid: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads and validates a scoring configuration from YAML.
func LoadFromFile(path string) (*ScoringConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scoring config %s: %w", path, err)
	}

	var cfg ScoringConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse scoring config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scoring config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks weight sums and ordering constraints.
func (c *ScoringConfig) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("scoring config missing version")
	}

	if sum := c.Weights.Sum(); math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("component weights sum to %.4f, expected 1.0 ± %.3f", sum, weightSumTolerance)
	}

	if err := validateWeightMap("risk", c.RiskReward.Risk); err != nil {
		return err
	}
	if err := validateWeightMap("reward", c.RiskReward.Reward); err != nil {
		return err
	}

	if c.Technical.RSIOversold >= c.Technical.RSIOverbought {
		return fmt.Errorf("rsi_oversold (%.1f) must be below rsi_overbought (%.1f)",
			c.Technical.RSIOversold, c.Technical.RSIOverbought)
	}
	if c.Volatility.Calm >= c.Volatility.Moderate || c.Volatility.Elevated >= c.Volatility.Extreme {
		return fmt.Errorf("volatility bands must be strictly increasing")
	}

	for name, d := range map[string]float64{
		"major": c.Deltas.Major, "standard": c.Deltas.Standard,
		"minor": c.Deltas.Minor, "slight": c.Deltas.Slight,
	} {
		if d <= 0 {
			return fmt.Errorf("delta %s must be positive, got %.1f", name, d)
		}
	}

	return nil
}

func validateWeightMap(name string, weights map[string]float64) error {
	if len(weights) == 0 {
		return fmt.Errorf("%s weights missing", name)
	}

	sum := 0.0
	for factor, w := range weights {
		if w < 0 {
			return fmt.Errorf("%s weight for %s is negative: %.3f", name, factor, w)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("%s weights sum to %.4f, expected 1.0 ± %.3f", name, sum, weightSumTolerance)
	}
	return nil
}

// DefaultConfigPath is where the shipped scoring defaults live.
func DefaultConfigPath() string {
	return filepath.Join("config", "scoring.yaml")
}
