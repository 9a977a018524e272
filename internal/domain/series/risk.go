package series

import (
	"math"
	"sort"
)

// Fixed daily risk-free rate used by the Sharpe computation: 2% annual.
const dailyRiskFreeRate = 0.02 / 365.0

// dailyReturns computes simple day-over-day returns, skipping zero bases.
func dailyReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
	}
	return returns
}

// Volatility30d is the standard deviation of daily returns over the last
// 30 points, annualized by √365 and scaled to percent. Returns 0 with
// fewer than 3 points.
func Volatility30d(prices []float64) float64 {
	window := prices
	if len(prices) > 30 {
		window = prices[len(prices)-30:]
	}

	returns := dailyReturns(window)
	if len(returns) < 2 {
		return 0
	}
	return stdDev(returns) * math.Sqrt(365) * 100
}

// SharpeRatio is the mean excess daily return over its standard deviation,
// annualized by √365. A flat series has zero return dispersion and yields
// exactly 0 rather than dividing by zero.
func SharpeRatio(prices []float64) float64 {
	returns := dailyReturns(prices)
	if len(returns) < 2 {
		return 0
	}

	excess := make([]float64, len(returns))
	for i, r := range returns {
		excess[i] = r - dailyRiskFreeRate
	}

	sd := stdDev(excess)
	if sd == 0 {
		return 0
	}
	return mean(excess) / sd * math.Sqrt(365)
}

// MaxDrawdown is the largest peak-to-trough percent decline across the
// whole series, returned as a non-negative percentage.
func MaxDrawdown(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}

	peak := prices[0]
	maxDD := 0.0
	for _, p := range prices[1:] {
		if p > peak {
			peak = p
			continue
		}
		if peak > 0 {
			dd := (peak - p) / peak * 100
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// Beta approximates market beta as Volatility30d/20. This is a volatility
// proxy, not a covariance against a market index; there is no benchmark
// series in the data feed.
func Beta(prices []float64) float64 {
	return Volatility30d(prices) / 20.0
}

// DownsideDeviation is the standard deviation of negative daily returns
// only, annualized by √365 and scaled to percent. Returns 0 when fewer
// than 2 down days exist.
func DownsideDeviation(prices []float64) float64 {
	returns := dailyReturns(prices)

	negative := make([]float64, 0, len(returns))
	for _, r := range returns {
		if r < 0 {
			negative = append(negative, r)
		}
	}
	if len(negative) < 2 {
		return 0
	}
	return stdDev(negative) * math.Sqrt(365) * 100
}

// ValueAtRisk95 is the absolute value of the 5th-percentile historical
// daily return, in percent. Always non-negative; 0 with fewer than 2
// points.
func ValueAtRisk95(prices []float64) float64 {
	returns := dailyReturns(prices)
	if len(returns) == 0 {
		return 0
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	idx := int(float64(len(sorted)) * 0.05)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return math.Abs(sorted[idx]) * 100
}
