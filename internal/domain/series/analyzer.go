// Package series provides pure, stateless indicator math over ordered
// price/volume history. Every function tolerates short input by returning a
// documented neutral default instead of failing; callers that care about
// data sufficiency check series length themselves.
package series

import "math"

// RSI computes a Wilder-style Relative Strength Index over the last
// `period` closes. Returns the neutral 50 when fewer than period+1 points
// are available. Output is bounded to [0,100].
func RSI(prices []float64, period int) float64 {
	if len(prices) < period+1 {
		return 50.0
	}

	window := prices[len(prices)-period-1:]
	gains := 0.0
	losses := 0.0
	for i := 1; i < len(window); i++ {
		change := window[i] - window[i-1]
		if change > 0 {
			gains += change
		} else {
			losses += -change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50.0 // flat window has no directional information
		}
		return 100.0
	}

	rs := avgGain / avgLoss
	rsi := 100.0 - (100.0 / (1.0 + rs))
	return clamp(rsi, 0, 100)
}

// MACDResult carries the MACD line, its signal line, and the histogram.
type MACDResult struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// MACD computes EMA(12) − EMA(26). The signal line is approximated as
// macd×0.9 rather than a true 9-period EMA of the MACD series; the
// histogram is macd − signal. The approximation is intentional and keeps
// the function single-pass over one series.
func MACD(prices []float64) MACDResult {
	macd := EMA(prices, 12) - EMA(prices, 26)
	signal := macd * 0.9
	return MACDResult{
		MACD:      macd,
		Signal:    signal,
		Histogram: macd - signal,
	}
}

// SMA computes the simple moving average of the last `period` points.
// Returns the last price when history is shorter than `period`, 0 when the
// series is empty.
func SMA(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if len(prices) < period {
		return prices[len(prices)-1]
	}

	sum := 0.0
	for _, p := range prices[len(prices)-period:] {
		sum += p
	}
	return sum / float64(period)
}

// EMA computes the exponential moving average with smoothing factor
// 2/(period+1), seeded by the SMA of the first `period` points. Returns
// the last price when history is shorter than `period`, 0 when empty.
func EMA(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if len(prices) < period {
		return prices[len(prices)-1]
	}

	seed := 0.0
	for _, p := range prices[:period] {
		seed += p
	}
	ema := seed / float64(period)

	k := 2.0 / (float64(period) + 1.0)
	for _, p := range prices[period:] {
		ema = p*k + ema*(1.0-k)
	}
	return ema
}

// BollingerResult carries the three bands and the band width in percent.
type BollingerResult struct {
	Upper  float64
	Middle float64
	Lower  float64
	Width  float64
}

// Bollinger computes 20-period Bollinger bands: middle = SMA(20), bands at
// ±2 standard deviations of the last 20 closes. Width is
// (upper−lower)/middle×100, 0 when the middle is 0.
func Bollinger(prices []float64, period int) BollingerResult {
	middle := SMA(prices, period)

	window := prices
	if len(prices) > period {
		window = prices[len(prices)-period:]
	}
	sd := stdDev(window)

	upper := middle + 2*sd
	lower := middle - 2*sd

	width := 0.0
	if middle != 0 {
		width = (upper - lower) / middle * 100
	}

	return BollingerResult{Upper: upper, Middle: middle, Lower: lower, Width: width}
}

// ATR approximates the average true range from close-to-close deltas over
// the last `period` samples. Without a distinct high/low feed the true
// range collapses to |closeₜ − closeₜ₋₁|; this understates gappy bars and
// is a documented limitation. Returns 0 with fewer than 2 points.
func ATR(prices []float64, period int) float64 {
	if len(prices) < 2 {
		return 0
	}

	deltas := make([]float64, 0, period)
	for i := len(prices) - 1; i > 0 && len(deltas) < period; i-- {
		deltas = append(deltas, math.Abs(prices[i]-prices[i-1]))
	}

	sum := 0.0
	for _, d := range deltas {
		sum += d
	}
	return sum / float64(len(deltas))
}

/// OBV computes cumulative on-balance volume starting at 0: +volume on up
// days, −volume on down days, unchanged on flat days.
func OBV(prices, volumes []float64) float64 {
	n := len(prices)
	if len(volumes) < n {
		n = len(volumes)
	}

	obv := 0.0
	for i := 1; i < n; i++ {
		switch {
		case prices[i] > prices[i-1]:
			obv += volumes[i]
		case prices[i] < prices[i-1]:
			obv -= volumes[i]
		}
	}
	return obv
}

// VolumeRatio compares the average of the last 5 volumes against the
// average of the 15 before them. Defaults to 1 with fewer than 20 points
// or a zero baseline.
func VolumeRatio(volumes []float64) float64 {
	if len(volumes) < 20 {
		return 1.0
	}

	recent := mean(volumes[len(volumes)-5:])
	prior := mean(volumes[len(volumes)-20 : len(volumes)-5])
	if prior == 0 {
		return 1.0
	}
	return recent / prior
}

// Momentum computes the rate of change in percent versus the price
// `period` bars back. Returns 0 with insufficient history or a zero base.
func Momentum(prices []float64, period int) float64 {
	if len(prices) < period+1 {
		return 0
	}

	base := prices[len(prices)-1-period]
	if base == 0 {
		return 0
	}
	return (prices[len(prices)-1] - base) / base * 100
}

// Velocity is the mean of the last 4 period-over-period percent changes.
// Returns 0 with fewer than 5 points.
func Velocity(prices []float64) float64 {
	if len(prices) < 5 {
		return 0
	}

	sum := 0.0
	count := 0
	for i := len(prices) - 4; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		sum += (prices[i] - prices[i-1]) / prices[i-1] * 100
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// TrendStrength is the percent deviation of the latest price from SMA(20).
func TrendStrength(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}

	sma := SMA(prices, 20)
	if sma == 0 {
		return 0
	}
	return (prices[len(prices)-1] - sma) / sma * 100
}

// VolumeMomentum is the percent change of the last-5-volume average versus
// the average of the 5 before them. Returns 0 with fewer than 10 points.
func VolumeMomentum(volumes []float64) float64 {
	if len(volumes) < 10 {
		return 0
	}

	recent := mean(volumes[len(volumes)-5:])
	prior := mean(volumes[len(volumes)-10 : len(volumes)-5])
	if prior == 0 {
		return 0
	}
	return (recent - prior) / prior * 100
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stdDev is the sample standard deviation; 0 with fewer than 2 points.
func stdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}

	m := mean(xs)
	variance := 0.0
	for _, x := range xs {
		variance += (x - m) * (x - m)
	}
	variance /= float64(len(xs) - 1)
	return math.Sqrt(variance)
}
