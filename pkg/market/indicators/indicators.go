package indicators

import "math"

const (
	// EMAPeriod and RSIPeriod are measured in sparkline samples (hours).
	EMAPeriod = 24
	RSIPeriod = 14
)

// Trend summarises a price series such as a 7 day sparkline.
// EMA and RSI are NaN when the series is shorter than their period.
type Trend struct {
	Change     float64 // percent change from first to last sample
	EMA        float64 // last value of EMA(EMAPeriod)
	RSI        float64 // last value of RSI(RSIPeriod)
	Volatility float64 // standard deviation of sample-to-sample returns, percent
}

// Summarize computes a Trend for prices. It reports false when fewer than two
// samples are available or the first sample is not positive.
func Summarize(prices []float64) (Trend, bool) {
	if len(prices) < 2 || prices[0] <= 0 {
		return Trend{}, false
	}
	last := len(prices) - 1
	return Trend{
		Change:     (prices[last] - prices[0]) / prices[0] * 100,
		EMA:        lastOf(EMA(prices, EMAPeriod)),
		RSI:        lastOf(RSI(prices, RSIPeriod)),
		Volatility: volatility(prices),
	}, true
}

// EMA produces the exponential moving average for the supplied prices. It is
// seeded with the simple average of the first period samples; earlier entries
// are NaN.
func EMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) == 0 {
		return []float64{}
	}
	out := nanSeries(len(prices))
	if len(prices) < period {
		return out
	}

	sum := 0.0
	for _, p := range prices[:period] {
		sum += p
	}
	out[period-1] = sum / float64(period)

	k := 2.0 / float64(period+1)
	for i := period; i < len(prices); i++ {
		out[i] = (prices[i]-out[i-1])*k + out[i-1]
	}
	return out
}

// RSI computes Wilder's Relative Strength Index across the supplied prices.
func RSI(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) == 0 {
		return []float64{}
	}
	out := nanSeries(len(prices))
	if len(prices) <= period {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		gain, loss := split(prices[i] - prices[i-1])
		avgGain += gain
		avgLoss += loss
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = strength(avgGain, avgLoss)

	n := float64(period)
	for i := period + 1; i < len(prices); i++ {
		gain, loss := split(prices[i] - prices[i-1])
		avgGain = (avgGain*(n-1) + gain) / n
		avgLoss = (avgLoss*(n-1) + loss) / n
		out[i] = strength(avgGain, avgLoss)
	}
	return out
}

func volatility(prices []float64) float64 {
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		returns = append(returns, (prices[i]-prices[i-1])/prices[i-1]*100)
	}
	if len(returns) == 0 {
		return 0
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))
	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	return math.Sqrt(variance / float64(len(returns)))
}

func split(change float64) (gain, loss float64) {
	if change > 0 {
		return change, 0
	}
	return 0, -change
}

func strength(avgGain, avgLoss float64) float64 {
	switch {
	case avgLoss == 0 && avgGain == 0:
		return 50
	case avgLoss == 0:
		return 100
	case avgGain == 0:
		return 0
	}
	return 100 - 100/(1+avgGain/avgLoss)
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func lastOf(series []float64) float64 {
	if len(series) == 0 {
		return math.NaN()
	}
	return series[len(series)-1]
}
