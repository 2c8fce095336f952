package display

import "fmt"

// ChartPoint is one sample of the 7 day price chart.
type ChartPoint struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

// SparklineSeries turns hourly price samples, oldest first, into labelled
// chart points. Labels count back from the newest sample, not forward from
// index 0, so the last sample is "0 days 0 hours ago".
func SparklineSeries(prices []float64) []ChartPoint {
	points := make([]ChartPoint, len(prices))
	for i, p := range prices {
		points[i] = ChartPoint{Index: i, Value: p, Label: hoursAgoLabel(len(prices) - 1 - i)}
	}
	return points
}

func hoursAgoLabel(h int) string {
	return fmt.Sprintf("%d days %d hours ago", h/24, h%24)
}

// Domain returns the y-axis bounds of the series.
func Domain(prices []float64) (min, max float64, ok bool) {
	if len(prices) == 0 {
		return 0, 0, false
	}
	min, max = prices[0], prices[0]
	for _, p := range prices[1:] {
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}
	return min, max, true
}
