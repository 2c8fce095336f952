package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var closes = []float64{100, 101, 102, 103, 105, 107, 106, 108, 110, 111, 112, 115, 117, 119, 118, 120, 121, 123, 125, 124, 126, 127, 129, 130, 132, 133, 134, 135, 136, 138, 139, 141, 140, 142, 144, 143, 145, 147, 149, 148, 150, 151, 149, 148, 150, 152, 151, 153, 154, 156, 155, 157, 158, 160, 161, 159, 158, 157, 159, 160}

func TestEMA(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6}
	result := EMA(data, 3)
	require.Len(t, result, len(data))
	require.True(t, math.IsNaN(result[0]))
	require.True(t, math.IsNaN(result[1]))
	require.InDelta(t, 2.0, result[2], 1e-9)
	require.InDelta(t, 3.0, result[3], 1e-9)
	require.InDelta(t, 5.0, result[5], 1e-9)

	assert.Empty(t, EMA(nil, 3))
	assert.True(t, math.IsNaN(EMA([]float64{1}, 3)[0]))
}

func TestRSI(t *testing.T) {
	rsi := RSI(closes, 14)
	require.Len(t, rsi, len(closes))
	require.InDelta(t, 73.084185, rsi[len(rsi)-1], 1e-6)

	flat := RSI([]float64{5, 5, 5, 5}, 2)
	assert.Equal(t, 50.0, flat[3])
}

func TestSummarize(t *testing.T) {
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = float64(100 + i)
	}

	trend, ok := Summarize(prices)
	require.True(t, ok)
	assert.InDelta(t, 29.0, trend.Change, 1e-9)
	assert.InDelta(t, 117.5, trend.EMA, 1e-9)
	assert.Equal(t, 100.0, trend.RSI)
	assert.Greater(t, trend.Volatility, 0.0)

	short, ok := Summarize([]float64{10, 9})
	require.True(t, ok)
	assert.InDelta(t, -10.0, short.Change, 1e-9)
	assert.True(t, math.IsNaN(short.EMA))
	assert.True(t, math.IsNaN(short.RSI))
	assert.Zero(t, short.Volatility)

	_, ok = Summarize([]float64{1})
	assert.False(t, ok)
	_, ok = Summarize([]float64{0, 1})
	assert.False(t, ok)
}
