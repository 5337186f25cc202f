package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/th3rrry/minees/internal/model"
)

func linear(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestSMA_ConstantSeries(t *testing.T) {
	prices := constant(30, 42.5)
	for _, n := range []int{1, 5, 20, 30} {
		got, err := SMA(prices, n)
		require.NoError(t, err)
		assert.InDelta(t, 42.5, got, 1e-12, "period %d", n)
	}
}

func TestSMA_LastWindowOnly(t *testing.T) {
	got, err := SMA([]float64{100, 1, 2, 3}, 3)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, got, 1e-12)
}

func TestSMA_Insufficient(t *testing.T) {
	_, err := SMA([]float64{1, 2}, 3)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = SMA([]float64{1, 2}, 0)
	assert.Error(t, err)
}

func TestEMA_SeedsFromFirstValue(t *testing.T) {
	// k = 2/3: 1 -> 5/3 -> 3*2/3 + 5/9
	got, err := EMA([]float64{1, 2, 3}, 2)
	require.NoError(t, err)
	assert.InDelta(t, 2.0+5.0/9.0, got, 1e-12)

	_, err = EMA([]float64{1}, 2)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestRSI(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		period int
		want   float64
	}{
		{"all gains", linear(30, 10, 1), 14, 100},
		{"flat series has no loss", constant(20, 5), 14, 100},
		{"symmetric swing", []float64{1, 2, 1}, 2, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RSI(tt.prices, tt.period)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestRSI_AllLossesIsZero(t *testing.T) {
	got, err := RSI(linear(30, 100, -1), 14)
	require.NoError(t, err)
	assert.InDelta(t, 0, got, 1e-9)
}

func TestRSI_Bounds(t *testing.T) {
	prices := make([]float64, 200)
	for i := range prices {
		prices[i] = 100 + 10*math.Sin(float64(i)/3) + float64(i%7)
	}
	for end := 15; end <= len(prices); end += 5 {
		got, err := RSI(prices[:end], 14)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 100.0)
	}
}

func TestRSI_NeedsPeriodPlusOne(t *testing.T) {
	_, err := RSI(linear(14, 1, 1), 14)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = RSI(linear(15, 1, 1), 14)
	assert.NoError(t, err)
}

func TestMACD(t *testing.T) {
	_, err := MACD(linear(25, 1, 1), 12, 26, 9)
	assert.ErrorIs(t, err, ErrInsufficientData)

	up, err := MACD(linear(60, 1, 1), 12, 26, 9)
	require.NoError(t, err)
	assert.Greater(t, up, 0.0)

	down, err := MACD(linear(60, 100, -1), 12, 26, 9)
	require.NoError(t, err)
	assert.Less(t, down, 0.0)
}

func TestBollingerBands_Ordering(t *testing.T) {
	prices := []float64{10, 12, 11, 13, 9, 14, 10, 12, 11, 15, 8, 13, 12, 11, 10, 14, 9, 12, 13, 11}
	bb, err := BollingerBands(prices, 20, 2)
	require.NoError(t, err)
	assert.Greater(t, bb.Upper, bb.Middle)
	assert.Greater(t, bb.Middle, bb.Lower)
	assert.InDelta(t, bb.Upper-bb.Middle, bb.Middle-bb.Lower, 1e-9)
}

func TestBollingerBands_PopulationStdDev(t *testing.T) {
	// mean 2, population variance 2/3
	bb, err := BollingerBands([]float64{1, 2, 3}, 3, 1)
	require.NoError(t, err)
	assert.InDelta(t, 2+math.Sqrt(2.0/3.0), bb.Upper, 1e-12)
}

func TestBollingerBands_Constant(t *testing.T) {
	bb, err := BollingerBands(append(linear(10, 1, 1), constant(20, 7)...), 20, 2)
	require.NoError(t, err)
	assert.Equal(t, model.Bollinger{Upper: 7, Middle: 7, Lower: 7}, bb)
}

func TestStochasticK(t *testing.T) {
	highs := linear(14, 11, 1)
	lows := linear(14, 9, 1)
	closes := linear(14, 10, 1)
	// range 9..24, last close 23
	k, err := StochasticK(highs, lows, closes, 14)
	require.NoError(t, err)
	assert.InDelta(t, (23.0-9.0)/(24.0-9.0)*100, k, 1e-9)

	_, err = StochasticK(highs[:5], lows[:5], closes[:5], 14)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = StochasticK(constant(14, 1), constant(14, 1), constant(14, 1), 14)
	assert.Error(t, err)
}

func TestTrend(t *testing.T) {
	assert.Equal(t, model.TrendBullish, Trend(linear(60, 1, 1)))
	assert.Equal(t, model.TrendBearish, Trend(linear(60, 100, -1)))
	assert.Equal(t, model.TrendNeutral, Trend(constant(60, 3)))
	assert.Equal(t, model.TrendNeutral, Trend(linear(49, 1, 1)))
}

func TestCompute(t *testing.T) {
	set := Compute(linear(100, 1, 1))
	require.NotNil(t, set.RSI)
	require.NotNil(t, set.MACD)
	require.NotNil(t, set.Bollinger)
	require.NotNil(t, set.SMA20)
	require.NotNil(t, set.SMA50)
	assert.Equal(t, model.TrendBullish, set.Trend)

	short := Compute(linear(10, 1, 1))
	assert.Nil(t, short.RSI)
	assert.Nil(t, short.MACD)
	assert.Nil(t, short.Bollinger)
	assert.Equal(t, model.TrendNeutral, short.Trend)
}
