package strategy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/th3rrry/minees/internal/model"
)

func linear(n int, start, step float64) *model.PriceSeries {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start + float64(i)*step
	}
	return &model.PriceSeries{Closes: closes}
}

// oscillating repeats 100, 101, 100, 99 so RSI stays mid-range and the
// moving averages sit on top of each other.
func oscillating(n int) *model.PriceSeries {
	cycle := []float64{100, 101, 100, 99}
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = cycle[i%len(cycle)]
	}
	return &model.PriceSeries{Closes: closes}
}

func TestEvaluate_ShortSeriesIsAbsent(t *testing.T) {
	a, ok := Evaluate(linear(MinSeriesLength-1, 100, 1))
	assert.False(t, ok)
	assert.Nil(t, a)

	_, ok = Evaluate(nil)
	assert.False(t, ok)
}

func TestEvaluate_StrictlyIncreasing(t *testing.T) {
	a, ok := Evaluate(linear(100, 100, 1))
	require.True(t, ok)

	assert.Equal(t, model.TrendBullish, a.Indicators.Trend)
	require.NotNil(t, a.Indicators.RSI)
	assert.Greater(t, *a.Indicators.RSI, 70.0)
	assert.Contains(t, a.Reasoning, "trendBullish")
	assert.Contains(t, a.Reasoning, "macdBullish:")
	assert.NotContains(t, a.Reasoning, "rsiOversold")

	// Overbought RSI offsets the bullish trend: 50 - 15 + 10 + 15.
	assert.Equal(t, 60.0, a.Score)
	assert.Equal(t, model.DirectionNeutral, a.Direction)
	assert.Equal(t, 45, a.Confidence)
}

func TestEvaluate_StrictlyDecreasing(t *testing.T) {
	a, ok := Evaluate(linear(100, 300, -1))
	require.True(t, ok)

	assert.Equal(t, "rsiOversold:0.0, macdBearish:"+tokenValue(a, "macdBearish")+", trendBearish", a.Reasoning)
	assert.Equal(t, 40.0, a.Score)
	assert.Equal(t, model.DirectionNeutral, a.Direction)
}

func TestEvaluate_FactorOrderMatchesReasoning(t *testing.T) {
	a, ok := Evaluate(linear(60, 10, 0.5))
	require.True(t, ok)

	var names []string
	for _, f := range a.Factors {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"rsiOverbought", "macdBullish", "trendBullish"}, names)
}

func TestEvaluate_NeutralConfidenceFormula(t *testing.T) {
	a, ok := Evaluate(oscillating(MinSeriesLength + 2))
	require.True(t, ok)
	require.Equal(t, model.DirectionNeutral, a.Direction)
	assert.NotContains(t, a.Reasoning, "rsi")
	assert.NotContains(t, a.Reasoning, "bollinger")
	assert.NotContains(t, a.Reasoning, "trend")

	want := int(math.Floor(50 - math.Abs(a.Score-50)*0.5 + 0.5))
	assert.Equal(t, want, a.Confidence)
}

func TestEvaluate_Deterministic(t *testing.T) {
	series := oscillating(80)
	first, ok := Evaluate(series)
	require.True(t, ok)
	for i := 0; i < 5; i++ {
		again, _ := Evaluate(series)
		assert.Equal(t, first.Direction, again.Direction)
		assert.Equal(t, first.Confidence, again.Confidence)
		assert.Equal(t, first.Reasoning, again.Reasoning)
	}
}

func TestMapScore(t *testing.T) {
	tests := []struct {
		score      float64
		direction  model.Direction
		confidence int
	}{
		{100, model.DirectionBuy, 95},
		{80, model.DirectionBuy, 83},
		{66, model.DirectionBuy, 62},
		{65, model.DirectionNeutral, 43},
		{50, model.DirectionNeutral, 50},
		{35, model.DirectionNeutral, 43},
		{34, model.DirectionSell, 62},
		{20, model.DirectionSell, 83},
		{0, model.DirectionSell, 95},
	}
	for _, tt := range tests {
		d, c := mapScore(tt.score)
		assert.Equal(t, tt.direction, d, "score %.0f", tt.score)
		assert.Equal(t, tt.confidence, c, "score %.0f", tt.score)
	}
}

func TestRoundConfidenceClamps(t *testing.T) {
	assert.Equal(t, 0, roundConfidence(-3))
	assert.Equal(t, 100, roundConfidence(140))
	assert.Equal(t, 43, roundConfidence(42.5))
}

func tokenValue(a *model.Analysis, name string) string {
	for _, f := range a.Factors {
		if f.Name == name {
			return f.Token[len(name)+1:]
		}
	}
	return ""
}
