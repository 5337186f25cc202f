package strategy

import (
	"math"
	"strings"

	"github.com/th3rrry/minees/internal/calculator"
	"github.com/th3rrry/minees/internal/model"
)

// MinSeriesLength is the shortest close series the scorer accepts.
const MinSeriesLength = 50

const (
	baselineScore = 50.0
	buyThreshold  = 65.0
	sellThreshold = 35.0
	maxConfidence = 95.0
)

// Evaluate scores a price series. It returns false when the series is shorter
// than MinSeriesLength; the caller picks its own fallback in that case.
//
// Factors are evaluated in the order RSI, MACD, Bollinger, Trend and the
// reasoning trail keeps that order.
func Evaluate(series *model.PriceSeries) (*model.Analysis, bool) {
	if series.Len() < MinSeriesLength {
		return nil, false
	}
	ind := calculator.Compute(series.Closes)
	price := series.Last()

	score := baselineScore
	var factors []model.Factor
	add := func(f model.Factor, ok bool) {
		if !ok {
			return
		}
		score += float64(f.Delta)
		factors = append(factors, f)
	}
	add(scoreRSI(ind))
	add(scoreMACD(ind))
	add(scoreBollinger(ind, price))
	add(scoreTrend(ind))

	direction, confidence := mapScore(score)

	tokens := make([]string, len(factors))
	for i, f := range factors {
		tokens[i] = f.Token
	}

	return &model.Analysis{
		Direction:  direction,
		Confidence: confidence,
		Score:      score,
		Factors:    factors,
		Reasoning:  strings.Join(tokens, ", "),
		Indicators: ind,
	}, true
}

// mapScore maps a raw score to a direction and an integer confidence.
func mapScore(score float64) (model.Direction, int) {
	switch {
	case score > buyThreshold:
		return model.DirectionBuy, roundConfidence(math.Min(maxConfidence, 60+(score-buyThreshold)*1.5))
	case score < sellThreshold:
		return model.DirectionSell, roundConfidence(math.Min(maxConfidence, 60+(sellThreshold-score)*1.5))
	default:
		return model.DirectionNeutral, roundConfidence(50 - math.Abs(score-baselineScore)*0.5)
	}
}

// roundConfidence rounds half up and clamps to [0, 100].
func roundConfidence(c float64) int {
	r := int(math.Floor(c + 0.5))
	if r < 0 {
		return 0
	}
	if r > 100 {
		return 100
	}
	return r
}
