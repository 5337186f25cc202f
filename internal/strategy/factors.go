package strategy

import (
	"fmt"

	"github.com/th3rrry/minees/internal/model"
)

// Score adjustments per factor.
const (
	rsiWeight       = 15
	macdWeight      = 10
	bollingerWeight = 10
	trendWeight     = 15

	rsiOversold   = 30.0
	rsiOverbought = 70.0
)

// scoreRSI: oversold pushes toward BUY, overbought toward SELL.
func scoreRSI(ind model.IndicatorSet) (model.Factor, bool) {
	if ind.RSI == nil {
		return model.Factor{}, false
	}
	rsi := *ind.RSI
	switch {
	case rsi < rsiOversold:
		return factor("rsiOversold", rsi, rsiWeight, fmt.Sprintf("rsiOversold:%.1f", rsi)), true
	case rsi > rsiOverbought:
		return factor("rsiOverbought", rsi, -rsiWeight, fmt.Sprintf("rsiOverbought:%.1f", rsi)), true
	}
	return model.Factor{}, false
}

// scoreMACD always fires when the MACD line is present; zero counts as bearish.
func scoreMACD(ind model.IndicatorSet) (model.Factor, bool) {
	if ind.MACD == nil {
		return model.Factor{}, false
	}
	macd := *ind.MACD
	if macd > 0 {
		return factor("macdBullish", macd, macdWeight, fmt.Sprintf("macdBullish:%.4f", macd)), true
	}
	return factor("macdBearish", macd, -macdWeight, fmt.Sprintf("macdBearish:%.4f", macd)), true
}

// scoreBollinger: a close outside the bands is read as mean-reverting.
func scoreBollinger(ind model.IndicatorSet, price float64) (model.Factor, bool) {
	if ind.Bollinger == nil {
		return model.Factor{}, false
	}
	switch {
	case price > ind.Bollinger.Upper:
		return factor("bollingerUpper", price, -bollingerWeight, fmt.Sprintf("bollingerUpper:%.4f", price)), true
	case price < ind.Bollinger.Lower:
		return factor("bollingerLower", price, bollingerWeight, fmt.Sprintf("bollingerLower:%.4f", price)), true
	}
	return model.Factor{}, false
}

func scoreTrend(ind model.IndicatorSet) (model.Factor, bool) {
	switch ind.Trend {
	case model.TrendBullish:
		return factor("trendBullish", 1, trendWeight, "trendBullish"), true
	case model.TrendBearish:
		return factor("trendBearish", -1, -trendWeight, "trendBearish"), true
	}
	return model.Factor{}, false
}

func factor(name string, value float64, delta int, token string) model.Factor {
	return model.Factor{Name: name, Value: value, Delta: delta, Token: token}
}
