package calculator

import "github.com/th3rrry/minees/internal/model"

// Trend votes price vs SMA20, price vs SMA50 and SMA20 vs SMA50.
// A sum of 2 or more is bullish, -2 or less bearish. Series shorter than 50
// are neutral.
func Trend(prices []float64) model.Trend {
	sma20, err20 := SMA(prices, 20)
	sma50, err50 := SMA(prices, 50)
	if err20 != nil || err50 != nil {
		return model.TrendNeutral
	}
	price := prices[len(prices)-1]

	score := vote(price, sma20) + vote(price, sma50) + vote(sma20, sma50)
	switch {
	case score >= 2:
		return model.TrendBullish
	case score <= -2:
		return model.TrendBearish
	default:
		return model.TrendNeutral
	}
}

func vote(a, b float64) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	}
	return 0
}
