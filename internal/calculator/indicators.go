package calculator

import "github.com/th3rrry/minees/internal/model"

// Compute derives the full IndicatorSet from a close series with default periods.
func Compute(prices []float64) model.IndicatorSet {
	set := model.IndicatorSet{Trend: Trend(prices)}
	if v, err := RSI(prices, DefaultRSIPeriod); err == nil {
		set.RSI = &v
	}
	if v, err := MACD(prices, DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal); err == nil {
		set.MACD = &v
	}
	if bb, err := BollingerBands(prices, DefaultBollingerPeriod, DefaultBollingerStdDev); err == nil {
		set.Bollinger = &bb
	}
	if v, err := SMA(prices, 20); err == nil {
		set.SMA20 = &v
	}
	if v, err := SMA(prices, 50); err == nil {
		set.SMA50 = &v
	}
	return set
}
