package calculator

import (
	"errors"
)

// ErrInsufficientData is returned when a series is shorter than an indicator's lookback.
var ErrInsufficientData = errors.New("not enough data for indicator calculation")

var errBadPeriod = errors.New("period must be positive")

// SMA computes the simple moving average of the last period prices.
func SMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errBadPeriod
	}
	if len(prices) < period {
		return 0, ErrInsufficientData
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// EMA computes an exponential moving average with multiplier 2/(period+1).
//
// The average is seeded with prices[0] and folds in every later price of the
// whole series, not an SMA of the first period values. Signals produced by
// earlier deployments depend on this seeding, so it is kept as is.
func EMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errBadPeriod
	}
	if len(prices) < period {
		return 0, ErrInsufficientData
	}
	k := 2.0 / float64(period+1)
	ema := prices[0]
	for i := 1; i < len(prices); i++ {
		ema = prices[i]*k + ema*(1-k)
	}
	return ema, nil
}
