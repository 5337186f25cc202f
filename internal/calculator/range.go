package calculator

import (
	"errors"
	"math"
)

// DefaultStochasticPeriod is the standard %K lookback.
const DefaultStochasticPeriod = 14

// windowRange scans the most recent n highs and lows and returns the extremes.
func windowRange(highs, lows []float64, n int) (high, low float64, err error) {
	if len(highs) == 0 || len(lows) == 0 {
		return 0, 0, errors.New("no highs or lows provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := max(0, len(highs)-n); i < len(highs); i++ {
		if highs[i] > high {
			high = highs[i]
		}
	}
	for i := max(0, len(lows)-n); i < len(lows); i++ {
		if lows[i] < low {
			low = lows[i]
		}
	}
	return high, low, nil
}

// StochasticK computes %K = (lastClose - lowestLow) / (highestHigh - lowestLow) * 100
// over the last kPeriod bars. %D is not computed.
func StochasticK(highs, lows, closes []float64, kPeriod int) (float64, error) {
	if kPeriod <= 0 {
		return 0, errBadPeriod
	}
	if len(highs) < kPeriod || len(lows) < kPeriod || len(closes) == 0 {
		return 0, ErrInsufficientData
	}
	high, low, err := windowRange(highs, lows, kPeriod)
	if err != nil {
		return 0, err
	}
	if high == low {
		return 0, errors.New("flat high/low range")
	}
	return (closes[len(closes)-1] - low) / (high - low) * 100, nil
}
