package calculator

import (
	"math"

	"github.com/th3rrry/minees/internal/model"
)

// Bollinger band defaults.
const (
	DefaultBollingerPeriod = 20
	DefaultBollingerStdDev = 2.0
)

// BollingerBands computes middle = SMA(period) and upper/lower at
// stdDevMultiplier population standard deviations of the last period prices.
func BollingerBands(prices []float64, period int, stdDevMultiplier float64) (model.Bollinger, error) {
	middle, err := SMA(prices, period)
	if err != nil {
		return model.Bollinger{}, err
	}
	variance := 0.0
	for _, p := range prices[len(prices)-period:] {
		d := p - middle
		variance += d * d
	}
	variance /= float64(period)
	band := stdDevMultiplier * math.Sqrt(variance)
	return model.Bollinger{
		Upper:  middle + band,
		Middle: middle,
		Lower:  middle - band,
	}, nil
}
