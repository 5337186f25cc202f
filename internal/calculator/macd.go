package calculator

// MACD periods used by the scorer.
const (
	DefaultMACDFast   = 12
	DefaultMACDSlow   = 26
	DefaultMACDSignal = 9
)

// MACD returns the MACD line, EMA(fast) - EMA(slow).
// The signal line and histogram are not computed; signalPeriod is accepted
// for call-site symmetry only.
func MACD(prices []float64, fast, slow, signalPeriod int) (float64, error) {
	_ = signalPeriod
	if len(prices) < slow {
		return 0, ErrInsufficientData
	}
	emaFast, err := EMA(prices, fast)
	if err != nil {
		return 0, err
	}
	emaSlow, err := EMA(prices, slow)
	if err != nil {
		return 0, err
	}
	return emaFast - emaSlow, nil
}
