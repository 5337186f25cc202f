package model

// Trend is the composite moving-average trend classification.
type Trend string

const (
	TrendBullish Trend = "BULLISH"
	TrendBearish Trend = "BEARISH"
	TrendNeutral Trend = "NEUTRAL"
)

// Bollinger holds the three Bollinger band levels.
type Bollinger struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// IndicatorSet holds every indicator derived from one PriceSeries.
// Nil pointers mean the series was too short for that indicator.
type IndicatorSet struct {
	RSI       *float64   `json:"rsi,omitempty"`
	MACD      *float64   `json:"macd,omitempty"`
	Bollinger *Bollinger `json:"bollinger,omitempty"`
	SMA20     *float64   `json:"sma20,omitempty"`
	SMA50     *float64   `json:"sma50,omitempty"`
	Trend     Trend      `json:"trend"`
}
