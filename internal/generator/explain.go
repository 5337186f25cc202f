package generator

import (
	"fmt"

	"github.com/th3rrry/minees/internal/model"
)

// Explanation keys consumed by the renderers.
const (
	keyPrefix = "signals.explanations."

	KeyGrowthBuy       = keyPrefix + "growthBuy"
	KeyFallSell        = keyPrefix + "fallSell"
	KeyHighRate        = keyPrefix + "highRate"
	KeyLowRate         = keyPrefix + "lowRate"
	KeyCurrentRate     = keyPrefix + "currentRate"
	KeyTradingHours    = keyPrefix + "tradingHours"
	KeyNonTradingHours = keyPrefix + "nonTradingHours"
	KeyPriceInfo       = keyPrefix + "priceInfo"
	KeyDataUnavailable = keyPrefix + "dataUnavailable"
	KeyErrorGetting    = keyPrefix + "errorGettingData"
)

// Rate band edges shared by the rate-based signal and its explanation.
const (
	highRate = 1.1
	lowRate  = 0.9
)

// RateContext is present on the rate-based path.
type RateContext struct {
	Base  string
	Quote string
	Rate  float64
}

// TimeContext is present on the time-based path.
type TimeContext struct {
	Hour   int
	Minute int
}

// ExplainInput carries everything an explanation can be built from.
type ExplainInput struct {
	Direction model.Direction
	Change24h float64
	Price     float64
	Rate      *RateContext
	Time      *TimeContext
}

// Explain selects the explanation key. Precedence is fixed: direction first,
// then rate context, then time context, then the price-info default.
func Explain(in ExplainInput) model.Explanation {
	switch in.Direction {
	case model.DirectionBuy:
		return model.Explanation{Key: KeyGrowthBuy, Params: map[string]any{
			"change": fmt.Sprintf("%.2f", in.Change24h),
			"trend":  trendWord(in.Change24h),
		}}
	case model.DirectionSell:
		abs := in.Change24h
		if abs < 0 {
			abs = -abs
		}
		return model.Explanation{Key: KeyFallSell, Params: map[string]any{
			"change": fmt.Sprintf("%.2f", abs),
			"trend":  trendWord(in.Change24h),
		}}
	}

	if r := in.Rate; r != nil && r.Base != "" && r.Quote != "" && r.Rate != 0 {
		key := KeyCurrentRate
		switch {
		case r.Rate > highRate:
			key = KeyHighRate
		case r.Rate < lowRate:
			key = KeyLowRate
		}
		return model.Explanation{Key: key, Params: map[string]any{
			"base":  r.Base,
			"quote": r.Quote,
			"rate":  fmt.Sprintf("%.4f", r.Rate),
		}}
	}

	if t := in.Time; t != nil {
		key := KeyNonTradingHours
		if tradingHour(t.Hour) {
			key = KeyTradingHours
		}
		return model.Explanation{Key: key, Params: map[string]any{
			"hour":   t.Hour,
			"minute": fmt.Sprintf("%02d", t.Minute),
		}}
	}

	return model.Explanation{Key: KeyPriceInfo, Params: map[string]any{
		"price":  fmt.Sprintf("%.4f", in.Price),
		"change": fmt.Sprintf("%.2f", in.Change24h),
		"trend":  trendWord(in.Change24h),
	}}
}

func trendWord(change float64) string {
	switch {
	case change > 0:
		return "upward"
	case change < 0:
		return "downward"
	}
	return "sideways"
}

func tradingHour(h int) bool { return h >= 9 && h <= 17 }
