package model

// PriceSeries holds chronological closes (oldest first) and optional parallel
// highs, lows and volumes of the same length.
type PriceSeries struct {
	Closes  []float64 `json:"closes"`
	Highs   []float64 `json:"highs,omitempty"`
	Lows    []float64 `json:"lows,omitempty"`
	Volumes []float64 `json:"volumes,omitempty"`
}

// Len returns the number of closes.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Closes)
}

// Last returns the most recent close, or 0 for an empty series.
func (s *PriceSeries) Last() float64 {
	if s.Len() == 0 {
		return 0
	}
	return s.Closes[len(s.Closes)-1]
}

// Consistent reports whether every non-empty parallel slice matches Closes in length.
func (s *PriceSeries) Consistent() bool {
	n := s.Len()
	for _, p := range [][]float64{s.Highs, s.Lows, s.Volumes} {
		if len(p) != 0 && len(p) != n {
			return false
		}
	}
	return true
}

// Quote is a snapshot of the current price and 24h change of one instrument.
type Quote struct {
	Instrument string  `json:"pair"`
	Price      float64 `json:"price"`
	Change24h  float64 `json:"change24h"`
	Volume     float64 `json:"volume"`
	High24h    float64 `json:"high24h"`
	Low24h     float64 `json:"low24h"`
	Source     string  `json:"source"`
}
