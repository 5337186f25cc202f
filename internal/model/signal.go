package model

// Direction is the trading direction of a signal.
type Direction string

const (
	DirectionBuy     Direction = "BUY"
	DirectionSell    Direction = "SELL"
	DirectionNeutral Direction = "NEUTRAL"
)

// Path names the generation stage that produced a signal.
type Path string

const (
	PathTechnical   Path = "technical"
	PathPriceChange Path = "price_change"
	PathRateBased   Path = "rate_based"
	PathTimeBased   Path = "time_based"
	PathNoData      Path = "no_data"
	PathError       Path = "error"
	PathOTC         Path = "otc"
)

// Factor is one entry of the reasoning trail: an indicator trigger with its reading.
type Factor struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Delta int     `json:"delta"`
	Token string  `json:"token"`
}

// Analysis is the scorer output for a price series.
type Analysis struct {
	Direction  Direction
	Confidence int
	Score      float64
	Factors    []Factor
	Reasoning  string
	Indicators IndicatorSet
}

// Explanation is an opaque rendering key plus its parameters.
type Explanation struct {
	Key    string
	Params map[string]any
}

// Signal is the broadcast record for one instrument and generation cycle.
//
// AnalysisType mirrors Path except on the rate-based and time-based paths,
// where it is left empty. Synthetic marks Price and Change24h as placeholders
// rather than measured values.
type Signal struct {
	ID                 string         `json:"id"`
	Pair               string         `json:"pair"`
	Direction          Direction      `json:"signal"`
	Confidence         int            `json:"confidence"`
	Explanation        string         `json:"explanation"`
	ExplanationParams  map[string]any `json:"explanationParams"`
	Timestamp          int64          `json:"timestamp"`
	Price              float64        `json:"price"`
	Change24h          float64        `json:"change24h"`
	TechnicalReasoning string         `json:"technicalReasoning,omitempty"`
	Reasoning          []Factor       `json:"reasoning,omitempty"`
	AnalysisType       Path           `json:"analysisType,omitempty"`
	Path               Path           `json:"path"`
	Synthetic          bool           `json:"synthetic,omitempty"`
}
