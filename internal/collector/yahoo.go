package collector

import (
	"context"
	"fmt"
	"net/url"

	"github.com/th3rrry/minees/internal/model"
)

const DefaultYahooURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// Yahoo serves intraday forex history from the Yahoo Finance chart API.
type Yahoo struct {
	client    *HTTPClient
	baseURL   string
	interval  string
	rng       string
	SymbolMap map[string]string // maps instrument ids to Yahoo tickers
}

// NewYahoo creates the provider with a 30 day range of hourly bars.
func NewYahoo(client *HTTPClient, baseURL string) *Yahoo {
	if baseURL == "" {
		baseURL = DefaultYahooURL
	}
	return &Yahoo{
		client:    client,
		baseURL:   baseURL,
		interval:  "1h",
		rng:       "30d",
		SymbolMap: map[string]string{},
	}
}

func (y *Yahoo) Name() string { return "yahoo" }

// yahooSymbol maps EURUSD to EURUSD=X unless overridden.
func (y *Yahoo) yahooSymbol(inst model.Instrument) string {
	if mapped, ok := y.SymbolMap[inst.ID]; ok {
		return mapped
	}
	return inst.Base + inst.Quote + "=X"
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func at(v []*float64, i int) (float64, bool) {
	if i >= len(v) || v[i] == nil {
		return 0, false
	}
	return *v[i], true
}

// FetchHistory returns the last limit bars. Bars without a close are dropped
// whole; a missing high, low or volume falls back to the close (volume to 0).
func (y *Yahoo) FetchHistory(ctx context.Context, inst model.Instrument, limit int) (*model.PriceSeries, error) {
	if err := requireClass(inst, model.ClassForex); err != nil {
		return nil, err
	}
	q := url.Values{
		"interval":       {y.interval},
		"range":          {y.rng},
		"includePrePost": {"false"},
	}
	var chart yahooChart
	if err := y.client.GetJSON(ctx, y.baseURL+"/"+url.PathEscape(y.yahooSymbol(inst)), q, &chart); err != nil {
		return nil, err
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %w: %s", ErrBadPayload, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", inst.ID, ErrNoData)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	s := &model.PriceSeries{}
	for i := range result.Timestamp {
		c, ok := at(quote.Close, i)
		if !ok {
			continue // null bar (market closed)
		}
		h, ok := at(quote.High, i)
		if !ok {
			h = c
		}
		l, ok := at(quote.Low, i)
		if !ok {
			l = c
		}
		v, _ := at(quote.Volume, i)
		s.Closes = append(s.Closes, c)
		s.Highs = append(s.Highs, h)
		s.Lows = append(s.Lows, l)
		s.Volumes = append(s.Volumes, v)
	}
	return tail(s, limit), nil
}
