package collector

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/th3rrry/minees/internal/model"
)

const DefaultAlphaVantageURL = "https://www.alphavantage.co/query"

// AlphaVantage serves forex quotes from the FX_DAILY series.
type AlphaVantage struct {
	client  *HTTPClient
	baseURL string
	apiKey  string
}

func NewAlphaVantage(client *HTTPClient, baseURL, apiKey string) *AlphaVantage {
	if baseURL == "" {
		baseURL = DefaultAlphaVantageURL
	}
	return &AlphaVantage{client: client, baseURL: baseURL, apiKey: apiKey}
}

func (a *AlphaVantage) Name() string { return "alphavantage" }

type fxDaily struct {
	ErrorMessage string                       `json:"Error Message"`
	Note         string                       `json:"Note"`
	Information  string                       `json:"Information"`
	Series       map[string]map[string]string `json:"Time Series FX (Daily)"`
}

// softLimit detects the limit notices Alpha Vantage returns with status 200.
func (r *fxDaily) softLimit() error {
	switch {
	case r.ErrorMessage != "":
		return fmt.Errorf("alphavantage error message: %w: %s", ErrBadPayload, r.ErrorMessage)
	case r.Note != "":
		return fmt.Errorf("alphavantage note: %w: %s", ErrSoftLimit, r.Note)
	case strings.Contains(r.Information, "API call frequency"), strings.Contains(r.Information, "limit"):
		return fmt.Errorf("alphavantage information: %w: %s", ErrSoftLimit, r.Information)
	}
	return nil
}

// FetchQuote takes the latest daily close as price and the percent delta to
// the previous close as change24h.
func (a *AlphaVantage) FetchQuote(ctx context.Context, inst model.Instrument) (*model.Quote, error) {
	if err := requireClass(inst, model.ClassForex); err != nil {
		return nil, err
	}
	if a.apiKey == "" {
		return nil, fmt.Errorf("alphavantage: %w", ErrMissingKey)
	}
	q := url.Values{
		"function":    {"FX_DAILY"},
		"from_symbol": {inst.Base},
		"to_symbol":   {inst.Quote},
		"apikey":      {a.apiKey},
	}
	var resp fxDaily
	if err := a.client.GetJSON(ctx, a.baseURL, q, &resp); err != nil {
		return nil, err
	}
	if err := resp.softLimit(); err != nil {
		return nil, err
	}
	if len(resp.Series) < 2 {
		return nil, fmt.Errorf("alphavantage %s: %w: %d daily points", inst.ID, ErrNoData, len(resp.Series))
	}

	dates := make([]string, 0, len(resp.Series))
	for d := range resp.Series {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	latest, previous := resp.Series[dates[0]], resp.Series[dates[1]]

	price, err := parseNumber(latest["4. close"])
	if err != nil {
		return nil, fmt.Errorf("alphavantage %s close: %w", dates[0], err)
	}
	prev, err := parseNumber(previous["4. close"])
	if err != nil || prev == 0 {
		return nil, fmt.Errorf("alphavantage %s close: %w", dates[1], ErrBadPayload)
	}
	return &model.Quote{
		Instrument: inst.ID,
		Price:      price,
		Change24h:  (price - prev) / prev * 100,
		High24h:    parseOptional(latest["2. high"]),
		Low24h:     parseOptional(latest["3. low"]),
		Source:     a.Name(),
	}, nil
}
