package collector

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"time"

	"github.com/th3rrry/minees/internal/model"
)

const (
	DefaultFixerURL = "https://api.fixer.io"
	fixerVolume     = 500_000
)

// FixerSynthetic builds a pseudo-history from the single latest rate: each
// hourly point is the rate scaled by a small sinusoid of its hour of day.
// The result is deterministic for a given clock and is not real history.
type FixerSynthetic struct {
	client  *HTTPClient
	baseURL string
	apiKey  string
	now     func() time.Time
}

func NewFixerSynthetic(client *HTTPClient, baseURL, apiKey string, now func() time.Time) *FixerSynthetic {
	if baseURL == "" {
		baseURL = DefaultFixerURL
	}
	if now == nil {
		now = time.Now
	}
	return &FixerSynthetic{client: client, baseURL: baseURL, apiKey: apiKey, now: now}
}

func (f *FixerSynthetic) Name() string { return "fixer" }

type fixerLatest struct {
	Rates map[string]float64 `json:"rates"`
}

func (f *FixerSynthetic) FetchHistory(ctx context.Context, inst model.Instrument, limit int) (*model.PriceSeries, error) {
	if err := requireClass(inst, model.ClassForex); err != nil {
		return nil, err
	}
	q := url.Values{"base": {inst.Base}, "symbols": {inst.Quote}}
	if f.apiKey != "" {
		q.Set("access_key", f.apiKey)
	}
	var resp fixerLatest
	if err := f.client.GetJSON(ctx, f.baseURL+"/latest", q, &resp); err != nil {
		return nil, err
	}
	rate := resp.Rates[inst.Quote]
	if rate <= 0 {
		return nil, fmt.Errorf("fixer %s: %w", inst.ID, ErrNoData)
	}
	return SyntheticSeries(rate, limit, f.now()), nil
}

// SyntheticSeries returns limit hourly points ending at now.
func SyntheticSeries(rate float64, limit int, now time.Time) *model.PriceSeries {
	s := &model.PriceSeries{
		Closes:  make([]float64, 0, limit),
		Highs:   make([]float64, 0, limit),
		Lows:    make([]float64, 0, limit),
		Volumes: make([]float64, 0, limit),
	}
	for i := limit - 1; i >= 0; i-- {
		hour := now.Add(-time.Duration(i) * time.Hour).Hour()
		p := rate * (1 + math.Sin(float64(hour)/24*2*math.Pi)*0.001)
		s.Closes = append(s.Closes, p)
		s.Highs = append(s.Highs, p*1.0005)
		s.Lows = append(s.Lows, p*0.9995)
		s.Volumes = append(s.Volumes, fixerVolume)
	}
	return s
}
