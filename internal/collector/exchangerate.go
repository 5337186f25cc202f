package collector

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/th3rrry/minees/internal/model"
)

const (
	DefaultExchangeRateURL        = "https://v6.exchangerate-api.com/v6"
	DefaultExchangeRateHistoryURL = "https://api.exchangerate-api.com/v4"

	placeholderKeyPrefix = "your_"
	historyWindow        = 30 * 24 * time.Hour
	minHistoryPoints     = 10
	historyVolume        = 1_000_000
)

// KeyRing hands out API keys in round-robin order. The cursor advances on
// every Next call and lives for the process lifetime.
type KeyRing struct {
	mu   sync.Mutex
	keys []string
	next int
}

func NewKeyRing(keys []string) *KeyRing {
	return &KeyRing{keys: append([]string(nil), keys...)}
}

func (r *KeyRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}

// Next returns the key under the cursor with its index and advances the cursor.
func (r *KeyRing) Next() (int, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.keys) == 0 {
		return -1, ""
	}
	i := r.next
	r.next = (r.next + 1) % len(r.keys)
	return i, r.keys[i]
}

// UsableKey reports whether key is set and not a "your_..." placeholder.
func UsableKey(key string) bool {
	key = strings.TrimSpace(key)
	return key != "" && !strings.HasPrefix(key, placeholderKeyPrefix)
}

// ExchangeRateLatest looks up the latest base/quote rate, rotating keys.
type ExchangeRateLatest struct {
	observed
	client  *HTTPClient
	baseURL string
	keys    *KeyRing
}

func NewExchangeRateLatest(log zerolog.Logger, client *HTTPClient, baseURL string, keys *KeyRing) *ExchangeRateLatest {
	if baseURL == "" {
		baseURL = DefaultExchangeRateURL
	}
	return &ExchangeRateLatest{
		observed: newObserved(log.With().Str("component", "exchangerate").Logger()),
		client:   client,
		baseURL:  strings.TrimRight(baseURL, "/"),
		keys:     keys,
	}
}

// Observe registers attempt observers.
func (p *ExchangeRateLatest) Observe(obs ...Observer) { p.observers = append(p.observers, obs...) }

func (p *ExchangeRateLatest) Name() string { return "exchangerate" }

type latestRates struct {
	Result          string             `json:"result"`
	ErrorType       string             `json:"error-type"`
	Rates           map[string]float64 `json:"rates"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

func (r *latestRates) table() map[string]float64 {
	if len(r.ConversionRates) > 0 {
		return r.ConversionRates
	}
	return r.Rates
}

// Rate walks the key ring for at most one full round. Empty and placeholder
// keys are skipped. The first completed call ends the rotation: when that
// response lacks the quote currency the result is ErrRateMissing and the
// remaining keys are not tried.
func (p *ExchangeRateLatest) Rate(ctx context.Context, inst model.Instrument) (float64, error) {
	n := p.keys.Len()
	if n == 0 {
		return 0, fmt.Errorf("exchangerate: %w", ErrMissingKey)
	}

	var errs []error
	for attempt := 0; attempt < n; attempt++ {
		idx, key := p.keys.Next()
		if !UsableKey(key) {
			errs = append(errs, fmt.Errorf("key %d: %w", idx, ErrMissingKey))
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		started := p.now()
		endpoint := fmt.Sprintf("%s/%s/latest/%s", p.baseURL, url.PathEscape(key), url.PathEscape(inst.Base))
		var resp latestRates
		err := p.client.GetJSON(ctx, endpoint, nil, &resp)
		if err == nil && resp.Result == "error" {
			err = fmt.Errorf("%w: %s", ErrBadPayload, resp.ErrorType)
		}
		if err != nil {
			p.record(KindRate, fmt.Sprintf("%s#%d", p.Name(), idx), inst, started, err)
			errs = append(errs, fmt.Errorf("key %d: %w", idx, err))
			continue
		}

		rate, ok := resp.table()[inst.Quote]
		if !ok || rate <= 0 {
			err = fmt.Errorf("%s/%s: %w", inst.Base, inst.Quote, ErrRateMissing)
			p.record(KindRate, fmt.Sprintf("%s#%d", p.Name(), idx), inst, started, err)
			return 0, err
		}
		p.record(KindRate, fmt.Sprintf("%s#%d", p.Name(), idx), inst, started, nil)
		return rate, nil
	}
	return 0, fmt.Errorf("exchangerate %s: %w: %w", inst.ID, ErrAllTiersFailed, errors.Join(errs...))
}

// ExchangeRateHistory serves daily forex history over a rolling 30 day window.
type ExchangeRateHistory struct {
	client  *HTTPClient
	baseURL string
	now     func() time.Time
}

func NewExchangeRateHistory(client *HTTPClient, baseURL string, now func() time.Time) *ExchangeRateHistory {
	if baseURL == "" {
		baseURL = DefaultExchangeRateHistoryURL
	}
	if now == nil {
		now = time.Now
	}
	return &ExchangeRateHistory{client: client, baseURL: strings.TrimRight(baseURL, "/"), now: now}
}

func (p *ExchangeRateHistory) Name() string { return "exchangerate_history" }

type historyRates struct {
	Rates map[string]map[string]float64 `json:"rates"`
}

// FetchHistory needs at least 10 daily points. Highs and lows are the close
// widened by 0.1%.
func (p *ExchangeRateHistory) FetchHistory(ctx context.Context, inst model.Instrument, limit int) (*model.PriceSeries, error) {
	if err := requireClass(inst, model.ClassForex); err != nil {
		return nil, err
	}
	end := p.now().UTC()
	start := end.Add(-historyWindow)
	const day = "2006-01-02"
	endpoint := fmt.Sprintf("%s/history/%s/%s/%s", p.baseURL, url.PathEscape(inst.Base), start.Format(day), end.Format(day))

	var resp historyRates
	if err := p.client.GetJSON(ctx, endpoint, nil, &resp); err != nil {
		return nil, err
	}

	dates := make([]string, 0, len(resp.Rates))
	for d := range resp.Rates {
		t, err := time.Parse(day, d)
		if err != nil || t.Before(start.Truncate(24*time.Hour)) || t.After(end) {
			continue
		}
		dates = append(dates, d)
	}
	sort.Strings(dates)

	s := &model.PriceSeries{}
	for _, d := range dates {
		r := resp.Rates[d][inst.Quote]
		if r <= 0 {
			continue
		}
		s.Closes = append(s.Closes, r)
		s.Highs = append(s.Highs, r*1.001)
		s.Lows = append(s.Lows, r*0.999)
		s.Volumes = append(s.Volumes, historyVolume)
	}
	s = tail(s, limit)
	if s.Len() < minHistoryPoints {
		return nil, fmt.Errorf("exchangerate history %s: %w: %d points", inst.ID, ErrNoData, s.Len())
	}
	return s, nil
}
