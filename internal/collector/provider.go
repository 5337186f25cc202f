package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/th3rrry/minees/internal/model"
)

// QuoteProvider fetches the current quote of one instrument.
type QuoteProvider interface {
	Name() string
	FetchQuote(ctx context.Context, inst model.Instrument) (*model.Quote, error)
}

// HistoryProvider fetches the most recent limit points of an instrument.
type HistoryProvider interface {
	Name() string
	FetchHistory(ctx context.Context, inst model.Instrument, limit int) (*model.PriceSeries, error)
}

// AttemptKind names what a provider call was for.
type AttemptKind string

const (
	KindQuote   AttemptKind = "quote"
	KindHistory AttemptKind = "history"
	KindRate    AttemptKind = "rate"
)

// Attempt describes one provider tier call.
type Attempt struct {
	Kind       AttemptKind
	Provider   string
	Instrument string
	Started    time.Time
	Duration   time.Duration
	Err        error
}

// OK reports whether the attempt succeeded.
func (a Attempt) OK() bool { return a.Err == nil }

// Observer is notified of every provider attempt.
type Observer interface {
	ObserveAttempt(a Attempt)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(a Attempt)

func (f ObserverFunc) ObserveAttempt(a Attempt) { f(a) }

// observed logs attempts and fans them out to observers.
type observed struct {
	log       zerolog.Logger
	observers []Observer
	now       func() time.Time
}

func newObserved(log zerolog.Logger) observed {
	return observed{log: log, now: time.Now}
}

func (o *observed) record(kind AttemptKind, provider string, inst model.Instrument, started time.Time, err error) {
	a := Attempt{
		Kind:       kind,
		Provider:   provider,
		Instrument: inst.ID,
		Started:    started,
		Duration:   o.now().Sub(started),
		Err:        err,
	}
	if err != nil {
		o.log.Warn().Str("kind", string(kind)).Str("tier", provider).Str("instrument", inst.ID).
			Dur("took", a.Duration).Err(err).Msg("provider tier failed")
	} else {
		o.log.Debug().Str("kind", string(kind)).Str("tier", provider).Str("instrument", inst.ID).
			Dur("took", a.Duration).Msg("provider tier succeeded")
	}
	for _, ob := range o.observers {
		ob.ObserveAttempt(a)
	}
}

// QuoteChain tries quote providers in order and stops at the first success.
type QuoteChain struct {
	observed
	tiers []QuoteProvider
}

// NewQuoteChain creates a chain over the given tiers.
func NewQuoteChain(log zerolog.Logger, tiers ...QuoteProvider) *QuoteChain {
	return &QuoteChain{
		observed: newObserved(log.With().Str("component", "quote_chain").Logger()),
		tiers:    tiers,
	}
}

// Observe registers attempt observers.
func (c *QuoteChain) Observe(obs ...Observer) { c.observers = append(c.observers, obs...) }

func (c *QuoteChain) Name() string {
	return chainName(len(c.tiers), func(i int) string { return c.tiers[i].Name() })
}

// FetchQuote returns the first valid quote. When every tier fails the error
// wraps ErrAllTiersFailed and each tier's error.
func (c *QuoteChain) FetchQuote(ctx context.Context, inst model.Instrument) (*model.Quote, error) {
	var errs []error
	for _, tier := range c.tiers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		started := c.now()
		q, err := tier.FetchQuote(ctx, inst)
		if err == nil && (q == nil || q.Price <= 0) {
			err = fmt.Errorf("%w: non-positive price", ErrNoData)
		}
		c.record(KindQuote, tier.Name(), inst, started, err)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", tier.Name(), err))
			continue
		}
		if q.Source == "" {
			q.Source = tier.Name()
		}
		return q, nil
	}
	return nil, fmt.Errorf("%s quote: %w: %w", inst.ID, ErrAllTiersFailed, errors.Join(errs...))
}

// HistoryChain tries history providers in order and returns the first non-empty series.
type HistoryChain struct {
	observed
	tiers []HistoryProvider
}

// NewHistoryChain creates a chain over the given tiers.
func NewHistoryChain(log zerolog.Logger, tiers ...HistoryProvider) *HistoryChain {
	return &HistoryChain{
		observed: newObserved(log.With().Str("component", "history_chain").Logger()),
		tiers:    tiers,
	}
}

// Observe registers attempt observers.
func (c *HistoryChain) Observe(obs ...Observer) { c.observers = append(c.observers, obs...) }

func (c *HistoryChain) Name() string {
	return chainName(len(c.tiers), func(i int) string { return c.tiers[i].Name() })
}

// FetchHistory returns the first non-empty, length-consistent series.
func (c *HistoryChain) FetchHistory(ctx context.Context, inst model.Instrument, limit int) (*model.PriceSeries, error) {
	var errs []error
	for _, tier := range c.tiers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		started := c.now()
		s, err := tier.FetchHistory(ctx, inst, limit)
		if err == nil {
			switch {
			case s.Len() == 0:
				err = fmt.Errorf("%w: empty series", ErrNoData)
			case !s.Consistent():
				err = fmt.Errorf("%w: parallel series lengths differ", ErrBadPayload)
			}
		}
		c.record(KindHistory, tier.Name(), inst, started, err)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", tier.Name(), err))
			continue
		}
		return s, nil
	}
	return nil, fmt.Errorf("%s history: %w: %w", inst.ID, ErrAllTiersFailed, errors.Join(errs...))
}

func chainName(n int, name func(int) string) string {
	names := make([]string, n)
	for i := range names {
		names[i] = name(i)
	}
	return strings.Join(names, ">")
}

// tail keeps the last n points of every slice.
func tail(s *model.PriceSeries, n int) *model.PriceSeries {
	if n <= 0 || s.Len() <= n {
		return s
	}
	cut := func(v []float64) []float64 {
		if len(v) <= n {
			return v
		}
		return v[len(v)-n:]
	}
	return &model.PriceSeries{
		Closes:  cut(s.Closes),
		Highs:   cut(s.Highs),
		Lows:    cut(s.Lows),
		Volumes: cut(s.Volumes),
	}
}

// requireClass rejects instruments the provider does not serve.
func requireClass(inst model.Instrument, classes ...model.Class) error {
	for _, c := range classes {
		if inst.Class == c {
			return nil
		}
	}
	return fmt.Errorf("%s (%s): %w", inst.ID, inst.Class, ErrUnsupported)
}
