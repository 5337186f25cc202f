// Package generator turns instrument ids into signals. Every public entry
// point returns a valid signal; provider failures walk down the fallback
// cascade and panics end in the error terminal.
package generator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/th3rrry/minees/internal/collector"
	"github.com/th3rrry/minees/internal/model"
	"github.com/th3rrry/minees/internal/strategy"
)

// DefaultHistoryLimit is the number of history points requested per signal.
const DefaultHistoryLimit = 100

// Fixed confidences of the non-technical paths.
const (
	neutralConfidence      = 50
	rateConfidence         = 65
	tradingHoursConfidence = 65
	offHoursConfidence     = 60
	priceChangeBase        = 55.0
	priceChangeCeiling     = 95.0
)

const (
	placeholderPrice    = 1.0
	reasoningNoData     = "No data available"
	reasoningError      = "Error getting data"
	reasoningPriceDelta = "Price change: %.2f%%"
)

// RateSource looks up the latest exchange rate of a forex pair.
type RateSource interface {
	Rate(ctx context.Context, inst model.Instrument) (float64, error)
}

// Sources are the provider chains per instrument class. Nil entries behave
// like a chain whose every tier failed.
type Sources struct {
	CryptoQuotes  collector.QuoteProvider
	CryptoHistory collector.HistoryProvider
	ForexQuotes   collector.QuoteProvider
	ForexHistory  collector.HistoryProvider
	Rates         RateSource
}

// heuristic is the price-change fallback of one instrument class.
type heuristic struct {
	threshold float64
	slope     float64
}

var (
	cryptoHeuristic = heuristic{threshold: 0.5, slope: 2}
	forexHeuristic  = heuristic{threshold: 0.2, slope: 15}
)

type Options struct {
	HistoryLimit int
	Now          func() time.Time
	// Location sets the wall clock of the time-of-day heuristic.
	Location *time.Location
}

// Generator produces one signal per call.
type Generator struct {
	src   Sources
	limit int
	now   func() time.Time
	loc   *time.Location
	log   zerolog.Logger
}

func New(src Sources, opts Options, log zerolog.Logger) *Generator {
	g := &Generator{
		src:   src,
		limit: opts.HistoryLimit,
		now:   opts.Now,
		loc:   opts.Location,
		log:   log.With().Str("component", "generator").Logger(),
	}
	if g.limit <= 0 {
		g.limit = DefaultHistoryLimit
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.loc == nil {
		g.loc = time.Local
	}
	return g
}

// Generate produces the signal for any instrument id, OTC included.
func (g *Generator) Generate(ctx context.Context, id string) model.Signal {
	inst, err := model.ParseInstrument(id)
	if err != nil {
		g.log.Error().Err(err).Str("instrument", id).Msg("cannot classify instrument")
		return g.terminal(id, model.PathError)
	}
	if inst.Class == model.ClassOTC {
		return g.GenerateOTC(ctx, inst)
	}
	return g.safe(inst.ID, func() model.Signal { return g.generate(ctx, inst) })
}

// GenerateOTC generates the base forex signal and overlays the OTC markers.
func (g *Generator) GenerateOTC(ctx context.Context, inst model.Instrument) model.Signal {
	base := inst.BaseForex()
	baseSig := g.safe(base.ID, func() model.Signal { return g.generate(ctx, base) })
	return Overlay(baseSig, inst.ID, g.now().UnixMilli())
}

// safe runs fn and converts a panic into the error terminal.
func (g *Generator) safe(id string, fn func() model.Signal) (sig model.Signal) {
	defer func() {
		if r := recover(); r != nil {
			g.log.Error().Str("instrument", id).Interface("panic", r).Msg("signal generation panicked")
			sig = g.terminal(id, model.PathError)
		}
	}()
	return fn()
}

func (g *Generator) generate(ctx context.Context, inst model.Instrument) model.Signal {
	switch inst.Class {
	case model.ClassCrypto:
		return g.crypto(ctx, inst)
	case model.ClassForex:
		return g.forex(ctx, inst)
	default:
		panic(fmt.Sprintf("unexpected instrument class %q", inst.Class))
	}
}

func (g *Generator) crypto(ctx context.Context, inst model.Instrument) model.Signal {
	q, err := fetchQuote(ctx, g.src.CryptoQuotes, inst)
	if err != nil {
		g.log.Warn().Err(err).Str("instrument", inst.ID).Msg("crypto quote tiers exhausted")
		return g.terminal(inst.ID, model.PathNoData)
	}
	return g.fromQuote(ctx, inst, q, g.src.CryptoHistory, cryptoHeuristic)
}

// forex walks quote, rate lookup, then time of day. A completed rate lookup
// that lacked the quote currency ends in no-data without the time heuristic.
func (g *Generator) forex(ctx context.Context, inst model.Instrument) model.Signal {
	q, err := fetchQuote(ctx, g.src.ForexQuotes, inst)
	if err == nil {
		return g.fromQuote(ctx, inst, q, g.src.ForexHistory, forexHeuristic)
	}
	g.log.Warn().Err(err).Str("instrument", inst.ID).Msg("forex quote tiers exhausted, trying rate lookup")

	if g.src.Rates == nil {
		return g.timeBased(inst)
	}
	rate, err := g.src.Rates.Rate(ctx, inst)
	switch {
	case err == nil:
		return g.rateBased(inst, rate)
	case errors.Is(err, collector.ErrRateMissing):
		g.log.Warn().Err(err).Str("instrument", inst.ID).Msg("rate response lacked quote currency")
		return g.terminal(inst.ID, model.PathNoData)
	default:
		g.log.Warn().Err(err).Str("instrument", inst.ID).Msg("rate lookup failed, using time of day")
		return g.timeBased(inst)
	}
}

func fetchQuote(ctx context.Context, p collector.QuoteProvider, inst model.Instrument) (*model.Quote, error) {
	if p == nil {
		return nil, collector.ErrAllTiersFailed
	}
	return p.FetchQuote(ctx, inst)
}

// fromQuote scores history when there is enough of it and falls back to the
// 24h change heuristic otherwise.
func (g *Generator) fromQuote(ctx context.Context, inst model.Instrument, q *model.Quote, hp collector.HistoryProvider, h heuristic) model.Signal {
	var series *model.PriceSeries
	if hp != nil {
		s, err := hp.FetchHistory(ctx, inst, g.limit)
		if err != nil {
			g.log.Info().Err(err).Str("instrument", inst.ID).Msg("no history, using price change")
		}
		series = s
	}

	priceText := fmt.Sprintf(reasoningPriceDelta, q.Change24h)
	if a, ok := strategy.Evaluate(series); ok {
		sig := g.build(inst.ID, model.PathTechnical, a.Direction, a.Confidence, Explain(ExplainInput{
			Direction: a.Direction,
			Change24h: q.Change24h,
			Price:     q.Price,
		}))
		sig.Price, sig.Change24h = q.Price, q.Change24h
		sig.Reasoning = a.Factors
		sig.TechnicalReasoning = a.Reasoning
		if sig.TechnicalReasoning == "" {
			sig.TechnicalReasoning = priceText
		}
		return sig
	}

	dir, conf := h.classify(q.Change24h)
	sig := g.build(inst.ID, model.PathPriceChange, dir, conf, Explain(ExplainInput{
		Direction: dir,
		Change24h: q.Change24h,
		Price:     q.Price,
	}))
	sig.Price, sig.Change24h = q.Price, q.Change24h
	sig.TechnicalReasoning = priceText
	return sig
}

func (h heuristic) classify(change float64) (model.Direction, int) {
	switch {
	case change > h.threshold:
		return model.DirectionBuy, roundHalfUp(math.Min(priceChangeCeiling, priceChangeBase+change*h.slope))
	case change < -h.threshold:
		return model.DirectionSell, roundHalfUp(math.Min(priceChangeCeiling, priceChangeBase-change*h.slope))
	}
	return model.DirectionNeutral, neutralConfidence
}

// rateBased signals on the rate magnitude. Change24h is a placeholder.
func (g *Generator) rateBased(inst model.Instrument, rate float64) model.Signal {
	dir, conf := model.DirectionNeutral, neutralConfidence
	switch {
	case rate > highRate:
		dir, conf = model.DirectionBuy, rateConfidence
	case rate < lowRate:
		dir, conf = model.DirectionSell, rateConfidence
	}
	sig := g.build(inst.ID, model.PathRateBased, dir, conf, Explain(ExplainInput{
		Direction: dir,
		Price:     rate,
		Rate:      &RateContext{Base: inst.Base, Quote: inst.Quote, Rate: rate},
	}))
	sig.Price = rate
	sig.AnalysisType = ""
	sig.Synthetic = true
	return sig
}

// timeBased signals on the local hour. Price and change are placeholders.
func (g *Generator) timeBased(inst model.Instrument) model.Signal {
	now := g.now().In(g.loc)
	hour, minute := now.Hour(), now.Minute()

	dir, conf := model.DirectionNeutral, neutralConfidence
	switch {
	case tradingHour(hour):
		dir, conf = model.DirectionBuy, tradingHoursConfidence
	case hour >= 18 || hour <= 8:
		dir, conf = model.DirectionSell, offHoursConfidence
	}
	sig := g.build(inst.ID, model.PathTimeBased, dir, conf, Explain(ExplainInput{
		Direction: dir,
		Price:     placeholderPrice,
		Time:      &TimeContext{Hour: hour, Minute: minute},
	}))
	sig.Price = placeholderPrice
	sig.AnalysisType = ""
	sig.Synthetic = true
	return sig
}

// terminal builds the no-data or error signal.
func (g *Generator) terminal(id string, path model.Path) model.Signal {
	key, text := KeyDataUnavailable, reasoningNoData
	if path == model.PathError {
		key, text = KeyErrorGetting, reasoningError
	}
	sig := g.build(id, path, model.DirectionNeutral, neutralConfidence, model.Explanation{Key: key, Params: map[string]any{}})
	sig.Price = placeholderPrice
	sig.TechnicalReasoning = text
	sig.Synthetic = true
	return sig
}

func (g *Generator) build(id string, path model.Path, dir model.Direction, conf int, exp model.Explanation) model.Signal {
	ts := g.now().UnixMilli()
	return model.Signal{
		ID:                fmt.Sprintf("%s-%d", id, ts),
		Pair:              id,
		Direction:         dir,
		Confidence:        conf,
		Explanation:       exp.Key,
		ExplanationParams: exp.Params,
		Timestamp:         ts,
		AnalysisType:      path,
		Path:              path,
	}
}

func roundHalfUp(v float64) int { return int(math.Floor(v + 0.5)) }
