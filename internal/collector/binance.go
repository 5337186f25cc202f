package collector

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/th3rrry/minees/internal/model"
)

const DefaultBinanceURL = "https://api.binance.com/api/v3"

// Binance serves crypto quotes from the 24hr ticker and history from 1h klines.
type Binance struct {
	client  *HTTPClient
	baseURL string
}

// NewBinance creates the Binance provider.
func NewBinance(client *HTTPClient, baseURL string) *Binance {
	if baseURL == "" {
		baseURL = DefaultBinanceURL
	}
	return &Binance{client: client, baseURL: baseURL}
}

func (b *Binance) Name() string { return "binance" }

type binanceTicker struct {
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
	Volume             string `json:"volume"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
}

func (b *Binance) FetchQuote(ctx context.Context, inst model.Instrument) (*model.Quote, error) {
	if err := requireClass(inst, model.ClassCrypto); err != nil {
		return nil, err
	}
	var t binanceTicker
	q := url.Values{"symbol": {inst.ID}}
	if err := b.client.GetJSON(ctx, b.baseURL+"/ticker/24hr", q, &t); err != nil {
		return nil, err
	}

	price, err := parseNumber(t.LastPrice)
	if err != nil {
		return nil, fmt.Errorf("binance lastPrice: %w", err)
	}
	change, err := parseNumber(t.PriceChangePercent)
	if err != nil {
		return nil, fmt.Errorf("binance priceChangePercent: %w", err)
	}
	return &model.Quote{
		Instrument: inst.ID,
		Price:      price,
		Change24h:  change,
		Volume:     parseOptional(t.Volume),
		High24h:    parseOptional(t.HighPrice),
		Low24h:     parseOptional(t.LowPrice),
		Source:     b.Name(),
	}, nil
}

// FetchHistory maps kline rows [openTime, open, high, low, close, volume, ...]
// to a price series, oldest first.
func (b *Binance) FetchHistory(ctx context.Context, inst model.Instrument, limit int) (*model.PriceSeries, error) {
	if err := requireClass(inst, model.ClassCrypto); err != nil {
		return nil, err
	}
	var rows [][]any
	q := url.Values{
		"symbol":   {inst.ID},
		"interval": {"1h"},
		"limit":    {strconv.Itoa(limit)},
	}
	if err := b.client.GetJSON(ctx, b.baseURL+"/klines", q, &rows); err != nil {
		return nil, err
	}

	s := &model.PriceSeries{
		Closes:  make([]float64, 0, len(rows)),
		Highs:   make([]float64, 0, len(rows)),
		Lows:    make([]float64, 0, len(rows)),
		Volumes: make([]float64, 0, len(rows)),
	}
	for i, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("binance kline %d: %w: %d fields", i, ErrBadPayload, len(row))
		}
		closePrice, err := parseNumber(row[4])
		if err != nil {
			return nil, fmt.Errorf("binance kline %d close: %w", i, err)
		}
		s.Closes = append(s.Closes, closePrice)
		s.Highs = append(s.Highs, parseOptional(row[2]))
		s.Lows = append(s.Lows, parseOptional(row[3]))
		s.Volumes = append(s.Volumes, parseOptional(row[5]))
	}
	return s, nil
}
