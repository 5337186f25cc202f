package collector

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/th3rrry/minees/internal/model"
)

const DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"

// CoinGecko serves crypto quotes from the simple price endpoint.
type CoinGecko struct {
	client  *HTTPClient
	baseURL string
	ids     map[string]string
}

// NewCoinGecko creates the provider. ids maps base assets to CoinGecko coin
// ids; unmapped assets use their lower-cased symbol.
func NewCoinGecko(client *HTTPClient, baseURL string, ids map[string]string) *CoinGecko {
	if baseURL == "" {
		baseURL = DefaultCoinGeckoURL
	}
	return &CoinGecko{client: client, baseURL: baseURL, ids: ids}
}

func (c *CoinGecko) Name() string { return "coingecko" }

func (c *CoinGecko) coinID(inst model.Instrument) string {
	if id, ok := c.ids[inst.Base]; ok {
		return id
	}
	return strings.ToLower(inst.Base)
}

func (c *CoinGecko) FetchQuote(ctx context.Context, inst model.Instrument) (*model.Quote, error) {
	if err := requireClass(inst, model.ClassCrypto); err != nil {
		return nil, err
	}
	id := c.coinID(inst)
	q := url.Values{
		"ids":                 {id},
		"vs_currencies":       {"usd"},
		"include_24hr_change": {"true"},
		"include_24hr_vol":    {"true"},
	}
	var resp map[string]map[string]float64
	if err := c.client.GetJSON(ctx, c.baseURL+"/simple/price", q, &resp); err != nil {
		return nil, err
	}

	coin, ok := resp[id]
	if !ok || coin["usd"] <= 0 {
		return nil, fmt.Errorf("coingecko %s: %w", id, ErrNoData)
	}
	price := coin["usd"]
	return &model.Quote{
		Instrument: inst.ID,
		Price:      price,
		Change24h:  coin["usd_24h_change"],
		Volume:     coin["usd_24h_vol"],
		High24h:    price,
		Low24h:     price,
		Source:     c.Name(),
	}, nil
}
