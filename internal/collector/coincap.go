package collector

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/th3rrry/minees/internal/model"
)

const DefaultCoinCapURL = "https://api.coincap.io/v2"

// CoinCap serves crypto quotes from the asset-by-id endpoint.
type CoinCap struct {
	client  *HTTPClient
	baseURL string
	ids     map[string]string
}

func NewCoinCap(client *HTTPClient, baseURL string, ids map[string]string) *CoinCap {
	if baseURL == "" {
		baseURL = DefaultCoinCapURL
	}
	return &CoinCap{client: client, baseURL: baseURL, ids: ids}
}

func (c *CoinCap) Name() string { return "coincap" }

type coinCapAsset struct {
	Data *struct {
		PriceUsd          string `json:"priceUsd"`
		ChangePercent24Hr string `json:"changePercent24Hr"`
		VolumeUsd24Hr     string `json:"volumeUsd24Hr"`
	} `json:"data"`
}

func (c *CoinCap) FetchQuote(ctx context.Context, inst model.Instrument) (*model.Quote, error) {
	if err := requireClass(inst, model.ClassCrypto); err != nil {
		return nil, err
	}
	id, ok := c.ids[inst.Base]
	if !ok {
		id = strings.ToLower(inst.Base)
	}

	var resp coinCapAsset
	if err := c.client.GetJSON(ctx, c.baseURL+"/assets/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("coincap %s: %w", id, ErrNoData)
	}
	price, err := parseNumber(resp.Data.PriceUsd)
	if err != nil {
		return nil, fmt.Errorf("coincap priceUsd: %w", err)
	}
	return &model.Quote{
		Instrument: inst.ID,
		Price:      price,
		Change24h:  parseOptional(resp.Data.ChangePercent24Hr),
		Volume:     parseOptional(resp.Data.VolumeUsd24Hr),
		High24h:    price,
		Low24h:     price,
		Source:     c.Name(),
	}, nil
}
