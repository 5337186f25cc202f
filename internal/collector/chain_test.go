package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/th3rrry/minees/internal/model"
)

type named struct {
	*Mock
	name  string
	calls int
}

func (n *named) Name() string { return n.name }

func (n *named) FetchQuote(ctx context.Context, inst model.Instrument) (*model.Quote, error) {
	n.calls++
	return n.Mock.FetchQuote(ctx, inst)
}

func (n *named) FetchHistory(ctx context.Context, inst model.Instrument, limit int) (*model.PriceSeries, error) {
	n.calls++
	return n.Mock.FetchHistory(ctx, inst, limit)
}

func tier(name string, m *Mock) *named { return &named{Mock: m, name: name} }

func TestQuoteChain_FallsThroughInOrder(t *testing.T) {
	first := tier("binance", &Mock{Err: errors.New("timeout")})
	second := tier("coingecko", &Mock{Price: 0})
	third := tier("coincap", &Mock{Price: 42, Change24h: 1.5})
	never := tier("never", &Mock{Price: 1})

	var seen []string
	chain := NewQuoteChain(zerolog.Nop(), first, second, third, never)
	chain.Observe(ObserverFunc(func(a Attempt) {
		outcome := "fail"
		if a.OK() {
			outcome = "ok"
		}
		seen = append(seen, a.Provider+":"+outcome)
	}))

	q, err := chain.FetchQuote(context.Background(), mustParse(t, "BTCUSDT"))
	require.NoError(t, err)
	assert.Equal(t, 42.0, q.Price)
	assert.Equal(t, "coincap", q.Source)
	assert.Equal(t, []string{"binance:fail", "coingecko:fail", "coincap:ok"}, seen)
	assert.Zero(t, never.calls)
}

func TestQuoteChain_AllTiersFail(t *testing.T) {
	chain := NewQuoteChain(zerolog.Nop(),
		tier("a", &Mock{Err: ErrRateLimited}),
		tier("b", &Mock{Err: ErrNoData}),
	)
	_, err := chain.FetchQuote(context.Background(), mustParse(t, "BTCUSDT"))
	assert.ErrorIs(t, err, ErrAllTiersFailed)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.ErrorIs(t, err, ErrNoData)
	assert.Equal(t, "a>b", chain.Name())
}

func TestQuoteChain_StopsOnCancelledContext(t *testing.T) {
	a := tier("a", &Mock{Price: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewQuoteChain(zerolog.Nop(), a).FetchQuote(ctx, mustParse(t, "BTCUSDT"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, a.calls)
}

func TestHistoryChain_SkipsEmptyAndInconsistent(t *testing.T) {
	empty := tier("yahoo", &Mock{Series: &model.PriceSeries{}})
	ragged := tier("exchangerate_history", &Mock{Series: &model.PriceSeries{
		Closes: []float64{1, 2, 3},
		Highs:  []float64{1, 2},
	}})
	good := tier("fixer", &Mock{Price: 1.1})

	chain := NewHistoryChain(zerolog.Nop(), empty, ragged, good)
	s, err := chain.FetchHistory(context.Background(), mustParse(t, "EURUSD"), 60)
	require.NoError(t, err)
	assert.Equal(t, 60, s.Len())
	assert.Equal(t, 1, good.calls)
}

func TestHistoryChain_AllTiersFail(t *testing.T) {
	chain := NewHistoryChain(zerolog.Nop(), tier("binance", &Mock{Err: errors.New("boom")}))
	s, err := chain.FetchHistory(context.Background(), mustParse(t, "BTCUSDT"), 100)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrAllTiersFailed)
}

func TestMock_SeriesTail(t *testing.T) {
	m := &Mock{Series: &model.PriceSeries{Closes: []float64{1, 2, 3, 4}}}
	s, err := m.FetchHistory(context.Background(), model.Instrument{}, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4}, s.Closes)
}
