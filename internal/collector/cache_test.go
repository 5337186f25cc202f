package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/th3rrry/minees/internal/model"
)

func TestTTLCache_Expiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := NewTTLCache()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.SetBytes(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, c.SetBytes(ctx, "forever", []byte("f"), 0))

	b, ok, err := c.GetBytes(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), b)

	now = now.Add(2 * time.Minute)
	_, ok, _ = c.GetBytes(ctx, "k")
	assert.False(t, ok)
	_, ok, _ = c.GetBytes(ctx, "forever")
	assert.True(t, ok)
}

type failingCache struct{}

func (failingCache) GetBytes(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("down")
}

func (failingCache) SetBytes(context.Context, string, []byte, time.Duration) error {
	return errors.New("down")
}

func TestCachedHistory_ServesRepeatsFromCache(t *testing.T) {
	src := tier("binance", &Mock{Price: 100})
	cached := NewCachedHistory(src, NewTTLCache(), time.Minute, zerolog.Nop())
	inst := mustParse(t, "BTCUSDT")

	first, err := cached.FetchHistory(context.Background(), inst, 50)
	require.NoError(t, err)
	second, err := cached.FetchHistory(context.Background(), inst, 50)
	require.NoError(t, err)

	assert.Equal(t, 1, src.calls)
	assert.Equal(t, first.Closes, second.Closes)
	assert.Equal(t, "cached(binance)", cached.Name())

	_, err = cached.FetchHistory(context.Background(), inst, 60)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls, "different limit is a different key")
}

func TestCachedHistory_CacheFailureIsNotFatal(t *testing.T) {
	src := tier("binance", &Mock{Series: &model.PriceSeries{Closes: []float64{1, 2}}})
	cached := NewCachedHistory(src, failingCache{}, time.Minute, zerolog.Nop())

	s, err := cached.FetchHistory(context.Background(), mustParse(t, "BTCUSDT"), 10)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, s.Closes)
}

func TestCachedHistory_DoesNotCacheErrors(t *testing.T) {
	src := tier("binance", &Mock{Err: ErrNoData})
	cached := NewCachedHistory(src, NewTTLCache(), time.Minute, zerolog.Nop())
	inst := mustParse(t, "BTCUSDT")

	_, err := cached.FetchHistory(context.Background(), inst, 10)
	assert.ErrorIs(t, err, ErrNoData)
	_, err = cached.FetchHistory(context.Background(), inst, 10)
	assert.ErrorIs(t, err, ErrNoData)
	assert.Equal(t, 2, src.calls)
}
