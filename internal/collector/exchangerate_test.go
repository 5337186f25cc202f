package collector

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyRing_RoundRobin(t *testing.T) {
	r := NewKeyRing([]string{"a", "b", "c"})
	var got []int
	for i := 0; i < 5; i++ {
		idx, _ := r.Next()
		got = append(got, idx)
	}
	assert.Equal(t, []int{0, 1, 2, 0, 1}, got)

	empty := NewKeyRing(nil)
	idx, key := empty.Next()
	assert.Equal(t, -1, idx)
	assert.Empty(t, key)
}

// keyServer records which key each request used.
func keyServer(t *testing.T, payload string) (*[]string, string) {
	var mu sync.Mutex
	used := []string{}
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		mu.Lock()
		used = append(used, parts[0])
		mu.Unlock()
		body(payload)(w, r)
	})
	return &used, srv.URL
}

func TestExchangeRateLatest_RotatesKeysAcrossLookups(t *testing.T) {
	used, url := keyServer(t, `{"result":"success","conversion_rates":{"USD":1.08}}`)
	ring := NewKeyRing([]string{"k0", "k1", "k2", "k3"})
	p := NewExchangeRateLatest(zerolog.Nop(), NewHTTPClient("exchangerate"), url, ring)

	inst := mustParse(t, "EURUSD")
	for i := 0; i < 5; i++ {
		rate, err := p.Rate(context.Background(), inst)
		require.NoError(t, err)
		assert.Equal(t, 1.08, rate)
	}
	assert.Equal(t, []string{"k0", "k1", "k2", "k3", "k0"}, *used)
}

func TestExchangeRateLatest_SkipsPlaceholderKeys(t *testing.T) {
	used, url := keyServer(t, `{"rates":{"USD":1.08}}`)
	ring := NewKeyRing([]string{"your_key_here", "", "real"})
	p := NewExchangeRateLatest(zerolog.Nop(), NewHTTPClient("exchangerate"), url, ring)

	_, err := p.Rate(context.Background(), mustParse(t, "EURUSD"))
	require.NoError(t, err)
	assert.Equal(t, []string{"real"}, *used)
}

func TestExchangeRateLatest_FailedCallsContinueRotation(t *testing.T) {
	var calls []string
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		key := strings.Split(strings.Trim(r.URL.Path, "/"), "/")[0]
		calls = append(calls, key)
		if key != "good" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		body(`{"rates":{"USD":0.85}}`)(w, r)
	})
	ring := NewKeyRing([]string{"bad", "good"})
	var attempts []Attempt
	p := NewExchangeRateLatest(zerolog.Nop(), NewHTTPClient("exchangerate"), srv.URL, ring)
	p.Observe(ObserverFunc(func(a Attempt) { attempts = append(attempts, a) }))

	rate, err := p.Rate(context.Background(), mustParse(t, "EURUSD"))
	require.NoError(t, err)
	assert.Equal(t, 0.85, rate)
	assert.Equal(t, []string{"bad", "good"}, calls)
	require.Len(t, attempts, 2)
	assert.False(t, attempts[0].OK())
	assert.True(t, attempts[1].OK())
	assert.Equal(t, KindRate, attempts[1].Kind)
}

func TestExchangeRateLatest_MissingQuoteStopsRotation(t *testing.T) {
	used, url := keyServer(t, `{"rates":{"GBP":0.85}}`)
	ring := NewKeyRing([]string{"k0", "k1", "k2"})
	p := NewExchangeRateLatest(zerolog.Nop(), NewHTTPClient("exchangerate"), url, ring)

	_, err := p.Rate(context.Background(), mustParse(t, "EURUSD"))
	assert.ErrorIs(t, err, ErrRateMissing)
	assert.Equal(t, []string{"k0"}, *used)
}

func TestExchangeRateLatest_AllKeysUnusable(t *testing.T) {
	p := NewExchangeRateLatest(zerolog.Nop(), NewHTTPClient("exchangerate"), "http://unused",
		NewKeyRing([]string{"your_a", "your_b"}))
	_, err := p.Rate(context.Background(), mustParse(t, "EURUSD"))
	assert.ErrorIs(t, err, ErrAllTiersFailed)
	assert.ErrorIs(t, err, ErrMissingKey)

	none := NewExchangeRateLatest(zerolog.Nop(), NewHTTPClient("exchangerate"), "http://unused", NewKeyRing(nil))
	_, err = none.Rate(context.Background(), mustParse(t, "EURUSD"))
	assert.ErrorIs(t, err, ErrMissingKey)
}
