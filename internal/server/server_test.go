package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/th3rrry/minees/internal/generator"
	"github.com/th3rrry/minees/internal/market"
	"github.com/th3rrry/minees/internal/model"
	"github.com/th3rrry/minees/internal/recorder"
)

type statsFunc func(ctx context.Context, since time.Time) ([]recorder.ProviderStat, error)

func (f statsFunc) Stats(ctx context.Context, since time.Time) ([]recorder.ProviderStat, error) {
	return f(ctx, since)
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T, providers ProviderStats) (*Server, *generator.Store) {
	t.Helper()
	store := generator.NewStore()
	store.Put(model.Signal{Pair: "BTCUSDT", Direction: model.DirectionBuy, Confidence: 83, Path: model.PathTechnical})
	saturday := time.Date(2024, 6, 8, 12, 0, 0, 0, time.UTC)
	board := market.NewBoard(func() time.Time { return saturday }, nil)
	socket := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("metrics")) })

	h := NewHandler(store, board, providers, socket)
	h.now = func() time.Time { return saturday }
	return New(Config{Host: "127.0.0.1", Port: 0, CORS: true}, h, metrics, nil, zerolog.Nop()), store
}

func do(t *testing.T, s *Server, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec, _ := do(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, banner, rec.Body.String())
}

func TestListSignals(t *testing.T) {
	s, store := newTestServer(t, nil)
	store.Put(model.Signal{Pair: "EURUSD"})

	rec, env := do(t, s, "/api/signals")
	require.Equal(t, http.StatusOK, rec.Code)
	var sigs []model.Signal
	require.NoError(t, json.Unmarshal(env.Data, &sigs))
	require.Len(t, sigs, 2)
	assert.Equal(t, "BTCUSDT", sigs[0].Pair)
}

func TestGetSignal(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec, env := do(t, s, "/api/signals/btcusdt")
	require.Equal(t, http.StatusOK, rec.Code)
	var sig model.Signal
	require.NoError(t, json.Unmarshal(env.Data, &sig))
	assert.Equal(t, 83, sig.Confidence)

	rec, env = do(t, s, "/api/signals/GBPUSD")
	require.Equal(t, http.StatusAccepted, rec.Code)
	var notice waitingNotice
	require.NoError(t, json.Unmarshal(env.Data, &notice))
	assert.Equal(t, waitingNotice{Pair: "GBPUSD", Message: waitingMessage}, notice)

	rec, env = do(t, s, "/api/signals/EUR")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(env.Data), "ERR_MIN")
}

func TestMarkets(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec, env := do(t, s, "/api/markets")
	require.Equal(t, http.StatusOK, rec.Code)

	var statuses []market.Status
	require.NoError(t, json.Unmarshal(env.Data, &statuses))
	require.Len(t, statuses, 3)
	assert.False(t, statuses[0].Available)
	assert.True(t, statuses[2].Available)
}

func TestProviderStats(t *testing.T) {
	var gotSince time.Time
	s, _ := newTestServer(t, statsFunc(func(_ context.Context, since time.Time) ([]recorder.ProviderStat, error) {
		gotSince = since
		return []recorder.ProviderStat{{Provider: "binance", Kind: "quote", Attempts: 3}}, nil
	}))

	rec, env := do(t, s, "/api/providers?minutes=30")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"provider":"binance"`)
	assert.Equal(t, time.Date(2024, 6, 8, 11, 30, 0, 0, time.UTC), gotSince)

	rec, _ = do(t, s, "/api/providers")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2024, 6, 8, 11, 0, 0, 0, time.UTC), gotSince)

	rec, _ = do(t, s, "/api/providers?minutes=99999")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProviderStatsError(t *testing.T) {
	s, _ := newTestServer(t, statsFunc(func(context.Context, time.Time) ([]recorder.ProviderStat, error) {
		return nil, errors.New("db locked")
	}))
	rec, _ := do(t, s, "/api/providers")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSocketAndMetricsRoutes(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec, _ := do(t, s, "/ws")
	assert.Equal(t, http.StatusTeapot, rec.Code)
	rec, _ = do(t, s, "/metrics")
	assert.Equal(t, "metrics", rec.Body.String())
}
