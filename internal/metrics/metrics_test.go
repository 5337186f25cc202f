package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/th3rrry/minees/internal/collector"
	"github.com/th3rrry/minees/internal/model"
)

func TestObserveAttempt(t *testing.T) {
	r := New()
	r.ObserveAttempt(collector.Attempt{Kind: collector.KindQuote, Provider: "binance", Duration: time.Second})
	r.ObserveAttempt(collector.Attempt{Kind: collector.KindQuote, Provider: "binance", Err: errors.New("451")})
	r.ObserveAttempt(collector.Attempt{Kind: collector.KindQuote, Provider: "binance", Err: errors.New("451")})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.attempts.WithLabelValues("binance", "quote", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.attempts.WithLabelValues("binance", "quote", "error")))
}

func TestObserveSignalAndCycle(t *testing.T) {
	r := New()
	r.ObserveSignal("crypto", model.Signal{Pair: "BTCUSDT", Path: model.PathTechnical, Direction: model.DirectionBuy, Confidence: 83})
	r.ObserveSignal("crypto", model.Signal{Pair: "BTCUSDT", Path: model.PathTechnical, Direction: model.DirectionBuy, Confidence: 62})
	r.ObserveCycle("crypto", 3*time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.signals.WithLabelValues("crypto", "technical", "BUY")))
	assert.Equal(t, 62.0, testutil.ToFloat64(r.confidence.WithLabelValues("BTCUSDT")))
	assert.Greater(t, testutil.ToFloat64(r.lastCycle.WithLabelValues("crypto")), 0.0)
}

func TestHandlerExposesGaugeFunc(t *testing.T) {
	r := New()
	r.GaugeFunc("ws_clients", "Connected socket clients.", func() float64 { return 3 })

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "minees_ws_clients 3")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestMiddleware(t *testing.T) {
	r := New()
	e := echo.New()
	e.Use(r.Middleware())
	e.GET("/api/signals/:pair", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/signals/EURUSD", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("/api/signals/:pair", "GET", "204")))
}
