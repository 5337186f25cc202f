package collector

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_RateLimit(t *testing.T) {
	srv := serve(t, body(`{}`))
	c := NewHTTPClient("p", WithRateLimit(0.001, 1))

	var v map[string]any
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, nil, &v))
	err := c.GetJSON(context.Background(), srv.URL, nil, &v)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestHTTPClient_StatusAndPayloadErrors(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			body(`not json`)(w, r)
			return
		}
		http.Error(w, "nope", http.StatusTooManyRequests)
	})
	c := NewHTTPClient("p")

	var v map[string]any
	err := c.GetJSON(context.Background(), srv.URL+"/status", nil, &v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")

	err = c.GetJSON(context.Background(), srv.URL+"/bad", nil, &v)
	assert.ErrorIs(t, err, ErrBadPayload)
}

func TestHTTPClient_TimeoutAndHeaders(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-MBX-APIKEY"))
		if r.URL.Query().Get("slow") != "" {
			time.Sleep(200 * time.Millisecond)
		}
		body(`{}`)(w, r)
	})
	c := NewHTTPClient("p", WithTimeout(50*time.Millisecond), WithHeader("X-MBX-APIKEY", "secret"))
	assert.Equal(t, 50*time.Millisecond, c.Timeout())

	var v map[string]any
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, nil, &v))
	err := c.GetJSON(context.Background(), srv.URL, map[string][]string{"slow": {"1"}}, &v)
	assert.Error(t, err)
}
