package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryCache is an in-process Cache for provider tests.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.entries[key]
	return val, ok
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	m.sets++
}

func fastConfig(baseURL string) CoinGeckoConfig {
	return CoinGeckoConfig{
		BaseURL:        baseURL,
		RequestTimeout: time.Second,
		RequestsPerMin: 6000,
		CacheTTL:       time.Minute,
	}
}

const marketsPayload = `[
	{
		"id": "bitcoin",
		"symbol": "btc",
		"name": "Bitcoin",
		"current_price": 65000,
		"market_cap": 1280000000000,
		"market_cap_rank": 1,
		"total_volume": 30000000000,
		"circulating_supply": 19700000,
		"total_supply": 21000000,
		"ath": 73000,
		"price_change_percentage_24h": 1.2,
		"price_change_percentage_7d_in_currency": 4.5,
		"price_change_percentage_30d_in_currency": 11.0
	},
	{
		"id": "ethereum",
		"symbol": "eth",
		"name": "Ethereum",
		"current_price": 3400,
		"market_cap": 410000000000,
		"market_cap_rank": 2,
		"total_volume": 15000000000,
		"circulating_supply": 120000000,
		"total_supply": 120000000,
		"ath": 4870,
		"price_change_percentage_24h": -0.5,
		"price_change_percentage_7d_in_currency": 2.1,
		"price_change_percentage_30d_in_currency": 8.2
	}
]`

func TestListMarkets_MapsWireFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/markets", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
		assert.Equal(t, "2", r.URL.Query().Get("per_page"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		w.Write([]byte(marketsPayload))
	}))
	defer srv.Close()

	cg := NewCoinGecko(fastConfig(srv.URL), nil)

	candidates, err := cg.ListMarkets(context.Background(), "usd", 1, 2)

	require.NoError(t, err)
	require.Len(t, candidates, 2)

	btc := candidates[0]
	assert.Equal(t, "bitcoin", btc.ID)
	assert.Equal(t, "btc", btc.Symbol)
	assert.Equal(t, 65000.0, btc.CurrentPrice)
	assert.Equal(t, 1, btc.Rank)
	assert.Equal(t, 73000.0, btc.AllTimeHigh)
	assert.Equal(t, 11.0, btc.Change30d)
	assert.Empty(t, btc.PriceSeries)
}

func TestListMarkets_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cg := NewCoinGecko(fastConfig(srv.URL), nil)

	_, err := cg.ListMarkets(context.Background(), "usd", 1, 250)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")
}

func TestListMarkets_RateLimitedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	cg := NewCoinGecko(fastConfig(srv.URL), nil)

	_, err := cg.ListMarkets(context.Background(), "usd", 1, 250)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestPriceHistory_ExtractsSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/bitcoin/market_chart", r.URL.Path)
		assert.Equal(t, "30", r.URL.Query().Get("days"))
		w.Write([]byte(`{
			"prices": [[1700000000000, 64000], [1700086400000, 64500], [1700172800000, 65000]],
			"total_volumes": [[1700000000000, 28e9], [1700086400000, 29e9], [1700172800000, 30e9]]
		}`))
	}))
	defer srv.Close()

	cg := NewCoinGecko(fastConfig(srv.URL), nil)

	prices, volumes, err := cg.PriceHistory(context.Background(), "bitcoin", "usd", 30)

	require.NoError(t, err)
	assert.Equal(t, []float64{64000, 64500, 65000}, prices)
	assert.Equal(t, []float64{28e9, 29e9, 30e9}, volumes)
}

func TestGetJSON_CacheAside(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(marketsPayload))
	}))
	defer srv.Close()

	cache := newMemoryCache()
	cg := NewCoinGecko(fastConfig(srv.URL), cache)

	_, err := cg.ListMarkets(context.Background(), "usd", 1, 2)
	require.NoError(t, err)

	_, err = cg.ListMarkets(context.Background(), "usd", 1, 2)
	require.NoError(t, err)

	assert.Equal(t, 1, hits, "second call should be served from cache")
	assert.Equal(t, 1, cache.sets)
}

func TestNewCoinGecko_Defaults(t *testing.T) {
	cg := NewCoinGecko(CoinGeckoConfig{}, nil)

	assert.Equal(t, "https://api.coingecko.com/api/v3", cg.cfg.BaseURL)
	assert.Equal(t, 15*time.Second, cg.cfg.RequestTimeout)
	assert.Equal(t, 30, cg.cfg.RequestsPerMin)
	assert.Equal(t, 5*time.Minute, cg.cfg.CacheTTL)
}
