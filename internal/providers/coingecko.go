// Package providers implements the market-data collaborators the engine
// consumes. The core treats any provider failure as opaque; retry and
// cross-source fallback live out here, never in scoring or allocation.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/coinpilot/coinpilot/internal/models"
)

// Cache is the lookup-with-TTL capability the provider uses when one is
// configured. Scoring never sees it.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// CoinGeckoConfig tunes the CoinGecko client.
type CoinGeckoConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	RequestsPerMin int
	CacheTTL       time.Duration
}

// CoinGecko fetches market snapshots and price history. Free-tier rate
// limits are respected with a client-side limiter; responses are cached
// behind the injected TTL cache when present.
type CoinGecko struct {
	cfg     CoinGeckoConfig
	client  *http.Client
	limiter *rate.Limiter
	cache   Cache
}

// NewCoinGecko creates a provider. cache may be nil.
func NewCoinGecko(cfg CoinGeckoConfig, cache Cache) *CoinGecko {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	if cfg.RequestsPerMin == 0 {
		cfg.RequestsPerMin = 30
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 5 * time.Minute
	}

	return &CoinGecko{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		limiter: rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMin)/60.0), 2),
		cache:   cache,
	}
}

// marketRow is CoinGecko's /coins/markets wire shape.
type marketRow struct {
	ID                string  `json:"id"`
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	CurrentPrice      float64 `json:"current_price"`
	MarketCap         float64 `json:"market_cap"`
	MarketCapRank     int     `json:"market_cap_rank"`
	TotalVolume       float64 `json:"total_volume"`
	CirculatingSupply float64 `json:"circulating_supply"`
	TotalSupply       float64 `json:"total_supply"`
	ATH               float64 `json:"ath"`
	Change24h         float64 `json:"price_change_percentage_24h"`
	Change7d          float64 `json:"price_change_percentage_7d_in_currency"`
	Change30d         float64 `json:"price_change_percentage_30d_in_currency"`
}

// ListMarkets returns one page of market snapshots ordered by market cap.
// Candidates come back without history; PriceHistory fills the series.
func (cg *CoinGecko) ListMarkets(ctx context.Context, vsCurrency string, page, perPage int) ([]*models.Candidate, error) {
	url := fmt.Sprintf("%s/coins/markets?vs_currency=%s&order=market_cap_desc&per_page=%d&page=%d&sparkline=false&price_change_percentage=24h,7d,30d",
		cg.cfg.BaseURL, vsCurrency, perPage, page)

	var rows []marketRow
	if err := cg.getJSON(ctx, url, &rows); err != nil {
		return nil, fmt.Errorf("list markets: %w", err)
	}

	candidates := make([]*models.Candidate, 0, len(rows))
	for _, r := range rows {
		candidates = append(candidates, &models.Candidate{
			ID:                r.ID,
			Symbol:            r.Symbol,
			Name:              r.Name,
			CurrentPrice:      r.CurrentPrice,
			MarketCap:         r.MarketCap,
			Rank:              r.MarketCapRank,
			Volume24h:         r.TotalVolume,
			CirculatingSupply: r.CirculatingSupply,
			TotalSupply:       r.TotalSupply,
			AllTimeHigh:       r.ATH,
			Change24h:         r.Change24h,
			Change7d:          r.Change7d,
			Change30d:         r.Change30d,
		})
	}

	log.Debug().
		Int("page", page).
		Int("count", len(candidates)).
		Str("vs_currency", vsCurrency).
		Msg("Markets page retrieved")

	return candidates, nil
}

// chartResponse is CoinGecko's /market_chart wire shape: [timestamp, value]
// pairs ordered ascending by timestamp.
type chartResponse struct {
	Prices       [][2]float64 `json:"prices"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

// PriceHistory returns the price and volume series for one coin, ordered
// ascending by timestamp. Callers enforce the minimum-history floor.
func (cg *CoinGecko) PriceHistory(ctx context.Context, id, vsCurrency string, days int) (prices, volumes []float64, err error) {
	url := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=%s&days=%d&interval=daily",
		cg.cfg.BaseURL, id, vsCurrency, days)

	var chart chartResponse
	if err := cg.getJSON(ctx, url, &chart); err != nil {
		return nil, nil, fmt.Errorf("price history for %s: %w", id, err)
	}

	prices = make([]float64, len(chart.Prices))
	for i, p := range chart.Prices {
		prices[i] = p[1]
	}
	volumes = make([]float64, len(chart.TotalVolumes))
	for i, v := range chart.TotalVolumes {
		volumes[i] = v[1]
	}

	return prices, volumes, nil
}

// getJSON performs one rate-limited, cache-aside GET.
func (cg *CoinGecko) getJSON(ctx context.Context, url string, out interface{}) error {
	if cg.cache != nil {
		if cached, ok := cg.cache.Get(ctx, url); ok {
			if err := json.Unmarshal(cached, out); err == nil {
				log.Debug().Str("url", url).Msg("Cache hit")
				return nil
			}
		}
	}

	if err := cg.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := cg.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("rate limited by provider (HTTP 429)")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshal failed: %w", err)
	}

	if cg.cache != nil {
		cg.cache.Set(ctx, url, raw, cg.cfg.CacheTTL)
	}

	log.Debug().Str("url", url).Dur("duration", time.Since(start)).Msg("Provider request complete")
	return nil
}
